// Package syncer implements the hybrid upload flow: try the backend
// directly while online, otherwise park the file in the local staging
// database and let the consumer replay it when connectivity returns.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/controlsuite/auditfiles/internal/filecontext"
	"github.com/controlsuite/auditfiles/internal/logging"
	"github.com/controlsuite/auditfiles/internal/offline"
	"github.com/controlsuite/auditfiles/internal/offline/models"
	"github.com/controlsuite/auditfiles/internal/storage"
	"github.com/controlsuite/auditfiles/internal/uploader"
)

// ErrStagingUnresolvable means a file cannot even be staged: required
// context fields are missing and the event directory could not supply
// them, so a later replay would never succeed.
var ErrStagingUnresolvable = errors.New("context incomplete, cannot stage for later sync")

// Connectivity reports whether the backend is currently reachable.
type Connectivity interface {
	Online(ctx context.Context) bool
}

// Uploader performs one direct upload attempt.
type Uploader interface {
	Upload(ctx context.Context, file storage.FileInput, fc filecontext.Context, opts uploader.Options) (*uploader.Result, error)
}

// Options carries the per-upload inputs the staging record preserves.
type Options struct {
	EventDate  time.Time
	UploadedBy string
	// Priority orders replay, lower replays first.
	Priority int
	// Origin tags where the file came from (camera, gallery, import).
	Origin string
}

// Result is the outcome of an upload request. Either the file reached
// the backend (FileID set) or it was staged (Staged true with the local
// record ids).
type Result struct {
	FileID     string
	ShareToken string
	UploadedAt time.Time
	Staged     bool
	BlobID     string
	TaskID     string
}

// Service routes uploads between the direct path and the staging queue.
type Service struct {
	uploads Uploader
	repos   *offline.Repositories
	events  storage.EventDirectory
	online  Connectivity
	log     logging.Logger
	now     func() time.Time
}

func NewService(uploads Uploader, repos *offline.Repositories, events storage.EventDirectory, online Connectivity, log logging.Logger) *Service {
	return &Service{
		uploads: uploads,
		repos:   repos,
		events:  events,
		online:  online,
		log:     log,
		now:     time.Now,
	}
}

// Upload attempts a direct upload when the backend is reachable and
// falls back to staging otherwise. Validation errors are returned to
// the caller immediately: a context that fails validation now would
// fail it on every replay too.
func (s *Service) Upload(ctx context.Context, file storage.FileInput, fc filecontext.Context, opts Options) (*Result, error) {
	if s.online.Online(ctx) {
		res, err := s.uploads.Upload(ctx, file, fc, uploader.Options{
			EventDate:  opts.EventDate,
			UploadedBy: opts.UploadedBy,
		})
		if err == nil {
			return &Result{FileID: res.FileID, ShareToken: res.ShareToken, UploadedAt: res.UploadedAt}, nil
		}
		if filecontext.IsValidationError(err) {
			return nil, err
		}
		s.log.Warn(ctx, "direct upload failed, staging offline",
			"kind", fc.Kind, "event", fc.EventID, "error", err)
	}
	return s.Stage(ctx, file, fc, opts)
}

// Stage parks the file locally and enqueues a sync task for it. Missing
// required fields are backfilled from the event directory when possible;
// a context that stays incomplete is rejected with ErrStagingUnresolvable.
func (s *Service) Stage(ctx context.Context, file storage.FileInput, fc filecontext.Context, opts Options) (*Result, error) {
	fc, err := s.completeContext(ctx, fc)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	eventDate := opts.EventDate
	if eventDate.IsZero() {
		eventDate = now
	}

	blob := &models.BlobRecord{
		ID:             uuid.NewString(),
		EventID:        fc.EventID,
		OrganizationID: fc.OrganizationID,
		Name:           file.Name,
		MIME:           file.MIME,
		Size:           file.Size,
		Data:           file.Data,
		Origin:         opts.Origin,
		CreatedAt:      now,
	}
	// The blob goes in before the task. If the process dies between the
	// two writes we are left with an orphaned blob, never a task whose
	// bytes are missing. Orphans age out via CleanupOld.
	if err := s.repos.Blobs.Insert(ctx, blob); err != nil {
		return nil, fmt.Errorf("stage blob: %w", err)
	}

	task := &models.SyncTask{
		ID:          uuid.NewString(),
		BlobID:      blob.ID,
		UploadedBy:  opts.UploadedBy,
		EventDate:   eventDate,
		Priority:    opts.Priority,
		Status:      models.TaskStatusPending,
		NextRetryAt: now,
		CreatedAt:   now,
	}
	task.SetContext(fc)
	if err := s.repos.Tasks.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("stage sync task: %w", err)
	}

	s.log.Info(ctx, "file staged for sync",
		"blob", blob.ID, "task", task.ID, "kind", fc.Kind, "event", fc.EventID)
	return &Result{Staged: true, BlobID: blob.ID, TaskID: task.ID}, nil
}

// completeContext fills required fields the caller did not supply by
// asking the event directory, then validates the result.
func (s *Service) completeContext(ctx context.Context, fc filecontext.Context) (filecontext.Context, error) {
	cfg, err := filecontext.GetConfig(fc.Kind)
	if err != nil {
		return fc, err
	}
	if strings.TrimSpace(fc.EventID) == "" {
		return fc, fmt.Errorf("%w: %w", ErrStagingUnresolvable, filecontext.ErrMissingEventID)
	}

	needsOrg := cfg.OrganizationRequired && fc.OrganizationID == ""
	needsRef := cfg.CategoryRefRequired && fc.CategoryRefID == ""
	if (needsOrg || needsRef) && s.events != nil {
		info, err := s.events.LookupEvent(ctx, fc.Kind, fc.EventID)
		if err != nil {
			s.log.Warn(ctx, "event lookup failed during staging",
				"kind", fc.Kind, "event", fc.EventID, "error", err)
		} else {
			if needsOrg {
				fc.OrganizationID = info.OrganizationID
			}
			if needsRef {
				fc.CategoryRefID = info.CategoryRefID
			}
		}
	}

	if err := filecontext.Validate(fc); err != nil {
		return fc, fmt.Errorf("%w: %w", ErrStagingUnresolvable, err)
	}
	// Validate tolerates a missing category reference, replay does not.
	if cfg.CategoryRefRequired && fc.CategoryRefID == "" {
		return fc, fmt.Errorf("%w: missing category reference id for kind %q", ErrStagingUnresolvable, fc.Kind)
	}
	return fc, nil
}
