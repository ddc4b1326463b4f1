// Package resolver maps a validated file context onto a destination folder
// in remote storage, creating the hierarchy level by level and memoizing
// the result.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/controlsuite/auditfiles/internal/filecontext"
	"github.com/controlsuite/auditfiles/internal/foldercache"
	"github.com/controlsuite/auditfiles/internal/logging"
	"github.com/controlsuite/auditfiles/internal/storage"
)

// RootContainer is the application's top-level folder at the storage root.
const RootContainer = "ControlAudit"

// Hierarchy level names, used in FolderError to report where a resolution
// failed.
const (
	LevelRoot     = "root"
	LevelBucket   = "bucket"
	LevelEvent    = "event"
	LevelOrg      = "organization"
	LevelSubUnit  = "sub-unit"
	LevelCategory = "category"
)

// FolderError reports a failed folder creation, identifying the hierarchy
// level and folder name that could not be ensured.
type FolderError struct {
	Level string
	Name  string
	Err   error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("create %s folder %q: %v", e.Level, e.Name, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// Resolver computes destination folders for file contexts. Results are
// cached; concurrent resolutions of the same context are collapsed into a
// single remote walk.
type Resolver struct {
	folders storage.Folders
	cache   *foldercache.Cache
	group   singleflight.Group
	log     logging.Logger
}

func New(folders storage.Folders, cache *foldercache.Cache, log logging.Logger) *Resolver {
	return &Resolver{folders: folders, cache: cache, log: log}
}

// cacheKey derives the memoization key from the five identifying fields in
// a fixed order.
func cacheKey(fc filecontext.Context) string {
	return strings.Join([]string{
		string(fc.Kind),
		fc.EventID,
		fc.OrganizationID,
		fc.SubUnitID,
		string(fc.Category),
	}, "|")
}

// skipsEventLevel is the single known folder-shape exception: audits with
// the "general" sentinel event id are not tied to one occurrence and share
// a folder, so the event level is omitted for them.
func skipsEventLevel(fc filecontext.Context) bool {
	return fc.Kind == filecontext.KindAudit && fc.EventID == filecontext.GeneralAuditEvent
}

// Resolve validates fc and returns the id of its destination folder,
// creating the hierarchy on a cache miss. A failed resolution caches
// nothing and can be retried as a whole: the folder backend is idempotent
// on existing folders.
func (r *Resolver) Resolve(ctx context.Context, fc filecontext.Context) (string, error) {
	if err := filecontext.Validate(fc); err != nil {
		return "", err
	}
	cfg, err := filecontext.GetConfig(fc.Kind)
	if err != nil {
		return "", err
	}

	key := cacheKey(fc)
	if id, ok := r.cache.Get(key); ok {
		r.log.Debug(ctx, "folder resolved from cache", "key", key, "folder", id)
		return id, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		// another resolution may have finished while we queued
		if id, ok := r.cache.Get(key); ok {
			return id, nil
		}
		id, err := r.walk(ctx, fc, cfg)
		if err != nil {
			return nil, err
		}
		r.cache.Put(key, id)
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// walk creates-or-fetches each hierarchy level in order. Every level
// depends on the previous level's id, so the calls are strictly
// sequential.
func (r *Resolver) walk(ctx context.Context, fc filecontext.Context, cfg filecontext.KindConfig) (string, error) {
	cur, err := r.ensure(ctx, LevelRoot, RootContainer, "")
	if err != nil {
		return "", err
	}

	cur, err = r.ensure(ctx, LevelBucket, string(fc.Kind), cur)
	if err != nil {
		return "", err
	}

	if cfg.Shape.EventLevel && !skipsEventLevel(fc) {
		cur, err = r.ensure(ctx, LevelEvent, fc.EventID, cur)
		if err != nil {
			return "", err
		}
	}

	if cfg.Shape.OrgLevel && fc.OrganizationID != "" {
		cur, err = r.ensure(ctx, LevelOrg, fc.OrganizationID, cur)
		if err != nil {
			return "", err
		}
	}

	if cfg.Shape.SubUnitLevel && fc.SubUnitID != "" {
		cur, err = r.ensure(ctx, LevelSubUnit, fc.SubUnitID, cur)
		if err != nil {
			return "", err
		}
	}

	cur, err = r.ensure(ctx, LevelCategory, string(fc.Category), cur)
	if err != nil {
		return "", err
	}

	r.log.Info(ctx, "folder structure resolved",
		"kind", fc.Kind, "event", fc.EventID, "folder", cur)

	return cur, nil
}

func (r *Resolver) ensure(ctx context.Context, level, name, parentID string) (string, error) {
	id, err := r.folders.EnsureFolder(ctx, name, parentID)
	if err != nil {
		return "", &FolderError{Level: level, Name: name, Err: err}
	}
	if id == "" {
		return "", &FolderError{Level: level, Name: name, Err: errors.New("backend returned empty folder id")}
	}
	return id, nil
}
