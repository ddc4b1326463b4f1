// Package uploader orchestrates a single upload: resolve the destination
// folder, build the flat metadata record, and delegate the byte transfer to
// the storage backend. The orchestrator never retries — fallback is the
// caller's concern (see the syncer package for the one caller that stages
// offline on failure).
package uploader

import (
	"context"
	"fmt"
	"time"

	"github.com/controlsuite/auditfiles/internal/filecontext"
	"github.com/controlsuite/auditfiles/internal/storage"
)

// DestinationResolver yields the destination folder for a context.
type DestinationResolver interface {
	Resolve(ctx context.Context, fc filecontext.Context) (string, error)
}

// UploadError wraps a failed byte transfer with the context identifiers
// needed for diagnostics.
type UploadError struct {
	Kind    filecontext.Kind
	EventID string
	Err     error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload binary for %s/%s: %v", e.Kind, e.EventID, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Result is the outcome of a completed upload.
type Result struct {
	FileID     string
	ShareToken string
	UploadedAt time.Time
}

// Options carries the optional per-upload inputs.
type Options struct {
	// EventDate is the logical date of the event the file documents.
	// Zero means "now".
	EventDate time.Time
	// UploadedBy identifies the uploading user when known.
	UploadedBy string
}

// Orchestrator coordinates folder resolution, metadata construction and the
// physical transfer.
type Orchestrator struct {
	resolver DestinationResolver
	binaries storage.Binaries
	now      func() time.Time
}

func New(resolver DestinationResolver, binaries storage.Binaries) *Orchestrator {
	return &Orchestrator{resolver: resolver, binaries: binaries, now: time.Now}
}

// Upload pushes the file to its context's destination folder and returns
// the stored file's identifiers. Resolution errors are propagated with the
// context identifiers attached; transfer errors come back as *UploadError.
func (o *Orchestrator) Upload(ctx context.Context, file storage.FileInput, fc filecontext.Context, opts Options) (*Result, error) {
	folderID, err := o.resolver.Resolve(ctx, fc)
	if err != nil {
		return nil, fmt.Errorf("resolve destination for %s/%s: %w", fc.Kind, fc.EventID, err)
	}

	now := o.now()
	eventDate := opts.EventDate
	if eventDate.IsZero() {
		eventDate = now
	}

	md := BuildMetadata(fc, opts.UploadedBy, eventDate, now)

	uploaded, err := o.binaries.UploadBinary(ctx, file, folderID, md.Flatten())
	if err != nil {
		return nil, &UploadError{Kind: fc.Kind, EventID: fc.EventID, Err: err}
	}

	return &Result{
		FileID:     uploaded.FileID,
		ShareToken: uploaded.ShareToken,
		UploadedAt: now,
	}, nil
}
