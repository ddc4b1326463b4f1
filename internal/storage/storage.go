// Package storage declares the contracts of the external collaborators the
// pipeline coordinates: the folder-creation backend, the binary-transfer
// backend, and the event directory used to complete a context before
// offline staging. Implementations live in the subpackages.
package storage

import (
	"context"
	"time"

	"github.com/controlsuite/auditfiles/internal/filecontext"
)

// Folders creates-or-fetches folders by name.
type Folders interface {
	// EnsureFolder returns the id of the folder called name under
	// parentID, creating it if it does not exist yet. An empty parentID
	// addresses the storage root. EnsureFolder is idempotent: repeated
	// calls for the same (name, parent) converge to the same id.
	EnsureFolder(ctx context.Context, name, parentID string) (string, error)
}

// FileInput is a binary handed to the pipeline for upload.
type FileInput struct {
	Name string
	MIME string
	Size int64
	Data []byte
}

// UploadedFile is what the binary-transfer backend returns for a stored
// file: its identifier and an opaque share token enabling indirect
// retrieval.
type UploadedFile struct {
	FileID     string
	ShareToken string
}

// Binaries transfers file bytes to remote storage. The backend verifies the
// caller's identity on its own; this pipeline only supplies the token.
type Binaries interface {
	// UploadBinary stores the file under the destination folder together
	// with its flat metadata record.
	UploadBinary(ctx context.Context, file FileInput, folderID string, metadata map[string]string) (*UploadedFile, error)
}

// EventInfo is the subset of an event's stored record needed to complete a
// file context before offline staging.
type EventInfo struct {
	OrganizationID string
	CategoryRefID  string
}

// EventDirectory looks up an event's own record in the document database.
// The offline adapter consults it when a context arrives without the fields
// required to replay the upload later.
type EventDirectory interface {
	LookupEvent(ctx context.Context, kind filecontext.Kind, eventID string) (*EventInfo, error)
}

// RemoteFile is a raw storage record as returned by the backend's read
// APIs. Metadata carries the flat custom fields persisted at upload time;
// for records predating the structured-context model most keys are absent.
type RemoteFile struct {
	ID         string
	Name       string
	MIME       string
	Size       int64
	ParentID   string
	UserID     string
	ShareToken string
	CreatedAt  time.Time
	Metadata   map[string]string
}
