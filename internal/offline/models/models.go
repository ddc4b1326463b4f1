// Package models defines the records persisted in the local staging
// database while the backend is unreachable.
package models

import (
	"strings"
	"time"

	"github.com/controlsuite/auditfiles/internal/filecontext"
)

// Task lifecycle states. A task stays pending through its retry window
// and moves to failed once the attempt budget is exhausted.
const (
	TaskStatusPending = "pending"
	TaskStatusFailed  = "failed"
)

// BlobRecord holds the raw bytes of a staged file.
type BlobRecord struct {
	ID             string
	EventID        string
	OrganizationID string
	Name           string
	MIME           string
	Size           int64
	Data           []byte
	Origin         string
	CreatedAt      time.Time
}

// SyncTask describes one deferred upload: the full resolution context
// plus retry bookkeeping. Tasks reference their blob by id.
type SyncTask struct {
	ID             string
	BlobID         string
	Kind           string
	EventID        string
	OrganizationID string
	SubUnitID      string
	Category       string
	CategoryRefID  string
	PersonIDs      string
	UploadedBy     string
	EventDate      time.Time
	Priority       int
	Attempts       int
	LastError      string
	NextRetryAt    time.Time
	Status         string
	CreatedAt      time.Time
}

// Context rebuilds the resolution context the task was staged with.
func (t *SyncTask) Context() filecontext.Context {
	var persons []string
	if t.PersonIDs != "" {
		persons = strings.Split(t.PersonIDs, ",")
	}
	return filecontext.Context{
		Kind:           filecontext.Kind(t.Kind),
		EventID:        t.EventID,
		OrganizationID: t.OrganizationID,
		SubUnitID:      t.SubUnitID,
		Category:       filecontext.Category(t.Category),
		CategoryRefID:  t.CategoryRefID,
		PersonIDs:      persons,
	}
}

// SetContext stores a resolution context into the task columns.
func (t *SyncTask) SetContext(fc filecontext.Context) {
	t.Kind = string(fc.Kind)
	t.EventID = fc.EventID
	t.OrganizationID = fc.OrganizationID
	t.SubUnitID = fc.SubUnitID
	t.Category = string(fc.Category)
	t.CategoryRefID = fc.CategoryRefID
	t.PersonIDs = strings.Join(fc.PersonIDs, ",")
}
