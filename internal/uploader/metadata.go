package uploader

import (
	"strings"
	"time"

	"github.com/controlsuite/auditfiles/internal/filecontext"
)

const (
	// ModelVersion tags uploads with the metadata model revision so future
	// migrations can tell record generations apart.
	ModelVersion = "1.0"

	// AppName marks records as belonging to this application.
	AppName = "ControlAudit"
)

// Metadata is the flat (non-nested) record persisted alongside an uploaded
// binary. It is built once per upload attempt and treated as immutable
// afterwards.
type Metadata struct {
	ModelVersion   string
	AppName        string
	Kind           filecontext.Kind
	EventID        string
	OrganizationID string
	Category       filecontext.Category
	UploadedAt     time.Time
	EventDate      time.Time

	// Conditional fields, included only when supplied.
	SubUnitID     string
	CategoryRefID string
	PersonIDs     []string
	UploadedBy    string
}

// BuildMetadata constructs the metadata record for one upload attempt.
func BuildMetadata(fc filecontext.Context, uploadedBy string, eventDate, now time.Time) Metadata {
	return Metadata{
		ModelVersion:   ModelVersion,
		AppName:        AppName,
		Kind:           fc.Kind,
		EventID:        fc.EventID,
		OrganizationID: fc.OrganizationID,
		Category:       fc.Category,
		UploadedAt:     now,
		EventDate:      eventDate,
		SubUnitID:      fc.SubUnitID,
		CategoryRefID:  fc.CategoryRefID,
		PersonIDs:      fc.PersonIDs,
		UploadedBy:     uploadedBy,
	}
}

// Flatten returns the metadata as the flat string map the storage backend
// persists. Fixed fields are always present; conditional fields appear only
// when set.
func (m Metadata) Flatten() map[string]string {
	md := map[string]string{
		"modelVersion":   m.ModelVersion,
		"appName":        m.AppName,
		"contextKind":    string(m.Kind),
		"eventId":        m.EventID,
		"organizationId": m.OrganizationID,
		"fileCategory":   string(m.Category),
		"uploadedAt":     m.UploadedAt.UTC().Format(time.RFC3339),
		"eventDate":      m.EventDate.UTC().Format(time.RFC3339),
	}

	if m.SubUnitID != "" {
		md["subUnitId"] = m.SubUnitID
	}
	if m.CategoryRefID != "" {
		md["categoryRefId"] = m.CategoryRefID
	}
	if len(m.PersonIDs) > 0 {
		md["personIds"] = strings.Join(m.PersonIDs, ",")
	}
	if m.UploadedBy != "" {
		md["uploadedBy"] = m.UploadedBy
	}

	return md
}
