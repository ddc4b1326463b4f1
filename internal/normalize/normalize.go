// Package normalize classifies remote file records into the current
// metadata model, recognized legacy records, or rejects, and maps them
// to a uniform shape consumers can filter and render.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/controlsuite/auditfiles/internal/filecontext"
	"github.com/controlsuite/auditfiles/internal/storage"
)

// Class is the outcome of classifying a remote file record.
type Class int

const (
	// ClassRejected marks records that belong to neither the current
	// model nor the recognized legacy shape.
	ClassRejected Class = iota
	// ClassCurrent marks records carrying the full current metadata model.
	ClassCurrent
	// ClassLegacy marks records written by older app versions that only
	// tagged the producing app and the event they belong to.
	ClassLegacy
)

// Unknown fills context fields a legacy record never carried.
const Unknown = "unknown"

const (
	shareURLBase = "https://files.controldoc.app/api/shares"

	legacyAppName = "ControlAudit"
)

// Record is the uniform view of a remote file after normalization.
type Record struct {
	FileID         string
	Name           string
	MIME           string
	Size           int64
	ShareToken     string
	UploadedBy     string
	CreatedAt      time.Time
	Kind           string
	EventID        string
	OrganizationID string
	SubUnitID      string
	Category       string
	CategoryRefID  string
	PersonIDs      []string
	IsLegacy       bool
}

// Classify decides which model a remote record belongs to. A record is
// current when its metadata names a recognized kind, a non-empty event,
// a category the kind allows and the category-specific reference id.
// It is legacy when the producing app is ControlAudit and an auditId is
// present without the full current structure. Everything else is rejected.
func Classify(rf storage.RemoteFile) Class {
	if isCurrent(rf.Metadata) {
		return ClassCurrent
	}
	if rf.Metadata["appName"] == legacyAppName && rf.Metadata["auditId"] != "" {
		return ClassLegacy
	}
	return ClassRejected
}

func isCurrent(md map[string]string) bool {
	kind := filecontext.Kind(md["contextKind"])
	cfg, err := filecontext.GetConfig(kind)
	if err != nil {
		return false
	}
	if md["eventId"] == "" || md["categoryRefId"] == "" {
		return false
	}
	return cfg.Allows(filecontext.Category(md["fileCategory"]))
}

// Normalize maps a remote record to the uniform shape. Rejected records
// yield ok=false and must be skipped by callers.
func Normalize(rf storage.RemoteFile) (Record, bool) {
	switch Classify(rf) {
	case ClassCurrent:
		return currentRecord(rf), true
	case ClassLegacy:
		return legacyRecord(rf), true
	default:
		return Record{}, false
	}
}

func currentRecord(rf storage.RemoteFile) Record {
	md := rf.Metadata
	return Record{
		FileID:         rf.ID,
		Name:           rf.Name,
		MIME:           rf.MIME,
		Size:           rf.Size,
		ShareToken:     rf.ShareToken,
		UploadedBy:     md["uploadedBy"],
		CreatedAt:      rf.CreatedAt,
		Kind:           md["contextKind"],
		EventID:        md["eventId"],
		OrganizationID: md["organizationId"],
		SubUnitID:      md["subUnitId"],
		Category:       md["fileCategory"],
		CategoryRefID:  md["categoryRefId"],
		PersonIDs:      splitPersonIDs(md["personIds"]),
	}
}

func legacyRecord(rf storage.RemoteFile) Record {
	md := rf.Metadata
	org := md["organizationId"]
	if org == "" {
		org = md["companyId"]
	}
	if org == "" {
		org = Unknown
	}
	return Record{
		FileID:         rf.ID,
		Name:           rf.Name,
		MIME:           rf.MIME,
		Size:           rf.Size,
		ShareToken:     rf.ShareToken,
		UploadedBy:     md["uploadedBy"],
		CreatedAt:      rf.CreatedAt,
		Kind:           Unknown,
		EventID:        md["auditId"],
		OrganizationID: org,
		SubUnitID:      Unknown,
		Category:       Unknown,
		CategoryRefID:  Unknown,
		PersonIDs:      []string{},
		IsLegacy:       true,
	}
}

func splitPersonIDs(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCategory keeps current records in the given category. Legacy
// records never match a category filter since theirs is unknown.
func FilterByCategory(records []Record, category filecontext.Category) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !r.IsLegacy && r.Category == string(category) {
			out = append(out, r)
		}
	}
	return out
}

// Split partitions records into current and legacy groups.
func Split(records []Record) (current, legacy []Record) {
	for _, r := range records {
		if r.IsLegacy {
			legacy = append(legacy, r)
		} else {
			current = append(current, r)
		}
	}
	return current, legacy
}

// ShareURL is the public preview link for a shared file.
func ShareURL(token string) string {
	return fmt.Sprintf("%s/%s/image", shareURLBase, token)
}

// DownloadURL is the public download link for a shared file.
func DownloadURL(token string) string {
	return fmt.Sprintf("%s/%s/download", shareURLBase, token)
}
