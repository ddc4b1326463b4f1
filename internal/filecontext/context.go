// Package filecontext defines the file context model: which business entity
// an uploaded file is attached to, the static per-kind configuration table,
// and the validation rules a context must satisfy before it may reach the
// folder resolver or the upload orchestrator.
package filecontext

// Kind identifies the business entity a file belongs to.
type Kind string

const (
	KindTraining    Kind = "training"
	KindIncident    Kind = "incident"
	KindAudit       Kind = "audit"
	KindCompanyLogo Kind = "company_logo"
	KindAttendance  Kind = "attendance"
)

// Category classifies the role a file plays within its context.
type Category string

const (
	CategoryEvidence    Category = "evidence"
	CategoryMaterial    Category = "material"
	CategoryCertificate Category = "certificate"
	CategoryReport      Category = "report"
	CategoryPhoto       Category = "photo"
	CategoryDocument    Category = "document"
	CategoryLogo        Category = "logo"
	CategorySheet       Category = "sheet"
)

// GeneralAuditEvent is the sentinel event id for audits not tied to one
// specific occurrence. Such audits share a folder: the resolver skips the
// event level entirely for them.
const GeneralAuditEvent = "general"

// Context describes where a file belongs. A Context must pass Validate
// before it is used to resolve a destination folder or build upload
// metadata.
type Context struct {
	Kind    Kind
	EventID string

	// OrganizationID is the tenant the file belongs to. Required or
	// optional depending on the kind's configuration.
	OrganizationID string

	// SubUnitID is an optional secondary scope, e.g. a branch.
	SubUnitID string

	Category Category

	// CategoryRefID identifies the category-specific parent record, e.g.
	// the training type a session belongs to. Kinds that declare it
	// required must have it resolved before offline staging.
	CategoryRefID string

	// PersonIDs lists the people associated with the file, e.g. the
	// employees attending a training session.
	PersonIDs []string
}
