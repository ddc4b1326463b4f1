package filecontext

import "fmt"

// FolderShape declares which hierarchy levels a kind materializes below its
// root-scoped bucket. The category level is always present.
type FolderShape struct {
	// EventLevel places files under a per-event folder.
	EventLevel bool
	// OrgLevel places files under a per-organization folder when an
	// organization id is present.
	OrgLevel bool
	// SubUnitLevel places files under a per-sub-unit folder when a
	// sub-unit id is present.
	SubUnitLevel bool
}

// KindConfig is the static configuration entry for one context kind.
type KindConfig struct {
	OrganizationRequired bool
	SubUnitRequired      bool

	// CategoryRefRequired marks kinds whose files must reference a
	// category-specific parent record (e.g. a training type). Enforced at
	// staging time, not at upload validation.
	CategoryRefRequired bool

	AllowedCategories []Category
	Shape             FolderShape
}

// Allows reports whether c is in the kind's category allow-list.
func (k KindConfig) Allows(c Category) bool {
	for _, allowed := range k.AllowedCategories {
		if c == allowed {
			return true
		}
	}
	return false
}

// configTable is the static mapping from kind to validation and
// folder-shape rules. Kinds not listed here are rejected everywhere.
var configTable = map[Kind]KindConfig{
	KindTraining: {
		OrganizationRequired: true,
		CategoryRefRequired:  true,
		AllowedCategories:    []Category{CategoryEvidence, CategoryMaterial, CategoryCertificate},
		Shape:                FolderShape{EventLevel: true, OrgLevel: true, SubUnitLevel: true},
	},
	KindIncident: {
		OrganizationRequired: true,
		AllowedCategories:    []Category{CategoryReport, CategoryEvidence, CategoryPhoto},
		Shape:                FolderShape{EventLevel: true, OrgLevel: true},
	},
	KindAudit: {
		AllowedCategories: []Category{CategoryEvidence, CategoryReport, CategoryDocument},
		Shape:             FolderShape{EventLevel: true, OrgLevel: true},
	},
	KindCompanyLogo: {
		OrganizationRequired: true,
		AllowedCategories:    []Category{CategoryLogo},
		// A logo belongs to the organization, not to an occurrence.
		Shape: FolderShape{OrgLevel: true},
	},
	KindAttendance: {
		OrganizationRequired: true,
		SubUnitRequired:      true,
		CategoryRefRequired:  true,
		AllowedCategories:    []Category{CategorySheet, CategoryEvidence},
		Shape:                FolderShape{EventLevel: true, OrgLevel: true, SubUnitLevel: true},
	},
}

// GetConfig returns the configuration entry for kind, or an error wrapping
// ErrUnknownKind when the kind is not mapped.
func GetConfig(kind Kind) (KindConfig, error) {
	cfg, ok := configTable[kind]
	if !ok {
		return KindConfig{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return cfg, nil
}

// Kinds returns the configured kinds. Order is not defined.
func Kinds() []Kind {
	out := make([]Kind, 0, len(configTable))
	for k := range configTable {
		out = append(out, k)
	}
	return out
}
