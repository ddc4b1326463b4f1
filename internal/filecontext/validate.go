package filecontext

import (
	"fmt"
	"strings"
)

// Validate checks ctx against the configuration table. It is a pure function
// with no side effects. A nil return means ctx may be handed to the folder
// resolver and the upload orchestrator.
//
// Presence of fields a kind does not require is tolerated; only missing
// required fields and unlisted categories are errors.
func Validate(ctx Context) error {
	cfg, err := GetConfig(ctx.Kind)
	if err != nil {
		return err
	}

	if strings.TrimSpace(ctx.EventID) == "" {
		return fmt.Errorf("%w (kind %q)", ErrMissingEventID, ctx.Kind)
	}

	if cfg.OrganizationRequired && strings.TrimSpace(ctx.OrganizationID) == "" {
		return fmt.Errorf("%w (kind %q)", ErrMissingOrganizationID, ctx.Kind)
	}

	if cfg.SubUnitRequired && strings.TrimSpace(ctx.SubUnitID) == "" {
		return fmt.Errorf("%w (kind %q)", ErrMissingSubUnit, ctx.Kind)
	}

	if !cfg.Allows(ctx.Category) {
		return fmt.Errorf("%w: %q is not allowed for kind %q (allowed: %v)",
			ErrInvalidCategory, ctx.Category, ctx.Kind, cfg.AllowedCategories)
	}

	return nil
}
