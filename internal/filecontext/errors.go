package filecontext

import "errors"

// Validation errors. These indicate a programming or configuration error in
// the caller: they are never recovered locally and must surface unchanged.
var (
	ErrUnknownKind           = errors.New("unknown context kind")
	ErrMissingEventID        = errors.New("missing event id")
	ErrMissingOrganizationID = errors.New("missing organization id")
	ErrMissingSubUnit        = errors.New("missing sub-unit id")
	ErrInvalidCategory       = errors.New("invalid file category")
)

// IsValidationError reports whether err is (or wraps) one of the context
// validation sentinels. The offline adapter uses this to decide whether a
// failed upload may fall back to local staging: validation failures may not.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrUnknownKind,
		ErrMissingEventID,
		ErrMissingOrganizationID,
		ErrMissingSubUnit,
		ErrInvalidCategory,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
