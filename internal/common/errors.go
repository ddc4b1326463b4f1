// Package common defines shared sentinel errors used across the upload
// pipeline. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Internal flow control.
	ErrInternal = errors.New("internal error")
)
