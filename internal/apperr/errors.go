// Package apperr holds the error kinds shared by every domain package.
// Domain errors wrap exactly one of these so callers can classify them with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// Kind returns the taxonomy sentinel wrapped by err, or nil when err is unclassified.
func Kind(err error) error {
	for _, kind := range []error{ErrNotFound, ErrConflict, ErrInvalidState, ErrForbidden, ErrValidation} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
