package core

import (
	"errors"
	"fmt"
)

// Error kinds shared across services. Handlers map these onto HTTP status
// codes; services wrap them with entity context via %w so callers can still
// test the kind with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundf wraps ErrNotFound with entity context, e.g. NotFoundf("account", 12).
func NotFoundf(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
}

// ValidationError carries a field-level message for 4xx responses.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid wraps a validation sentinel with the offending field name.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError or one of
// the core validation sentinels.
func IsValidation(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return true
	}
	for _, sentinel := range []error{
		ErrInvalidAmount, ErrEmptyDescription, ErrDescriptionTooLong,
		ErrNotesTooLong, ErrInvalidType, ErrInvalidDate, ErrInvalidDateRange,
		ErrEmptyName, ErrNameTooLong, ErrMissingCategory, ErrMissingAccount,
		ErrInvalidThreshold,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
