package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrConflict      = errors.New("write conflict")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrLockHeld      = errors.New("lock already held")
	ErrContextDone   = errors.New("context cancelled")
)

// Validation codes attached to ValidationError. Handlers map these to
// field-level messages in API responses.
const (
	CodeExactlyOneStem   = "exactly_one_stem"
	CodeNeedsGeoAnchor   = "needs_geo_anchor"
	CodeNonPositivePrice = "nonpositive_price"
	CodeBadCurrency      = "bad_currency"
)

// ValidationError reports malformed input at the service boundary. It is
// always recoverable by the caller correcting the request.
type ValidationError struct {
	Code  string // machine-readable code, one of the Code* constants
	Field string // offending field, when attributable to a single one
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
	}
	return "validation: " + e.Msg
}

// NewValidationError builds a ValidationError with the given code.
func NewValidationError(code, field, msg string) *ValidationError {
	return &ValidationError{Code: code, Field: field, Msg: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
