package models

import "errors"

// Sentinel errors surfaced by the repositories. Handlers map these to 404.
var (
	ErrMonitorNotFound = errors.New("monitor not found")
	ErrReportNotFound  = errors.New("report not found")
)

// ValidationError marks bad caller input. Never retried, maps to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
