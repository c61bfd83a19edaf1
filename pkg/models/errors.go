package models

import (
	"errors"
	"fmt"
)

// ValidationError indicates a bad condition config or override request.
// Rejected synchronously, never partially applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientDataError indicates an analytics task had too few samples to
// produce a record. Non-fatal: the caller records a skip and writes nothing.
type InsufficientDataError struct {
	ServerID string
	Task     string
	Needed   int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s on server %s: need %d samples, got %d",
		e.Task, e.ServerID, e.Needed, e.Got)
}

// IsInsufficientData reports whether err is an InsufficientDataError.
func IsInsufficientData(err error) bool {
	var ide *InsufficientDataError
	return errors.As(err, &ide)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
