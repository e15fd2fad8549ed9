// Package apperr defines the error taxonomy shared by the stores, the session
// gate and the HTTP layer. None of these errors are transient; all of them
// describe input the caller can fix.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateName     = errors.New("name already exists")
	// ErrAuthFailure covers both an unknown user and a wrong password.
	ErrAuthFailure     = errors.New("invalid credentials")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation failed")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrNotFound        = errors.New("not found")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

func (fe FieldError) Error() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// ValidationError collects field errors for a single request. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError returns an empty collector.
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// Add records a field error.
func (ve *ValidationError) Add(field, message string) {
	ve.Fields = append(ve.Fields, FieldError{Field: field, Message: message})
}

// Required records a missing field.
func (ve *ValidationError) Required(field string) {
	ve.Add(field, "is required")
}

// HasErrors reports whether any field was rejected.
func (ve *ValidationError) HasErrors() bool {
	return ve != nil && len(ve.Fields) > 0
}

// OrNil returns ve when it holds errors and nil otherwise, so callers can
// write `return ve.OrNil()` without tripping over typed nil interfaces.
func (ve *ValidationError) OrNil() error {
	if !ve.HasErrors() {
		return nil
	}
	return ve
}

func (ve *ValidationError) Error() string {
	if !ve.HasErrors() {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(ve.Fields))
	for _, f := range ve.Fields {
		parts = append(parts, f.Error())
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (ve *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is shorthand for a single-field validation error.
func Invalid(field, message string) error {
	ve := NewValidationError()
	ve.Add(field, message)
	return ve
}
