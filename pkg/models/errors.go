package models

import (
	"errors"
	"fmt"
)

// Errors shared by the store and the services built on it.
var (
	// ErrNotFound is returned when a referenced document, expense, method or transaction does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned when a required field is missing. Nothing is written.
	ErrValidation = errors.New("validation failed")

	ErrDocumentNotFound = fmt.Errorf("document: %w", ErrNotFound)
	ErrMethodNotFound   = fmt.Errorf("payment method: %w", ErrNotFound)

	// ErrUnsupportedKind is returned when an operation does not apply to a document kind,
	// e.g. a line-item write or a payment against an expense.
	ErrUnsupportedKind = errors.New("unsupported document kind")
)

// ValidationError names the offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil && e.Value != "" {
		return fmt.Sprintf("validation error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// Required returns a ValidationError when value is blank.
func Required(field, value string) error {
	if value == "" {
		return NewValidationError(field, nil, "is required")
	}
	return nil
}
