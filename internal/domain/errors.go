package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("conflict")
	ErrStoreUnavailable    = errors.New("record store unavailable")
	ErrAdvisoryUnavailable = errors.New("advisory unavailable")
)

// Backup import failures. Each one maps to a distinct user-facing message.
var (
	ErrMalformedDocument  = errors.New("backup file is not valid JSON")
	ErrInvalidSchema      = errors.New("file is JSON but not an AllergyCare backup")
	ErrInvalidRecordShape = errors.New("backup contains a malformed record")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// RecordProblem pinpoints one malformed record inside a backup document.
type RecordProblem struct {
	Collection string `json:"collection"`
	Index      int    `json:"index"`
	Field      string `json:"field"`
	Message    string `json:"message"`
}

func (p RecordProblem) String() string {
	return fmt.Sprintf("%s[%d].%s: %s", p.Collection, p.Index, p.Field, p.Message)
}

// RecordShapeError lists every malformed record found during import.
type RecordShapeError struct {
	Problems []RecordProblem
}

func (e *RecordShapeError) Error() string {
	if len(e.Problems) == 0 {
		return ErrInvalidRecordShape.Error()
	}
	parts := make([]string, 0, min(len(e.Problems), 3))
	for i, p := range e.Problems {
		if i == 3 {
			break
		}
		parts = append(parts, p.String())
	}
	msg := fmt.Sprintf("%s: %s", ErrInvalidRecordShape.Error(), strings.Join(parts, "; "))
	if extra := len(e.Problems) - len(parts); extra > 0 {
		msg += fmt.Sprintf(" (and %d more)", extra)
	}
	return msg
}

func (e *RecordShapeError) Unwrap() error { return ErrInvalidRecordShape }
