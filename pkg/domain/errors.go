package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a record referenced by id does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     int64
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

var (
	// ErrConflict is returned when a relationship with the same
	// (person_id, related_person_id, relationship_type) triple already exists.
	ErrConflict = errors.New("relationship already exists")
	// ErrInvalidReference is returned by stores when a relationship points at
	// a person that does not exist.
	ErrInvalidReference = errors.New("relationship references a missing person")
)

// FieldError describes a single failing input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports malformed or missing input. Fields lists every
// failing field, not only the first.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "validation failed"
	}
	if len(e.Fields) == 0 {
		return msg
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return msg + ": " + strings.Join(parts, "; ")
}

// Add appends a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has reports whether field already failed.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when no field failed, letting callers write
// `return verr.OrNil()` without the typed-nil interface trap.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError constructs a ValidationError without field detail.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsNotFound reports whether err (or anything it wraps) is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// IsValidation reports whether err (or anything it wraps) is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
