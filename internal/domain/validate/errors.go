package validate

import (
	"errors"
	"strings"
)

// Sentinel kinds for validation errors.
var (
	ErrValidation   = errors.New("validation failed")
	ErrMissingField = errors.New("missing required field")
)

// FieldError describes one offending field.
type FieldError struct {
	Field   string
	Reason  string
	Missing bool
}

// ValidationError lists every offending field of a record.
// errors.Is matches ErrValidation always and ErrMissingField when any field is absent.
type ValidationError struct {
	Fields []FieldError
}

// Missing records an absent field.
func (e *ValidationError) Missing(field string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: "is required", Missing: true})
}

// Invalid records a present but unusable field.
func (e *ValidationError) Invalid(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// Err returns e when it holds at least one field error, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is implements errors.Is matching.
func (e *ValidationError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return true
	case ErrMissingField:
		return e.HasMissing()
	default:
		return false
	}
}

// HasMissing reports whether any field is absent.
func (e *ValidationError) HasMissing() bool {
	for _, f := range e.Fields {
		if f.Missing {
			return true
		}
	}
	return false
}
