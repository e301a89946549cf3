package core

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError is returned when an input is rejected before any state change.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Value, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func NewValidationError(field, value, reason string) ValidationError {
	return ValidationError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
