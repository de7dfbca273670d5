package nutrition

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when patient or meal attributes cannot be used
// for a calculation.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which field was rejected and why.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// InvalidField builds an InputError for the given field.
func InvalidField(field, reason string) error {
	return &InputError{Field: field, Reason: reason}
}
