package domain

import (
	"errors"
	"fmt"
)

// ErrOrderNotCancellable is returned when an order is in a terminal state
// and the cancellation transition is no longer legal.
var ErrOrderNotCancellable = errors.New("order is already delivered or cancelled")

// ValidationError marks malformed or missing input. The HTTP boundary maps
// it to a 400 response.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
