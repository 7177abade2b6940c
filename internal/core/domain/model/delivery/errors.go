package delivery

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is the sentinel behind InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError is returned when a proposed status is not a legal
// successor of the current one. The delivery is left untouched.
type InvalidTransitionError struct {
	Current   Status
	Attempted Status
}

// NewInvalidTransitionError creates the error for current -> attempted.
func NewInvalidTransitionError(current, attempted Status) *InvalidTransitionError {
	return &InvalidTransitionError{Current: current, Attempted: attempted}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.Current, e.Attempted)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
