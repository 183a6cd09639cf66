package orders

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrMixedStatuses     = errors.New("selected order items do not share a status")
	ErrComplaintOnly     = errors.New("status can only be set by the complaint workflow")
)

// ValidationError is a malformed or incomplete request. Its message is safe to
// return to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}
