package complaints

import "errors"

var (
	ErrNotFound    = errors.New("complaint not found")
	ErrNotEligible = errors.New("order item is not eligible for a complaint")
)

// ValidationError is a malformed complaint request. Its message is returned to
// the caller as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}
