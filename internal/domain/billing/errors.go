package billing

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a case or line item does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a missing or malformed identifying field. The
// computation is not attempted when one is raised.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func newValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
