package resilience

import (
	"errors"
	"fmt"
)

// ErrBackoff marks a read that was not attempted because the layer is in
// fallback mode and the retry interval has not elapsed.
var ErrBackoff = errors.New("data access in backoff")

// DataAccessError is returned when a read failed (or was skipped) and neither
// a cached snapshot nor a default value was available.
type DataAccessError struct {
	Operation string
	Err       error
}

// Error implements the error interface
func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access error in %s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error
func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// IsDataAccessError reports whether err is or wraps a *DataAccessError.
func IsDataAccessError(err error) bool {
	var dae *DataAccessError
	return errors.As(err, &dae)
}
