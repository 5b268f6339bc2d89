package itemstore

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when an item vanished or never existed.
type NotFoundError struct {
	ItemID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("item not found: %s", e.ItemID)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// TransientError marks a storage failure that may succeed on retry
// (connection resets, timeouts, busy databases).
type TransientError struct {
	Message string
	Cause   error
}

func (e *TransientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transient store error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("transient store error: %s", e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// Retryable implements retry.Retryable.
func (e *TransientError) Retryable() bool {
	return true
}
