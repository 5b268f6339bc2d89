package writer

import (
	"fmt"
	"strings"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// VerificationMismatchError is returned when the re-read item does not carry
// the values that were just written. It is fatal and never retried.
type VerificationMismatchError struct {
	ItemID     string
	Mismatches []types.FieldMismatch
}

func (e *VerificationMismatchError) Error() string {
	fields := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		fields[i] = m.Field
	}
	return fmt.Sprintf("write verification failed for item %s: fields %s differ after re-read", e.ItemID, strings.Join(fields, ", "))
}

// WriteError wraps a failed patch or re-read call.
type WriteError struct {
	ItemID  string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("write error for item %s: %s: %v", e.ItemID, e.Message, e.Cause)
	}
	return fmt.Sprintf("write error for item %s: %s", e.ItemID, e.Message)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
