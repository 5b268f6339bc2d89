package generation

import (
	"fmt"

	"github.com/moldovancsaba/amanoba-sub006/internal/llm"
)

// Error represents a failure to produce candidates
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// CallError wraps a failed model call. Calls are retried unless the
// provider refused the prompt or rejected the request outright.
type CallError struct {
	Cause error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed: %v", e.Cause)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// Retryable implements retry.Retryable.
func (e *CallError) Retryable() bool {
	return !llm.Permanent(e.Cause)
}
