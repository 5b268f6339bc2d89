package cursor

import "fmt"

// StateError represents a failure to load or save the run state
type StateError struct {
	Path    string
	Message string
	Cause   error
}

func (e *StateError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("run state error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("run state error (%s): %s", e.Path, e.Message)
}

func (e *StateError) Unwrap() error {
	return e.Cause
}
