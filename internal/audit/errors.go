package audit

import "fmt"

// LedgerError represents a failure to read or append the audit ledger
type LedgerError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LedgerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("audit ledger error (%s): %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("audit ledger error (%s): %s", e.Path, e.Message)
}

func (e *LedgerError) Unwrap() error {
	return e.Cause
}
