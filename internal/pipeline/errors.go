package pipeline

import "fmt"

// Stages at which a run can abort
const (
	StageLoadState = "load_state"
	StageList      = "list"
	StageFetch     = "fetch"
	StageWrite     = "write"
	StageAudit     = "audit"
	StageSaveState = "save_state"
)

// AbortError stops the whole run. Items processed before it are already checkpointed.
type AbortError struct {
	ItemID string
	Stage  string
	Cause  error
}

func (e *AbortError) Error() string {
	if e.ItemID == "" {
		return fmt.Sprintf("run aborted at %s: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("run aborted at %s for item %s: %v", e.Stage, e.ItemID, e.Cause)
}

func (e *AbortError) Unwrap() error {
	return e.Cause
}
