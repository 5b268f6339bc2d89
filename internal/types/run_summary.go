package types

import (
	"github.com/google/uuid"
)

// Item outcome actions
const (
	ActionNoChanges    = "no_changes"
	ActionManualReview = "manual_review"
	ActionWritten      = "written"
	ActionDryRun       = "dry_run"
)

// Run stop reasons
const (
	StopCountReached  = "count reached"
	StopEmptySnapshot = "empty snapshot"
	StopNoProgress    = "wrapped without progress"
	StopWrapLimit     = "restricted wrap limit"
	StopCanceled      = "canceled"
)

// ItemOutcome records what happened to one processed item.
type ItemOutcome struct {
	ItemID            string   `json:"item_id"`
	Action            string   `json:"action"`
	ViolationCount    int      `json:"violation_count"`
	Codes             []string `json:"codes,omitempty"`
	Fields            []string `json:"fields,omitempty"`
	RemediationSource string   `json:"remediation_source,omitempty"`
	Attempts          int      `json:"attempts"`
	Notes             []string `json:"notes,omitempty"`
}

// RunSummary is returned by one orchestrator invocation.
type RunSummary struct {
	RunID      uuid.UUID     `json:"run_id"`
	DryRun     bool          `json:"dry_run"`
	Processed  int           `json:"processed"`
	Written    int           `json:"written"`
	Wraps      int           `json:"wraps"`
	Items      []ItemOutcome `json:"items"`
	StopReason string        `json:"stop_reason"`
}

// ManualReviews counts outcomes that still need a human.
func (s *RunSummary) ManualReviews() int {
	n := 0
	for _, o := range s.Items {
		if o.Action == ActionManualReview {
			n++
		}
	}
	return n
}
