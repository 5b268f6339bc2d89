// Package types provides type definitions for structured data used throughout the content sweep system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Severity levels for violations
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Violation represents a single content-quality rule breach.
// It is a value describing the item, not a failure of the pipeline.
type Violation struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity string   `json:"severity"`
	Fields   []string `json:"fields,omitempty"`
	DocRef   string   `json:"doc_ref,omitempty"`
}

// EvaluationResult is the outcome of running the rule set over one item.
type EvaluationResult struct {
	ItemID     string      `json:"item_id"`
	Violations []Violation `json:"violations"`
	AutoPatch  ItemPatch   `json:"auto_patch"`
}

// NeedsUpdate reports whether the item has violations or staged fixes.
func (r EvaluationResult) NeedsUpdate() bool {
	return len(r.Violations) > 0 || !r.AutoPatch.IsEmpty()
}

// HasErrors reports whether any violation has error severity.
func (r EvaluationResult) HasErrors() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Codes returns the violation codes in evaluation order.
func (r EvaluationResult) Codes() []string {
	codes := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		codes = append(codes, v.Code)
	}
	return codes
}
