package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

func TestPrintEvaluation(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	item := &types.Item{ID: "q-1", ScopeID: "course-1", Text: "What is TLS?"}
	result := types.EvaluationResult{
		ItemID: "q-1",
		Violations: []types.Violation{
			{Code: "text_too_short", Severity: types.SeverityError, Message: "Question text has 12 characters"},
		},
		AutoPatch: types.ItemPatch{Text: types.StringPtr("What is TLS?")},
	}

	p.PrintEvaluation(item, result)
	output := buf.String()

	assert.Contains(t, output, "ITEM EVALUATION")
	assert.Contains(t, output, "q-1")
	assert.Contains(t, output, "text_too_short [error]")
	assert.Contains(t, output, "Auto-fix: text")
}

func TestPrintEvaluation_Clean(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvaluation(&types.Item{ID: "q-1"}, types.EvaluationResult{ItemID: "q-1"})

	assert.Contains(t, buf.String(), "No violations")
	assert.NotContains(t, buf.String(), "Auto-fix")
}

func TestPrintEvaluation_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintEvaluation(nil, types.EvaluationResult{})

	assert.Empty(t, buf.String())
}

func TestPrintResolution(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	state := types.RunState{Cursor: &types.ScanCursor{ItemID: "a", UpdatedAt: ts}}
	next := &types.Item{ID: "b", UpdatedAt: ts.Add(time.Hour), Text: "next question"}

	p.PrintResolution(state, next, "next after cursor")
	output := buf.String()

	assert.Contains(t, output, "a @ 2026-01-02T03:04:05Z")
	assert.Contains(t, output, "b @ 2026-01-02T04:04:05Z")
	assert.Contains(t, output, "next after cursor")

	buf.Reset()
	p.PrintResolution(types.RunState{}, nil, "no newer items")
	assert.Contains(t, buf.String(), "(none)")
	assert.Contains(t, buf.String(), "(nothing selected)")
}

func TestPrintAuditLatest(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	items := []types.Item{{ID: "a"}, {ID: "b"}}
	results := []types.EvaluationResult{
		{ItemID: "a"},
		{ItemID: "b", Violations: []types.Violation{{Code: "duplicate_options"}}},
	}

	p.PrintAuditLatest(items, results)
	output := buf.String()

	assert.Contains(t, output, "✓ a  0 violations")
	assert.Contains(t, output, "⚠ b  1 violations (duplicate_options)")
	assert.Contains(t, output, "1 of 2 items need attention")
}

func TestPrintWriteResult(t *testing.T) {
	tests := []struct {
		name     string
		fields   []string
		applied  bool
		verified bool
		want     string
	}{
		{"written", []string{"text"}, true, true, "written and verified"},
		{"empty", nil, false, false, "nothing to write"},
		{"dry run", []string{"text"}, false, false, "dry run"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).PrintWriteResult("q-1", tt.fields, tt.applied, tt.verified)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	summary := &types.RunSummary{
		RunID:      uuid.New(),
		Processed:  7,
		Written:    2,
		Wraps:      1,
		StopReason: types.StopCountReached,
	}
	for i := 0; i < 7; i++ {
		summary.Items = append(summary.Items, types.ItemOutcome{ItemID: string(rune('a' + i)), Action: types.ActionNoChanges})
	}
	summary.Items[0].Action = types.ActionManualReview
	summary.Items[1] = types.ItemOutcome{ItemID: "b", Action: types.ActionWritten, RemediationSource: "fallback"}

	p.PrintSummary(summary)
	output := buf.String()

	assert.Contains(t, output, "SWEEP SUMMARY")
	assert.Contains(t, output, "Processed: 7")
	assert.Contains(t, output, "Review:    1")
	assert.Contains(t, output, "b: written (fallback)")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintBox_TruncatesByRune(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("T", strings.Repeat("é", boxWidth))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, boxWidth, len([]rune(line)), "line %q", line)
	}
}
