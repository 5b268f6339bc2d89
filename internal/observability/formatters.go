// Package observability provides formatted CLI output and run metrics.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the CLI commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes, marking the cut with "...".
func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.UTC().Format(time.RFC3339)
}

// PrintEvaluation outputs the rule outcome for a single item.
func (p *Printer) PrintEvaluation(item *types.Item, result types.EvaluationResult) {
	if item == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Item:     %s\n", item.ID))
	sb.WriteString(fmt.Sprintf("Scope:    %s\n", item.ScopeID))
	sb.WriteString(fmt.Sprintf("Modified: %s\n", formatTime(item.UpdatedAt)))
	sb.WriteString(fmt.Sprintf("Text:     %s\n", item.Text))
	sb.WriteString("\n")

	if len(result.Violations) == 0 {
		sb.WriteString("✅ No violations\n")
	} else {
		sb.WriteString(fmt.Sprintf("Found %d violations:\n", len(result.Violations)))
		for _, v := range result.Violations {
			sb.WriteString(fmt.Sprintf("⚠ %s [%s]\n", v.Code, v.Severity))
			sb.WriteString(fmt.Sprintf("  %s\n", v.Message))
		}
	}

	if fields := result.AutoPatch.Fields(); len(fields) > 0 {
		sb.WriteString(fmt.Sprintf("\nAuto-fix: %s\n", strings.Join(fields, ", ")))
	}

	p.printBox("ITEM EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResolution outputs which item the cursor selects next and why.
func (p *Printer) PrintResolution(state types.RunState, item *types.Item, reason string) {
	var sb strings.Builder
	if state.Cursor != nil {
		sb.WriteString(fmt.Sprintf("Cursor:   %s @ %s\n", state.Cursor.ItemID, formatTime(state.Cursor.UpdatedAt)))
	} else {
		sb.WriteString("Cursor:   (none)\n")
	}
	sb.WriteString(fmt.Sprintf("Reason:   %s\n", reason))
	if item != nil {
		sb.WriteString(fmt.Sprintf("Next:     %s @ %s\n", item.ID, formatTime(item.UpdatedAt)))
		sb.WriteString(fmt.Sprintf("Text:     %s\n", item.Text))
	} else {
		sb.WriteString("Next:     (nothing selected)\n")
	}

	p.printBox("NEXT ITEM", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAuditLatest outputs a compact line per recently modified item.
func (p *Printer) PrintAuditLatest(items []types.Item, results []types.EvaluationResult) {
	var sb strings.Builder
	flagged := 0
	for i, item := range items {
		res := results[i]
		marker := "✓"
		if res.NeedsUpdate() {
			marker = "⚠"
			flagged++
		}
		sb.WriteString(fmt.Sprintf("%s %s  %d violations", marker, item.ID, len(res.Violations)))
		if codes := res.Codes(); len(codes) > 0 {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.Join(codes, ", ")))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("\n%d of %d items need attention", flagged, len(items)))

	p.printBox("LATEST ITEMS", sb.String())
}

// PrintWriteResult outputs the result of a single verified write.
func (p *Printer) PrintWriteResult(itemID string, fields []string, applied, verified bool) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Item:     %s\n", itemID))
	if len(fields) == 0 {
		sb.WriteString("Fields:   (none)\n")
	} else {
		sb.WriteString(fmt.Sprintf("Fields:   %s\n", strings.Join(fields, ", ")))
	}
	switch {
	case applied && verified:
		sb.WriteString("Status:   ✅ written and verified")
	case len(fields) == 0:
		sb.WriteString("Status:   nothing to write")
	default:
		sb.WriteString("Status:   dry run, store not touched")
	}

	p.printBox("PATCH RESULT", sb.String())
}

// PrintSummary outputs the totals of an orchestrator run.
func (p *Printer) PrintSummary(summary *types.RunSummary) {
	if summary == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:       %s\n", summary.RunID))
	if summary.DryRun {
		sb.WriteString("Mode:      dry run\n")
	}
	sb.WriteString(fmt.Sprintf("Processed: %d\n", summary.Processed))
	sb.WriteString(fmt.Sprintf("Written:   %d\n", summary.Written))
	sb.WriteString(fmt.Sprintf("Wraps:     %d\n", summary.Wraps))
	sb.WriteString(fmt.Sprintf("Review:    %d\n", summary.ManualReviews()))
	sb.WriteString(fmt.Sprintf("Stopped:   %s\n", summary.StopReason))

	if len(summary.Items) > 0 {
		sb.WriteString("\n")
		count := min(len(summary.Items), maxItemsToShow)
		for i := 0; i < count; i++ {
			o := summary.Items[i]
			sb.WriteString(fmt.Sprintf("  • %s: %s", o.ItemID, o.Action))
			if o.RemediationSource != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", o.RemediationSource))
			}
			sb.WriteString("\n")
		}
		if len(summary.Items) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(summary.Items)-maxItemsToShow))
		}
	}

	p.printBox("SWEEP SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
