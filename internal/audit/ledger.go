// Package audit keeps the append-only markdown ledger of every item the sweep
// has processed, with a marker line each time the scan wraps around.
package audit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

const (
	entryHeading = "### Item "
	wrapPrefix   = "--- sweep wrap "
	wrapSuffix   = " ---"
	noTimestamp  = "n/a"
)

// Notes recorded on entries
const (
	NoteNoChanges     = "no changes"
	NoteManualReview  = "manual review required"
	NoteDryRun        = "dry run, nothing written"
	NoteStabilized    = "stabilized"
	NoteNotStabilized = "not stabilized within attempt limit"
)

// Log is the ledger contract the orchestrator depends on.
type Log interface {
	Append(ctx context.Context, entry types.AuditEntry) error
	AppendWrap(ctx context.Context, marker WrapMarker) error
	SeenSinceLastWrap(ctx context.Context) (map[string]bool, error)
}

// WrapMarker separates one full pass over the corpus from the next.
type WrapMarker struct {
	Timestamp time.Time
	RunID     uuid.UUID
	Note      string
}

// Record is a parsed ledger element: either an item entry or a wrap marker.
type Record struct {
	Wrap   bool
	ItemID string
	Line   int
}

// Ledger is a Log backed by a markdown file. Existing content is never rewritten.
type Ledger struct {
	mu   sync.Mutex
	path string
}

// NewLedger creates a ledger at path. The file is created on first append.
func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Append writes one entry block.
func (l *Ledger) Append(_ context.Context, entry types.AuditEntry) error {
	return l.write(FormatEntry(entry))
}

// AppendWrap writes a wrap marker line.
func (l *Ledger) AppendWrap(_ context.Context, marker WrapMarker) error {
	return l.write(FormatWrap(marker))
}

func (l *Ledger) write(block string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &LedgerError{Path: l.path, Message: "failed to create ledger directory", Cause: err}
		}
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return &LedgerError{Path: l.path, Message: "failed to open ledger", Cause: err}
	}

	if _, err := f.WriteString(block); err != nil {
		_ = f.Close()
		return &LedgerError{Path: l.path, Message: "failed to append to ledger", Cause: err}
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return &LedgerError{Path: l.path, Message: "failed to sync ledger", Cause: err}
	}
	if err := f.Close(); err != nil {
		return &LedgerError{Path: l.path, Message: "failed to close ledger", Cause: err}
	}
	return nil
}

// Records parses the ledger in file order. A missing file has no records.
func (l *Ledger) Records(_ context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &LedgerError{Path: l.path, Message: "failed to open ledger", Cause: err}
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, entryHeading):
			id := strings.TrimSpace(strings.TrimPrefix(line, entryHeading))
			if id != "" {
				records = append(records, Record{ItemID: id, Line: lineNo})
			}
		case strings.HasPrefix(line, wrapPrefix):
			records = append(records, Record{Wrap: true, Line: lineNo})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &LedgerError{Path: l.path, Message: "failed to read ledger", Cause: err}
	}
	return records, nil
}

// SeenSinceLastWrap returns the IDs of items recorded after the most recent wrap marker.
func (l *Ledger) SeenSinceLastWrap(ctx context.Context) (map[string]bool, error) {
	records, err := l.Records(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, r := range records {
		if r.Wrap {
			clear(seen)
			continue
		}
		seen[r.ItemID] = true
	}
	return seen, nil
}

// FormatEntry renders an entry as a markdown block.
func FormatEntry(entry types.AuditEntry) string {
	preFix := noTimestamp
	if entry.PreFixUpdatedAt != nil {
		preFix = entry.PreFixUpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	notes := "-"
	if len(entry.Notes) > 0 {
		notes = strings.Join(entry.Notes, "; ")
	}

	var sb strings.Builder
	sb.WriteString(entryHeading + entry.ItemID + "\n")
	sb.WriteString(fmt.Sprintf("- timestamp: %s\n", entry.Timestamp.UTC().Format(time.RFC3339Nano)))
	sb.WriteString(fmt.Sprintf("- run_id: %s\n", entry.RunID))
	sb.WriteString(fmt.Sprintf("- pre_fix_updated_at: %s\n", preFix))
	sb.WriteString(fmt.Sprintf("- violations: %d\n", entry.ViolationCount))
	sb.WriteString(fmt.Sprintf("- text: %q\n", entry.Text))
	sb.WriteString(fmt.Sprintf("- notes: %s\n\n", notes))
	return sb.String()
}

// FormatWrap renders a wrap marker line.
func FormatWrap(marker WrapMarker) string {
	line := fmt.Sprintf("%s%s run %s", wrapPrefix, marker.Timestamp.UTC().Format(time.RFC3339Nano), marker.RunID)
	if marker.Note != "" {
		line += ": " + marker.Note
	}
	return line + wrapSuffix + "\n\n"
}
