package types

import (
	"time"

	"github.com/google/uuid"
)

// ScanCursor is the durable scan position. UpdatedAt is the item's last-modified
// value captured when it was selected, before any patch was applied to it.
type ScanCursor struct {
	ItemID    string    `json:"cursor_item_id"`
	UpdatedAt time.Time `json:"cursor_updated_at"`
}

// RunState is the single persisted record describing where the sweep stands.
type RunState struct {
	Cursor       *ScanCursor `json:"cursor,omitempty"`
	RunTimestamp time.Time   `json:"run_timestamp"`
	RunID        uuid.UUID   `json:"run_id"`
	Agent        string      `json:"agent,omitempty"`
	Notes        []string    `json:"notes"`
}

// AuditEntry is one immutable block in the audit ledger.
type AuditEntry struct {
	Timestamp       time.Time  `json:"timestamp"`
	RunID           uuid.UUID  `json:"run_id"`
	ItemID          string     `json:"item_id"`
	PreFixUpdatedAt *time.Time `json:"pre_fix_updated_at,omitempty"`
	Text            string     `json:"text"`
	ViolationCount  int        `json:"violation_count"`
	Notes           []string   `json:"notes,omitempty"`
}

// MaxNotes bounds how many notes a RunState keeps; older notes are dropped first.
const MaxNotes = 50

// Advance freezes the cursor at item's current position. Call it before any
// patch is applied so the scan does not mistake its own write for a newer item.
func (s *RunState) Advance(item Item) {
	s.Cursor = &ScanCursor{ItemID: item.ID, UpdatedAt: item.UpdatedAt}
}

// Wrap clears the cursor so the next resolution starts from the oldest item.
func (s *RunState) Wrap(note string) {
	s.Cursor = nil
	s.AddNote(note)
}

// AddNote appends a note, keeping only the most recent MaxNotes.
func (s *RunState) AddNote(note string) {
	if note == "" {
		return
	}
	s.Notes = append(s.Notes, note)
	if len(s.Notes) > MaxNotes {
		s.Notes = append([]string(nil), s.Notes[len(s.Notes)-MaxNotes:]...)
	}
}
