// Package cursor resolves the next item of a sweep and persists the run state
// that records where the sweep stands.
package cursor

import (
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Resolution reasons
const (
	ReasonInitialRun    = "initial run"
	ReasonNextAfter     = "next after cursor"
	ReasonNoNewerItems  = "no newer items"
	ReasonEmptySnapshot = "empty snapshot"
)

// Resolution is the outcome of ResolveNext. Item is nil when nothing is selected.
type Resolution struct {
	Item   *types.Item
	Reason string
}

// Wrapped reports whether the scan reached the end of the snapshot.
func (r Resolution) Wrapped() bool {
	return r.Reason == ReasonNoNewerItems
}

// ResolveNext picks the next item from a snapshot sorted ascending by
// UpdatedAt (ties by ID). Without a cursor it returns the oldest item.
// With a cursor it returns the first item modified strictly after the frozen
// cursor timestamp; the cursor's own item never qualifies at an exact tie.
func ResolveNext(snapshot []types.Item, state types.RunState) Resolution {
	if len(snapshot) == 0 {
		if state.Cursor == nil {
			return Resolution{Reason: ReasonEmptySnapshot}
		}
		return Resolution{Reason: ReasonNoNewerItems}
	}

	if state.Cursor == nil {
		item := snapshot[0]
		return Resolution{Item: &item, Reason: ReasonInitialRun}
	}

	threshold := state.Cursor.UpdatedAt
	for i := range snapshot {
		candidate := snapshot[i]
		if candidate.ID == state.Cursor.ItemID && candidate.UpdatedAt.Equal(threshold) {
			continue
		}
		if candidate.UpdatedAt.After(threshold) {
			return Resolution{Item: &candidate, Reason: ReasonNextAfter}
		}
	}

	return Resolution{Reason: ReasonNoNewerItems}
}
