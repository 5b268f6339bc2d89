// Package itemstore defines typed read/patch access to the quiz item corpus.
package itemstore

import (
	"context"
	"sort"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Filter narrows a listing.
type Filter struct {
	ScopeID    string // Empty means every scope
	ActiveOnly bool
}

// Matches reports whether item passes the filter.
func (f Filter) Matches(item types.Item) bool {
	if f.ScopeID != "" && item.ScopeID != f.ScopeID {
		return false
	}
	if f.ActiveOnly && !item.Active {
		return false
	}
	return true
}

// Store is the contract every corpus backend must honour.
//
// ApplyPatch must refresh UpdatedAt to a value strictly greater than the previous one
// and an immediate GetByID must observe the patch.
type Store interface {
	// ListAll returns matching items sorted ascending by UpdatedAt, ties by ID.
	ListAll(ctx context.Context, filter Filter) ([]types.Item, error)
	// GetByID returns the item or a *NotFoundError.
	GetByID(ctx context.Context, id string) (*types.Item, error)
	// ApplyPatch writes the patch and returns the updated item.
	ApplyPatch(ctx context.Context, id string, patch types.ItemPatch) (*types.Item, error)
}

// SortByUpdatedAt orders items ascending by UpdatedAt with ID as tiebreaker.
func SortByUpdatedAt(items []types.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].UpdatedAt.Before(items[j].UpdatedAt)
	})
}
