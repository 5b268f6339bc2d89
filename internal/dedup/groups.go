// Package dedup finds items that repeat the same question within a scope and
// works out a deterministic replacement for every copy except the keeper.
package dedup

import (
	"sort"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Group is a set of active items in one scope whose normalized texts are equal.
type Group struct {
	ScopeID string
	Key     string
	Members []string // sorted ascending
}

// Keeper is the member that retains the text: the lexicographically smallest ID.
func (g Group) Keeper() string {
	return g.Members[0]
}

// Duplicates returns every member except the keeper.
func (g Group) Duplicates() []string {
	return g.Members[1:]
}

// Index holds the duplicate groups of a snapshot and finds the group of an item.
type Index struct {
	groups []Group
	byItem map[string]int
}

type groupKey struct {
	scope string
	text  string
}

// BuildIndex partitions the active items by (scope, normalized text) and keeps
// the partitions with more than one member. The result does not depend on the
// order of items.
func BuildIndex(items []types.Item) *Index {
	buckets := make(map[groupKey][]string)
	for _, item := range items {
		if !item.Active {
			continue
		}
		k := groupKey{scope: item.ScopeID, text: evaluation.NormalizeKey(item.Text)}
		buckets[k] = append(buckets[k], item.ID)
	}

	idx := &Index{byItem: make(map[string]int)}
	for k, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sorted := append([]string(nil), members...)
		sort.Strings(sorted)
		idx.groups = append(idx.groups, Group{ScopeID: k.scope, Key: k.text, Members: sorted})
	}

	sort.Slice(idx.groups, func(i, j int) bool {
		if idx.groups[i].ScopeID != idx.groups[j].ScopeID {
			return idx.groups[i].ScopeID < idx.groups[j].ScopeID
		}
		return idx.groups[i].Keeper() < idx.groups[j].Keeper()
	})
	for i, g := range idx.groups {
		for _, id := range g.Members {
			idx.byItem[id] = i
		}
	}
	return idx
}

// Groups returns the duplicate groups ordered by scope then keeper.
func (idx *Index) Groups() []Group {
	return idx.groups
}

// GroupOf returns the duplicate group containing id.
func (idx *Index) GroupOf(id string) (Group, bool) {
	i, ok := idx.byItem[id]
	if !ok {
		return Group{}, false
	}
	return idx.groups[i], true
}

// NeedsRemediation reports whether id is a non-keeper member of a duplicate group.
func (idx *Index) NeedsRemediation(id string) bool {
	g, ok := idx.GroupOf(id)
	return ok && g.Keeper() != id
}

// Groups is a shorthand for BuildIndex(items).Groups().
func Groups(items []types.Item) []Group {
	return BuildIndex(items).Groups()
}
