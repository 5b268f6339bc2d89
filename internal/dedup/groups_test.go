package dedup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

func q(id, scope, text string) types.Item {
	return types.Item{ID: id, ScopeID: scope, Text: text, Options: []string{"one", "two", "three"}, Active: true}
}

func TestBuildIndex_GroupsByScopeAndNormalizedText(t *testing.T) {
	items := []types.Item{
		q("c", "s1", "What is TLS?"),
		q("a", "s1", "  what is  tls? "),
		q("b", "s1", "What is SSH?"),
		q("d", "s2", "What is TLS?"),
	}

	idx := BuildIndex(items)

	require.Len(t, idx.Groups(), 1)
	g := idx.Groups()[0]
	assert.Equal(t, "s1", g.ScopeID)
	assert.Equal(t, []string{"a", "c"}, g.Members)
	assert.Equal(t, "a", g.Keeper())
	assert.Equal(t, []string{"c"}, g.Duplicates())

	assert.True(t, idx.NeedsRemediation("c"))
	assert.False(t, idx.NeedsRemediation("a"))
	assert.False(t, idx.NeedsRemediation("d"))
	_, ok := idx.GroupOf("b")
	assert.False(t, ok)
}

func TestBuildIndex_IgnoresInactiveItems(t *testing.T) {
	inactive := q("a", "s1", "What is TLS?")
	inactive.Active = false

	groups := Groups([]types.Item{inactive, q("b", "s1", "What is TLS?")})
	assert.Empty(t, groups)
}

func TestBuildIndex_KeeperIsOrderIndependent(t *testing.T) {
	items := []types.Item{
		q("item-07", "s1", "Same question text"),
		q("item-03", "s1", "Same question text"),
		q("item-11", "s1", "Same question text"),
		q("item-05", "s1", "Other question text"),
		q("item-02", "s1", "Other question text"),
	}
	want := Groups(items)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]types.Item(nil), items...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Groups(shuffled))
	}

	require.Len(t, want, 2)
	assert.Equal(t, "item-02", want[0].Keeper())
	assert.Equal(t, "item-03", want[1].Keeper())
}
