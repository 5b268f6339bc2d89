package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

var t0 = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func openTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedItem(id, scope string, offset time.Duration) types.Item {
	return types.Item{
		ID:           id,
		ScopeID:      scope,
		LessonID:     "l-1",
		Language:     "en",
		Text:         "Question " + id,
		Options:      []string{"one", "two", "three"},
		CorrectIndex: 1,
		Tags:         []string{"net"},
		Active:       true,
		UpdatedAt:    t0.Add(offset),
	}
}

func TestSQLite_ListAllOrderingAndFilter(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()

	inactive := seedItem("d", "c1", 4*time.Second)
	inactive.Active = false
	for _, it := range []types.Item{
		seedItem("c", "c1", 2*time.Second),
		seedItem("b", "c1", time.Second),
		seedItem("a", "c1", 2*time.Second),
		seedItem("x", "c2", 0),
		inactive,
	} {
		require.NoError(t, s.UpsertItem(ctx, it))
	}

	all, err := s.ListAll(ctx, itemstore.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "b", "a", "c", "d"}, ids(all))

	scoped, err := s.ListAll(ctx, itemstore.Filter{ScopeID: "c1", ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids(scoped))
}

func TestSQLite_RoundTripsFields(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	want := seedItem("a", "c1", 123*time.Nanosecond)
	want.LessonOrdinal = 3
	want.Difficulty = "hard"
	want.Category = "security"
	want.Type = "application"
	require.NoError(t, s.UpsertItem(ctx, want))

	got, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

func TestSQLite_GetByIDNotFound(t *testing.T) {
	s := openTestSQLite(t)

	_, err := s.GetByID(context.Background(), "missing")
	assert.True(t, itemstore.IsNotFound(err))

	_, err = s.ApplyPatch(context.Background(), "missing", types.ItemPatch{Text: types.StringPtr("x")})
	assert.True(t, itemstore.IsNotFound(err))
}

func TestSQLite_ApplyPatchBumpsTimestamp(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertItem(ctx, seedItem("a", "c1", time.Hour)))
	// Clock behind the stored value: the stamp still moves forward.
	s.SetClock(func() time.Time { return t0 })

	updated, err := s.ApplyPatch(ctx, "a", types.ItemPatch{
		Text:    types.StringPtr("New question text"),
		Options: types.StringsPtr([]string{"three", "two", "one"}),
		Active:  types.BoolPtr(false),
	})
	require.NoError(t, err)

	assert.Equal(t, "New question text", updated.Text)
	assert.Equal(t, []string{"three", "two", "one"}, updated.Options)
	assert.False(t, updated.Active)
	assert.True(t, updated.UpdatedAt.After(t0.Add(time.Hour)))

	reread, err := s.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, *updated, *reread)
	assert.Empty(t, types.ItemPatch{Text: types.StringPtr("New question text")}.Mismatches(*reread))
}

func TestSQLite_SatisfiesStore(t *testing.T) {
	var _ itemstore.Store = (*SQLite)(nil)
	var _ itemstore.Store = (*DB)(nil)
}

func TestSQLite_LessonContext(t *testing.T) {
	s := openTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertLesson(ctx, Lesson{ID: "l-1", ScopeID: "c1", Ordinal: 1, Title: "TLS", Body: "Transport security"}))

	title, body, err := s.LessonContext(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, "TLS", title)
	assert.Equal(t, "Transport security", body)

	title, body, err = s.LessonContext(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, title)
	assert.Empty(t, body)
}

func ids(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
