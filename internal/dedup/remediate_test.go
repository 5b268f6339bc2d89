package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

type fakeGenerator struct {
	candidates []types.Candidate
	err        error
	requests   []types.GenerationRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req types.GenerationRequest) ([]types.Candidate, error) {
	g.requests = append(g.requests, req)
	return g.candidates, g.err
}

type rejectText struct {
	text string
}

func (v rejectText) Validate(_ context.Context, c types.Candidate, _ []string) error {
	if c.Text == v.text {
		return errors.New("rejected")
	}
	return nil
}

type fakeLessons struct{}

func (fakeLessons) LessonContext(_ context.Context, lessonID string) (string, string, error) {
	return "Title " + lessonID, "Body " + lessonID, nil
}

func applyAll(items []types.Item, rems []Remediation) []types.Item {
	byID := map[string]Remediation{}
	for _, r := range rems {
		byID[r.ItemID] = r
	}
	out := make([]types.Item, len(items))
	for i, it := range items {
		if r, ok := byID[it.ID]; ok && r.Resolved() {
			out[i] = r.Patch.ApplyTo(it)
			continue
		}
		out[i] = it
	}
	return out
}

func TestRemediate_KeeperAndSingletonsNeedNothing(t *testing.T) {
	r := NewRemediator(Options{})
	items := []types.Item{q("a", "s1", "What is TLS?"), q("c", "s1", "What is TLS?"), q("b", "s1", "What is SSH?")}

	_, ok := r.Remediate(context.Background(), items[0], items)
	assert.False(t, ok)
	_, ok = r.Remediate(context.Background(), items[2], items)
	assert.False(t, ok)
}

func TestRemediate_FallbackWithoutGenerator(t *testing.T) {
	r := NewRemediator(Options{})
	items := []types.Item{q("a", "s1", "What is TLS?"), q("c", "s1", "What is TLS?")}

	rem, ok := r.Remediate(context.Background(), items[1], items)

	require.True(t, ok)
	assert.Equal(t, SourceFallback, rem.Source)
	assert.Equal(t, "a", rem.KeeperID)
	require.NotNil(t, rem.Patch.Text)
	assert.Nil(t, rem.Patch.Options)
	assert.NotEqual(t, evaluation.NormalizeKey("What is TLS?"), evaluation.NormalizeKey(*rem.Patch.Text))
	assert.Contains(t, rem.Notes, "duplicate of a")
}

func TestRemediate_IsDeterministic(t *testing.T) {
	r := NewRemediator(Options{})
	items := []types.Item{q("a", "s1", "What is TLS?"), q("c", "s1", "What is TLS?")}

	first, _ := r.Remediate(context.Background(), items[1], items)
	second, _ := r.Remediate(context.Background(), items[1], []types.Item{items[1], items[0]})
	assert.Equal(t, first, second)
}

func TestRemediate_FallbackSkipsUsedPrefixes(t *testing.T) {
	table := map[string][]string{"en": {"A: ", "B: ", "C: "}}
	r := NewRemediator(Options{Prefixes: table})
	items := []types.Item{
		q("a", "s1", "What is TLS?"),
		q("c", "s1", "What is TLS?"),
		q("x", "s1", "A: What is TLS?"),
		q("y", "s1", "B: What is TLS?"),
	}

	rem, ok := r.Remediate(context.Background(), items[1], items)

	require.True(t, ok)
	assert.Equal(t, "C: What is TLS?", rem.Text)
}

func TestRemediate_AllPrefixesCollide(t *testing.T) {
	table := map[string][]string{"en": {"A: ", "B: "}}
	r := NewRemediator(Options{Prefixes: table})
	items := []types.Item{
		q("a", "s1", "What is TLS?"),
		q("c", "s1", "What is TLS?"),
		q("x", "s1", "A: What is TLS?"),
		q("y", "s1", "B: What is TLS?"),
	}

	rem, ok := r.Remediate(context.Background(), items[1], items)

	require.True(t, ok)
	assert.False(t, rem.Resolved())
	assert.Equal(t, SourceUnresolved, rem.Source)
	assert.True(t, rem.Patch.IsEmpty())
}

func TestRemediate_UsesFirstValidUnusedCandidate(t *testing.T) {
	gen := &fakeGenerator{candidates: []types.Candidate{
		{Text: "What is TLS?", Options: []string{"a1", "b1"}},
		{Text: "Rejected question text", Options: []string{"a2", "b2"}},
		{Text: " Which layer   does TLS run on? ", Options: []string{"Transport", "Session"}, CorrectIndex: 1},
	}}
	r := NewRemediator(Options{Generator: gen, Validator: rejectText{text: "Rejected question text"}, Lessons: fakeLessons{}})
	c := q("c", "s1", "What is TLS?")
	c.LessonID = "l-4"
	c.LessonOrdinal = 4
	c.Language = "en"
	items := []types.Item{q("a", "s1", "What is TLS?"), c}

	rem, ok := r.Remediate(context.Background(), c, items)

	require.True(t, ok)
	assert.Equal(t, SourceGenerator, rem.Source)
	assert.Equal(t, "Which layer does TLS run on?", rem.Text)
	require.NotNil(t, rem.Patch.CorrectIndex)
	assert.Equal(t, 1, *rem.Patch.CorrectIndex)
	assert.Equal(t, []string{"Transport", "Session"}, *rem.Patch.Options)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Equal(t, "Title l-4", req.LessonTitle)
	assert.Equal(t, 4, req.LessonOrdinal)
	assert.Equal(t, DefaultCandidateCount, req.Count)
	assert.Equal(t, Seed("c"), req.Seed)
	assert.Equal(t, []string{"what is tls?"}, req.ExistingTexts)
}

func TestRemediate_GeneratorFailureDegradesToFallback(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	r := NewRemediator(Options{Generator: gen})
	items := []types.Item{q("a", "s1", "What is TLS?"), q("c", "s1", "What is TLS?")}

	rem, ok := r.Remediate(context.Background(), items[1], items)

	require.True(t, ok)
	assert.Equal(t, SourceFallback, rem.Source)
	assert.Contains(t, rem.Notes[1], "quota exceeded")
}

func TestRemediate_NoUsableCandidateDegradesToFallback(t *testing.T) {
	gen := &fakeGenerator{candidates: []types.Candidate{{Text: "what is tls?", Options: []string{"x", "y"}}}}
	r := NewRemediator(Options{Generator: gen})
	items := []types.Item{q("a", "s1", "What is TLS?"), q("c", "s1", "What is TLS?")}

	rem, _ := r.Remediate(context.Background(), items[1], items)
	assert.Equal(t, SourceFallback, rem.Source)
}

func TestPlanScope_SettlesScopeAndRerunIsNoOp(t *testing.T) {
	items := []types.Item{
		q("a", "s1", "What is TLS?"),
		q("b", "s1", "What is TLS?"),
		q("c", "s1", "what is  TLS?"),
		q("d", "s1", "What is SSH?"),
		q("e", "s1", "What is SSH?"),
		q("f", "s2", "What is TLS?"),
	}
	r := NewRemediator(Options{})

	rems := r.PlanScope(context.Background(), items)

	require.Len(t, rems, 3)
	assert.Equal(t, []string{"b", "c", "e"}, []string{rems[0].ItemID, rems[1].ItemID, rems[2].ItemID})
	for _, rem := range rems {
		assert.True(t, rem.Resolved(), rem.ItemID)
	}

	patched := applyAll(items, rems)
	assert.Empty(t, Groups(patched))
	assert.Empty(t, r.PlanScope(context.Background(), patched))
}
