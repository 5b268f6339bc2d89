package dedup

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

// Remediation sources
const (
	SourceGenerator  = "generator"
	SourceFallback   = "fallback"
	SourceUnresolved = "unresolved"
)

// DefaultCandidateCount is how many candidates are requested per item.
const DefaultCandidateCount = 3

// Generator proposes replacement questions.
type Generator interface {
	Generate(ctx context.Context, req types.GenerationRequest) ([]types.Candidate, error)
}

// Validator rejects candidates that break the quality rules. A nil error accepts.
type Validator interface {
	Validate(ctx context.Context, candidate types.Candidate, existingTexts []string) error
}

// LessonSource supplies lesson title and body for generation prompts.
type LessonSource interface {
	LessonContext(ctx context.Context, lessonID string) (title, body string, err error)
}

// Remediation is the patch that makes a duplicate item unique in its scope.
type Remediation struct {
	ItemID   string
	KeeperID string
	Source   string
	Patch    types.ItemPatch
	Text     string // new text; empty when unresolved
	Notes    []string
}

// Resolved reports whether a unique text was found.
func (r Remediation) Resolved() bool {
	return r.Source != SourceUnresolved
}

// Options configures a Remediator. Zero values select defaults.
type Options struct {
	Generator      Generator
	Validator      Validator
	Lessons        LessonSource
	CandidateCount int
	Prefixes       map[string][]string
	Logger         *zap.Logger
}

// Remediator produces remediations for duplicate items.
type Remediator struct {
	generator      Generator
	validator      Validator
	lessons        LessonSource
	candidateCount int
	prefixes       map[string][]string
	logger         *zap.Logger
}

// NewRemediator creates a Remediator. Without a generator only the fallback is used.
func NewRemediator(opts Options) *Remediator {
	r := &Remediator{
		generator:      opts.Generator,
		validator:      opts.Validator,
		lessons:        opts.Lessons,
		candidateCount: opts.CandidateCount,
		prefixes:       opts.Prefixes,
		logger:         opts.Logger,
	}
	if r.candidateCount <= 0 {
		r.candidateCount = DefaultCandidateCount
	}
	if len(r.prefixes) == 0 {
		r.prefixes = DefaultPrefixes()
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Remediate returns the remediation for item given the other items of its
// scope. The second result is false when item is not a non-keeper duplicate.
func (r *Remediator) Remediate(ctx context.Context, item types.Item, scopeItems []types.Item) (Remediation, bool) {
	idx := BuildIndex(withItem(scopeItems, item))
	g, ok := idx.GroupOf(item.ID)
	if !ok || g.Keeper() == item.ID {
		return Remediation{}, false
	}

	used := usedTexts(scopeItems, item)
	return r.remediate(ctx, item, g.Keeper(), used), true
}

// PlanScope settles every duplicate group in items. Non-keepers are handled in
// ID order and each assigned text counts as used for the ones after it, so the
// patched snapshot contains no duplicates.
func (r *Remediator) PlanScope(ctx context.Context, items []types.Item) []Remediation {
	idx := BuildIndex(items)

	byID := make(map[string]types.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	type pending struct {
		id     string
		keeper string
	}
	var todo []pending
	for _, g := range idx.Groups() {
		for _, id := range g.Duplicates() {
			todo = append(todo, pending{id: id, keeper: g.Keeper()})
		}
	}
	sort.Slice(todo, func(i, j int) bool { return todo[i].id < todo[j].id })

	used := make(map[string]map[string]bool)
	for _, it := range items {
		if !it.Active {
			continue
		}
		if used[it.ScopeID] == nil {
			used[it.ScopeID] = make(map[string]bool)
		}
		used[it.ScopeID][evaluation.NormalizeKey(it.Text)] = true
	}

	out := make([]Remediation, 0, len(todo))
	for _, p := range todo {
		item := byID[p.id]
		rem := r.remediate(ctx, item, p.keeper, used[item.ScopeID])
		if rem.Resolved() {
			used[item.ScopeID][evaluation.NormalizeKey(rem.Text)] = true
		}
		out = append(out, rem)
	}
	return out
}

func (r *Remediator) remediate(ctx context.Context, item types.Item, keeper string, used map[string]bool) Remediation {
	rem := Remediation{
		ItemID:   item.ID,
		KeeperID: keeper,
		Notes:    []string{fmt.Sprintf("duplicate of %s", keeper)},
	}

	if r.generator != nil {
		candidate, note, ok := r.fromGenerator(ctx, item, used)
		if note != "" {
			rem.Notes = append(rem.Notes, note)
		}
		if ok {
			rem.Source = SourceGenerator
			rem.Patch = candidate.Patch()
			rem.Text = candidate.Text
			return rem
		}
	}

	text := evaluation.NormalizeWhitespace(item.Text)
	for _, option := range fallbackTexts(item.ID, item.LessonID, item.Language, text, r.prefixes) {
		if used[evaluation.NormalizeKey(option)] {
			continue
		}
		rem.Source = SourceFallback
		rem.Patch = types.ItemPatch{Text: types.StringPtr(option)}
		rem.Text = option
		rem.Notes = append(rem.Notes, fmt.Sprintf("fallback prefix applied: %q", option))
		r.logger.Info("duplicate resolved with fallback prefix",
			zap.String("item_id", item.ID),
			zap.String("keeper_id", keeper))
		return rem
	}

	rem.Source = SourceUnresolved
	rem.Notes = append(rem.Notes, "every fallback prefix collides in scope")
	r.logger.Warn("duplicate could not be resolved",
		zap.String("item_id", item.ID),
		zap.String("keeper_id", keeper))
	return rem
}

// fromGenerator asks the generator for candidates and returns the first one
// that passes validation and is unused. Failures are reported in the note.
func (r *Remediator) fromGenerator(ctx context.Context, item types.Item, used map[string]bool) (types.Candidate, string, bool) {
	req := types.GenerationRequest{
		ItemID:        item.ID,
		ScopeID:       item.ScopeID,
		LessonID:      item.LessonID,
		LessonOrdinal: item.LessonOrdinal,
		Language:      item.Language,
		Original:      item,
		ExistingTexts: sortedKeys(used),
		Count:         r.candidateCount,
		Seed:          Seed(item.ID),
	}
	if r.lessons != nil && item.LessonID != "" {
		title, body, err := r.lessons.LessonContext(ctx, item.LessonID)
		if err != nil {
			r.logger.Warn("lesson context unavailable",
				zap.String("lesson_id", item.LessonID),
				zap.Error(err))
		} else {
			req.LessonTitle = title
			req.LessonBody = body
		}
	}

	candidates, err := r.generator.Generate(ctx, req)
	if err != nil {
		r.logger.Warn("candidate generation failed, using fallback",
			zap.String("item_id", item.ID),
			zap.Error(err))
		return types.Candidate{}, fmt.Sprintf("generator failed: %v", err), false
	}

	rejected := 0
	for _, c := range candidates {
		c.Text = evaluation.NormalizeWhitespace(c.Text)
		c.Options, _ = evaluation.NormalizeOptions(c.Options)
		if used[evaluation.NormalizeKey(c.Text)] {
			rejected++
			continue
		}
		if r.validator != nil {
			if err := r.validator.Validate(ctx, c, req.ExistingTexts); err != nil {
				r.logger.Debug("candidate rejected",
					zap.String("item_id", item.ID),
					zap.Error(err))
				rejected++
				continue
			}
		}
		return c, "", true
	}

	return types.Candidate{}, fmt.Sprintf("generator produced no usable candidate (%d rejected)", rejected), false
}

func usedTexts(scopeItems []types.Item, item types.Item) map[string]bool {
	used := make(map[string]bool, len(scopeItems))
	for _, it := range scopeItems {
		if it.ID == item.ID || !it.Active || it.ScopeID != item.ScopeID {
			continue
		}
		used[evaluation.NormalizeKey(it.Text)] = true
	}
	return used
}

// withItem returns items with item present exactly once.
func withItem(items []types.Item, item types.Item) []types.Item {
	out := make([]types.Item, 0, len(items)+1)
	for _, it := range items {
		if it.ID != item.ID {
			out = append(out, it)
		}
	}
	return append(out, item)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
