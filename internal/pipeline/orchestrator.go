// Package pipeline drives the content sweep: select the next item, evaluate it,
// merge duplicate remediation, write, stabilize, then checkpoint.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/audit"
	"github.com/moldovancsaba/amanoba-sub006/internal/cursor"
	"github.com/moldovancsaba/amanoba-sub006/internal/dedup"
	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/observability"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
	"github.com/moldovancsaba/amanoba-sub006/internal/writer"
)

// DefaultStabilizationAttempts bounds write/re-evaluate cycles per item.
const DefaultStabilizationAttempts = 3

// ProgressEvent represents a progress update during a run
type ProgressEvent struct {
	Step    string `json:"step"`
	ItemID  string `json:"item_id,omitempty"`
	Message string `json:"message"`
}

// ProgressCallback is called when run progress occurs
type ProgressCallback func(event ProgressEvent)

// Dependencies are the collaborators of an Orchestrator.
type Dependencies struct {
	Store      itemstore.Store
	State      cursor.StateStore
	Audit      audit.Log
	Remediator *dedup.Remediator // nil disables duplicate remediation
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Rules      *evaluation.Rules // nil selects evaluation.DefaultRules

	Agent                 string
	StabilizationAttempts int
	Now                   func() time.Time
}

// RunOptions holds configuration for a single invocation
type RunOptions struct {
	Count      int
	Restricted bool   // skip items already in the ledger since the last wrap
	DryRun     bool   // evaluate only; nothing is written or checkpointed
	ScopeID    string // empty sweeps every scope
	OnProgress ProgressCallback
}

// Orchestrator runs the sweep loop. It assumes it is the only writer of the
// run state; concurrent instances are not coordinated.
type Orchestrator struct {
	store      itemstore.Store
	state      cursor.StateStore
	audit      audit.Log
	remediator *dedup.Remediator
	writer     *writer.Writer
	metrics    *observability.Metrics
	logger     *zap.Logger
	rules      evaluation.Rules
	agent      string
	attempts   int
	now        func() time.Time
}

// New creates an Orchestrator.
func New(deps Dependencies) (*Orchestrator, error) {
	if deps.Store == nil {
		return nil, errors.New("item store is required")
	}
	if deps.State == nil {
		return nil, errors.New("state store is required")
	}
	if deps.Audit == nil {
		return nil, errors.New("audit log is required")
	}

	o := &Orchestrator{
		store:      deps.Store,
		state:      deps.State,
		audit:      deps.Audit,
		remediator: deps.Remediator,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		agent:      deps.Agent,
		attempts:   deps.StabilizationAttempts,
		now:        deps.Now,
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if deps.Rules != nil {
		o.rules = *deps.Rules
	} else {
		o.rules = evaluation.DefaultRules()
	}
	if o.attempts <= 0 {
		o.attempts = DefaultStabilizationAttempts
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.writer = writer.New(deps.Store, o.logger)
	return o, nil
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *RunOptions, step, itemID, message string) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, ItemID: itemID, Message: message})
	}
}

// Run processes up to opts.Count items. Wraps do not count toward the total.
// Cancellation is honoured between items only; the summary so far is returned
// together with the context error.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*types.RunSummary, error) {
	if opts.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", opts.Count)
	}

	state, err := o.state.Load(ctx)
	if err != nil {
		return nil, o.abort("", StageLoadState, err)
	}
	state.RunID = uuid.New()
	state.RunTimestamp = o.now().UTC()
	if o.agent != "" {
		state.Agent = o.agent
	}

	summary := &types.RunSummary{
		RunID:  state.RunID,
		DryRun: opts.DryRun,
		Items:  []types.ItemOutcome{},
	}
	defer func() { o.metrics.ObserveRunFinished(o.now()) }()

	o.logger.Info("sweep started",
		zap.String("run_id", state.RunID.String()),
		zap.Int("count", opts.Count),
		zap.Bool("restricted", opts.Restricted),
		zap.Bool("dry_run", opts.DryRun),
		zap.String("scope_id", opts.ScopeID))

	var seen map[string]bool
	if opts.Restricted {
		seen, err = o.audit.SeenSinceLastWrap(ctx)
		if err != nil {
			return nil, o.abort("", StageAudit, err)
		}
	}

	progressSinceWrap := true
	for summary.Processed < opts.Count {
		if err := ctx.Err(); err != nil {
			summary.StopReason = types.StopCanceled
			return summary, err
		}

		snapshot, err := o.store.ListAll(ctx, itemstore.Filter{ScopeID: opts.ScopeID, ActiveOnly: true})
		if err != nil {
			return summary, o.abort("", StageList, err)
		}
		candidates := snapshot
		if opts.Restricted {
			candidates = excludeSeen(snapshot, seen)
		}

		res := cursor.ResolveNext(candidates, state)
		if res.Reason == cursor.ReasonEmptySnapshot {
			summary.StopReason = types.StopEmptySnapshot
			break
		}
		if res.Wrapped() {
			if !progressSinceWrap {
				summary.StopReason = types.StopNoProgress
				break
			}
			if opts.Restricted && summary.Wraps >= 1 {
				summary.StopReason = types.StopWrapLimit
				break
			}
			if err := o.wrap(ctx, &state, opts, summary); err != nil {
				return summary, err
			}
			if opts.Restricted {
				clear(seen)
			}
			progressSinceWrap = false
			continue
		}

		outcome, err := o.processItem(ctx, &state, *res.Item, snapshot, opts)
		if err != nil {
			return summary, err
		}
		summary.Items = append(summary.Items, outcome)
		summary.Processed++
		if outcome.Action == types.ActionWritten {
			summary.Written++
		}
		if opts.Restricted {
			seen[outcome.ItemID] = true
		}
		progressSinceWrap = true
	}
	if summary.StopReason == "" {
		summary.StopReason = types.StopCountReached
	}

	o.logger.Info("sweep finished",
		zap.String("run_id", state.RunID.String()),
		zap.Int("processed", summary.Processed),
		zap.Int("written", summary.Written),
		zap.Int("wraps", summary.Wraps),
		zap.String("stop_reason", summary.StopReason))

	return summary, nil
}

// wrap clears the cursor so the next resolution starts from the oldest item.
func (o *Orchestrator) wrap(ctx context.Context, state *types.RunState, opts RunOptions, summary *types.RunSummary) error {
	now := o.now().UTC()
	note := fmt.Sprintf("wrapped at %s: no newer items", now.Format(time.RFC3339))
	state.Wrap(note)
	summary.Wraps++
	o.metrics.ObserveWrap()
	o.logger.Info("cursor wrapped", zap.String("run_id", state.RunID.String()))
	emitProgress(&opts, "wrap", "", note)

	if opts.DryRun {
		return nil
	}
	marker := audit.WrapMarker{Timestamp: now, RunID: state.RunID, Note: cursor.ReasonNoNewerItems}
	if err := o.audit.AppendWrap(ctx, marker); err != nil {
		return o.abort("", StageAudit, err)
	}
	if err := o.state.Save(ctx, *state); err != nil {
		return o.abort("", StageSaveState, err)
	}
	return nil
}

// processItem settles one item and checkpoints it.
func (o *Orchestrator) processItem(ctx context.Context, state *types.RunState, selected types.Item, snapshot []types.Item, opts RunOptions) (types.ItemOutcome, error) {
	// Frozen before any write so the scan does not chase its own updates.
	state.Advance(selected)

	fetched, err := o.store.GetByID(ctx, selected.ID)
	if err != nil {
		return types.ItemOutcome{}, o.abort(selected.ID, StageFetch, err)
	}
	item := *fetched
	preFix := item.UpdatedAt
	scope := scopeItems(snapshot, item.ScopeID)

	outcome := types.ItemOutcome{ItemID: item.ID}
	result, patch, rem := o.plan(ctx, item, scope)
	outcome.ViolationCount = len(result.Violations)
	outcome.Codes = result.Codes()
	if rem != nil {
		outcome.RemediationSource = rem.Source
		outcome.Notes = append(outcome.Notes, rem.Notes...)
	}
	unresolved := rem != nil && !rem.Resolved()

	final := item
	switch {
	case patch.IsEmpty() && len(result.Violations) == 0 && !unresolved:
		outcome.Action = types.ActionNoChanges
		outcome.Notes = append(outcome.Notes, audit.NoteNoChanges)
	case patch.IsEmpty():
		outcome.Action = types.ActionManualReview
		outcome.Notes = append(outcome.Notes, audit.NoteManualReview)
	case opts.DryRun:
		if _, err := o.writer.ApplyUpdate(ctx, item.ID, patch, true); err != nil {
			return outcome, o.abort(item.ID, StageWrite, err)
		}
		outcome.Action = types.ActionDryRun
		outcome.Fields = patch.Fields()
		outcome.Notes = append(outcome.Notes, audit.NoteDryRun)
	default:
		outcome.Action = types.ActionWritten
		final, err = o.stabilize(ctx, item, patch, scope, &outcome)
		if err != nil {
			return outcome, err
		}
	}

	if !opts.DryRun {
		entry := types.AuditEntry{
			Timestamp:       o.now().UTC(),
			RunID:           state.RunID,
			ItemID:          item.ID,
			PreFixUpdatedAt: &preFix,
			Text:            final.Text,
			ViolationCount:  outcome.ViolationCount,
			Notes:           outcome.Notes,
		}
		if err := o.audit.Append(ctx, entry); err != nil {
			return outcome, o.abort(item.ID, StageAudit, err)
		}
		if err := o.state.Save(ctx, *state); err != nil {
			return outcome, o.abort(item.ID, StageSaveState, err)
		}
	}

	o.metrics.ObserveItem(outcome.Action)
	if outcome.RemediationSource != "" {
		o.metrics.ObserveRemediation(outcome.RemediationSource)
	}
	o.logger.Info("item processed",
		zap.String("item_id", item.ID),
		zap.String("action", outcome.Action),
		zap.Int("violations", outcome.ViolationCount),
		zap.Strings("fields", outcome.Fields),
		zap.Int("attempts", outcome.Attempts))
	emitProgress(&opts, "item", item.ID, outcome.Action)

	return outcome, nil
}

// stabilize writes patch, then re-evaluates the stored item and writes again
// while new fixes appear, up to the attempt bound.
func (o *Orchestrator) stabilize(ctx context.Context, item types.Item, patch types.ItemPatch, scope []types.Item, outcome *types.ItemOutcome) (types.Item, error) {
	current := item
	for attempt := 1; attempt <= o.attempts; attempt++ {
		res, err := o.writer.ApplyUpdate(ctx, current.ID, patch, false)
		if err != nil {
			return current, o.abort(current.ID, StageWrite, err)
		}
		o.metrics.ObserveWrite()
		outcome.Attempts = attempt
		for _, f := range res.Fields {
			if !slices.Contains(outcome.Fields, f) {
				outcome.Fields = append(outcome.Fields, f)
			}
		}

		current = *res.Item
		scope = replaceItem(scope, current)
		result, next, rem := o.plan(ctx, current, scope)
		if rem != nil {
			outcome.Notes = append(outcome.Notes, rem.Notes...)
		}
		if next.IsEmpty() {
			if len(result.Violations) > 0 || (rem != nil && !rem.Resolved()) {
				outcome.Notes = append(outcome.Notes, audit.NoteManualReview)
			}
			if attempt > 1 {
				outcome.Notes = append(outcome.Notes, audit.NoteStabilized)
			}
			return current, nil
		}
		patch = next
	}

	o.logger.Warn("item did not stabilize",
		zap.String("item_id", current.ID),
		zap.Int("attempts", o.attempts))
	outcome.Notes = append(outcome.Notes, audit.NoteNotStabilized)
	return current, nil
}

// plan evaluates item and merges in the duplicate remediation when item is a
// non-keeper. Duplicates are judged on the text as it will read after auto-fixes.
func (o *Orchestrator) plan(ctx context.Context, item types.Item, scope []types.Item) (types.EvaluationResult, types.ItemPatch, *dedup.Remediation) {
	result := evaluation.Evaluate(item, o.rules)
	patch := result.AutoPatch
	if o.remediator == nil {
		return result, patch, nil
	}

	rem, ok := o.remediator.Remediate(ctx, patch.ApplyTo(item), scope)
	if !ok {
		return result, patch, nil
	}
	if rem.Resolved() {
		patch = patch.Merge(rem.Patch)
	}
	return result, patch, &rem
}

func (o *Orchestrator) abort(itemID, stage string, err error) error {
	o.metrics.ObserveAbort(stage)
	o.logger.Error("run aborted",
		zap.String("item_id", itemID),
		zap.String("stage", stage),
		zap.Error(err))
	return &AbortError{ItemID: itemID, Stage: stage, Cause: err}
}

func excludeSeen(items []types.Item, seen map[string]bool) []types.Item {
	if len(seen) == 0 {
		return items
	}
	out := make([]types.Item, 0, len(items))
	for _, it := range items {
		if !seen[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

func scopeItems(items []types.Item, scopeID string) []types.Item {
	out := make([]types.Item, 0, len(items))
	for _, it := range items {
		if it.ScopeID == scopeID {
			out = append(out, it)
		}
	}
	return out
}

func replaceItem(items []types.Item, item types.Item) []types.Item {
	out := make([]types.Item, len(items))
	for i, it := range items {
		if it.ID == item.ID {
			out[i] = item
			continue
		}
		out[i] = it
	}
	return out
}
