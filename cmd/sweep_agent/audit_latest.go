package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/observability"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

var auditLatestCmd = &cobra.Command{
	Use:   "audit-latest",
	Short: "Evaluate the most recently modified items without writing",
	Long:  "Evaluate the N most recently modified active items against the quality rules. Read-only: nothing is written and the cursor is not moved.",
	RunE:  runAuditLatest,
}

var (
	auditLatestLimit int
	auditLatestScope string
)

// auditWorkers bounds concurrent evaluations.
const auditWorkers = 4

func init() {
	auditLatestCmd.Flags().IntVarP(&auditLatestLimit, "limit", "n", 10, "Number of items to evaluate")
	auditLatestCmd.Flags().StringVar(&auditLatestScope, "scope", "", "Only items of this scope (defaults to config scope_id)")

	rootCmd.AddCommand(auditLatestCmd)
}

func runAuditLatest(cmd *cobra.Command, _ []string) error {
	if auditLatestLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	h, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.close()

	scope := auditLatestScope
	if scope == "" {
		scope = cfg.ScopeID
	}
	items, err := h.store.ListAll(ctx, itemstore.Filter{ScopeID: scope, ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	latest := latestItems(items, auditLatestLimit)
	results, err := evaluateAll(ctx, latest, cfg.EvaluationRules())
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintAuditLatest(latest, results)
	return nil
}

// latestItems returns up to n items from an ascending snapshot, newest first.
func latestItems(items []types.Item, n int) []types.Item {
	start := max(len(items)-n, 0)
	out := slices.Clone(items[start:])
	slices.Reverse(out)
	return out
}

// evaluateAll evaluates items concurrently; results keep the input order.
func evaluateAll(ctx context.Context, items []types.Item, rules evaluation.Rules) ([]types.EvaluationResult, error) {
	results := make([]types.EvaluationResult, len(items))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(auditWorkers)
	for i := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluation.Evaluate(items[i], rules)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluation interrupted: %w", err)
	}
	return results, nil
}
