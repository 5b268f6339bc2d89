package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moldovancsaba/amanoba-sub006/internal/dedup"
	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/observability"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a single item",
	Long:  "Evaluate one item against the quality rules and report whether it duplicates another item in its scope. Read-only.",
	RunE:  runEvaluate,
}

var evaluateItemID string

func init() {
	evaluateCmd.Flags().StringVar(&evaluateItemID, "id", "", "Item ID (required)")
	_ = evaluateCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
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

	item, err := h.store.GetByID(ctx, evaluateItemID)
	if err != nil {
		return err
	}

	result := evaluation.Evaluate(*item, cfg.EvaluationRules())
	out := cmd.OutOrStdout()
	observability.NewPrinter(out).PrintEvaluation(item, result)

	scope, err := h.store.ListAll(ctx, itemstore.Filter{ScopeID: item.ScopeID, ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("failed to list scope items: %w", err)
	}
	idx := dedup.BuildIndex(scope)
	if g, ok := idx.GroupOf(item.ID); ok {
		if g.Keeper() == item.ID {
			fmt.Fprintf(out, "Duplicate group keeper; %d other item(s) share this text\n", len(g.Duplicates()))
		} else {
			fmt.Fprintf(out, "Duplicate of %s; will be remediated\n", g.Keeper())
		}
	}
	return nil
}
