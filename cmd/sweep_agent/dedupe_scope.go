package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/writer"
)

var dedupeScopeCmd = &cobra.Command{
	Use:   "dedupe-scope",
	Short: "Settle every duplicate group of one scope",
	Long: "Remediate all non-keeper duplicates of a scope in one pass, outside the cursor scan. " +
		"Each write is verified; the first failure stops the command.",
	RunE: runDedupeScope,
}

var (
	dedupeScope  string
	dedupeDryRun bool
)

func init() {
	dedupeScopeCmd.Flags().StringVar(&dedupeScope, "scope", "", "Scope ID (required)")
	dedupeScopeCmd.Flags().BoolVar(&dedupeDryRun, "dry-run", false, "Print the plan without writing")
	_ = dedupeScopeCmd.MarkFlagRequired("scope")

	rootCmd.AddCommand(dedupeScopeCmd)
}

func runDedupeScope(cmd *cobra.Command, _ []string) error {
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

	remediator, closeRemediator, err := newRemediator(ctx, cfg, h.lessons)
	if err != nil {
		return err
	}
	defer closeRemediator()

	items, err := h.store.ListAll(ctx, itemstore.Filter{ScopeID: dedupeScope, ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	out := cmd.OutOrStdout()
	plan := remediator.PlanScope(ctx, items)
	if len(plan) == 0 {
		fmt.Fprintf(out, "No duplicates in scope %s\n", dedupeScope)
		return nil
	}

	w := writer.New(h.store, logger)
	written := 0
	for _, rem := range plan {
		if !rem.Resolved() {
			fmt.Fprintf(out, "⚠ %s: unresolved duplicate of %s\n", rem.ItemID, rem.KeeperID)
			continue
		}
		res, err := w.ApplyUpdate(ctx, rem.ItemID, rem.Patch, dedupeDryRun)
		if err != nil {
			return err
		}
		if res.Applied {
			written++
		}
		fmt.Fprintf(out, "• %s (%s): %q\n", rem.ItemID, rem.Source, rem.Text)
	}

	logger.Info("scope deduplicated",
		zap.String("scope_id", dedupeScope),
		zap.Int("planned", len(plan)),
		zap.Int("written", written),
		zap.Bool("dry_run", dedupeDryRun))
	fmt.Fprintf(out, "%d of %d remediations written\n", written, len(plan))
	return nil
}
