package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moldovancsaba/amanoba-sub006/internal/cursor"
	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/observability"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

var pickNextCmd = &cobra.Command{
	Use:   "pick-next",
	Short: "Show the item the next run would process",
	Long:  "Resolve the next item from the persisted cursor without processing it or moving the cursor.",
	RunE:  runPickNext,
}

var (
	pickNextRestricted bool
	pickNextScope      string
)

func init() {
	pickNextCmd.Flags().BoolVar(&pickNextRestricted, "restricted", false, "Skip items already in the audit ledger since the last wrap")
	pickNextCmd.Flags().StringVar(&pickNextScope, "scope", "", "Only items of this scope (defaults to config scope_id)")

	rootCmd.AddCommand(pickNextCmd)
}

func runPickNext(cmd *cobra.Command, _ []string) error {
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

	state, err := newStateStore(cfg).Load(ctx)
	if err != nil {
		return err
	}

	scope := pickNextScope
	if scope == "" {
		scope = cfg.ScopeID
	}
	snapshot, err := h.store.ListAll(ctx, itemstore.Filter{ScopeID: scope, ActiveOnly: true})
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	if pickNextRestricted || cfg.Restricted {
		seen, err := newLedger(cfg).SeenSinceLastWrap(ctx)
		if err != nil {
			return err
		}
		filtered := make([]types.Item, 0, len(snapshot))
		for _, it := range snapshot {
			if !seen[it.ID] {
				filtered = append(filtered, it)
			}
		}
		snapshot = filtered
	}

	res := cursor.ResolveNext(snapshot, state)
	if res.Wrapped() {
		// Show what the run would pick after wrapping.
		wrapped := state
		wrapped.Cursor = nil
		after := cursor.ResolveNext(snapshot, wrapped)
		observability.NewPrinter(cmd.OutOrStdout()).PrintResolution(state, after.Item, res.Reason+", wraps to oldest")
		return nil
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintResolution(state, res.Item, res.Reason)
	return nil
}
