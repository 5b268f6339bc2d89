package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moldovancsaba/amanoba-sub006/internal/config"
	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

var initStoreCmd = &cobra.Command{
	Use:   "init-store",
	Short: "Create the item tables and optionally import a fixture",
	Long:  "Create the quiz item and lesson tables of a PostgreSQL or SQLite store if missing, then optionally upsert items from a JSON fixture file.",
	RunE:  runInitStore,
}

var initStoreFixture string

// schemaCreator is implemented by backends whose schema is not applied on open.
type schemaCreator interface {
	EnsureSchema(ctx context.Context) error
}

type itemUpserter interface {
	UpsertItem(ctx context.Context, item types.Item) error
}

func init() {
	initStoreCmd.Flags().StringVar(&initStoreFixture, "fixture", "", "JSON array of items to import")

	rootCmd.AddCommand(initStoreCmd)
}

func runInitStore(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return fmt.Errorf("init-store needs a postgres or sqlite store")
	}

	ctx := cmd.Context()
	h, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer h.close()

	if sc, ok := h.raw.(schemaCreator); ok {
		if err := sc.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if initStoreFixture == "" {
		fmt.Fprintln(out, "Store schema ready")
		return nil
	}

	upserter, ok := h.raw.(itemUpserter)
	if !ok {
		return fmt.Errorf("store driver %s cannot import items", cfg.Store.Driver)
	}
	fixture, err := itemstore.LoadMemoryStore(initStoreFixture)
	if err != nil {
		return err
	}
	items, err := fixture.ListAll(ctx, itemstore.Filter{})
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := upserter.UpsertItem(ctx, item); err != nil {
			return fmt.Errorf("failed to import item %s: %w", item.ID, err)
		}
	}

	fmt.Fprintf(out, "Imported %d items\n", len(items))
	return nil
}
