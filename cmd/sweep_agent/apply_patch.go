package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/moldovancsaba/amanoba-sub006/internal/observability"
	"github.com/moldovancsaba/amanoba-sub006/internal/schemas"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
	"github.com/moldovancsaba/amanoba-sub006/internal/writer"
)

var applyPatchCmd = &cobra.Command{
	Use:   "apply-patch",
	Short: "Apply a JSON patch to one item with write verification",
	Long:  "Apply a partial item update from a JSON file, then re-read the item and fail if any patched field differs from the written value.",
	RunE:  runApplyPatch,
}

var (
	applyPatchItemID string
	applyPatchFile   string
	applyPatchDryRun bool
)

func init() {
	applyPatchCmd.Flags().StringVar(&applyPatchItemID, "id", "", "Item ID (required)")
	applyPatchCmd.Flags().StringVar(&applyPatchFile, "patch", "", "Path to patch JSON file (required)")
	applyPatchCmd.Flags().BoolVar(&applyPatchDryRun, "dry-run", false, "Validate the patch without touching the store")
	_ = applyPatchCmd.MarkFlagRequired("id")
	_ = applyPatchCmd.MarkFlagRequired("patch")

	rootCmd.AddCommand(applyPatchCmd)
}

func runApplyPatch(cmd *cobra.Command, _ []string) error {
	patch, err := readPatch(applyPatchFile)
	if err != nil {
		return err
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

	res, err := writer.New(h.store, logger).ApplyUpdate(ctx, applyPatchItemID, patch, applyPatchDryRun)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintWriteResult(applyPatchItemID, res.Fields, res.Applied, res.Verified)
	return nil
}

// readPatch loads a patch file after checking it against the patch schema.
func readPatch(path string) (types.ItemPatch, error) {
	if err := schemas.ValidateFile(schemas.ItemPatch, path); err != nil {
		return types.ItemPatch{}, fmt.Errorf("invalid patch file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ItemPatch{}, fmt.Errorf("failed to read patch file: %w", err)
	}
	var patch types.ItemPatch
	if err := json.Unmarshal(data, &patch); err != nil {
		return types.ItemPatch{}, fmt.Errorf("failed to parse patch file: %w", err)
	}
	return patch, nil
}
