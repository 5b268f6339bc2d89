package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var handoverCmd = &cobra.Command{
	Use:   "handover",
	Short: "Append an operator note to the run state",
	Long:  "Record a note for whoever runs the sweep next. The cursor is left untouched.",
	RunE:  runHandover,
}

var handoverNote string

func init() {
	handoverCmd.Flags().StringVar(&handoverNote, "note", "", "Note text (required)")
	_ = handoverCmd.MarkFlagRequired("note")

	rootCmd.AddCommand(handoverCmd)
}

func runHandover(cmd *cobra.Command, _ []string) error {
	note := strings.TrimSpace(handoverNote)
	if note == "" {
		return fmt.Errorf("--note must not be empty")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store := newStateStore(cfg)

	state, err := store.Load(ctx)
	if err != nil {
		return err
	}
	state.AddNote(fmt.Sprintf("%s handover: %s", time.Now().UTC().Format(time.RFC3339), note))
	if err := store.Save(ctx, state); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Note recorded (%d notes kept)\n", len(state.Notes))
	return nil
}
