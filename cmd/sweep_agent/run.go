package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/observability"
	"github.com/moldovancsaba/amanoba-sub006/internal/pipeline"
	"github.com/moldovancsaba/amanoba-sub006/internal/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the next items of the sweep",
	Long: `Process up to --count items from the persisted cursor: evaluate, remediate duplicates,
write with verification, stabilize, then checkpoint the audit ledger and run state after every item.
Any store or verification failure aborts the run; completed items stay checkpointed.`,
	RunE: runRun,
}

var (
	runCount      int
	runRestricted bool
	runDryRun     bool
	runScope      string
)

func init() {
	runCmd.Flags().IntVarP(&runCount, "count", "n", 0, "Items to process (defaults to config batch_size)")
	runCmd.Flags().BoolVar(&runRestricted, "restricted", false, "Skip items already in the audit ledger since the last wrap; wrap at most once")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Evaluate only; write nothing and keep the cursor")
	runCmd.Flags().StringVar(&runScope, "scope", "", "Only items of this scope (defaults to config scope_id)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	metrics := observability.NewMetrics(nil)
	rules := cfg.EvaluationRules()
	orch, err := pipeline.New(pipeline.Dependencies{
		Store:                 h.store,
		State:                 newStateStore(cfg),
		Audit:                 newLedger(cfg),
		Remediator:            remediator,
		Metrics:               metrics,
		Logger:                logger,
		Rules:                 &rules,
		Agent:                 cfg.Agent,
		StabilizationAttempts: cfg.StabilizationAttempts,
	})
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	opts := pipeline.RunOptions{
		Count:      runCount,
		Restricted: runRestricted || cfg.Restricted,
		DryRun:     runDryRun,
		ScopeID:    runScope,
	}
	if opts.Count == 0 {
		opts.Count = cfg.BatchSize
	}
	if opts.ScopeID == "" {
		opts.ScopeID = cfg.ScopeID
	}
	out := cmd.OutOrStdout()
	if verbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			fmt.Fprintf(out, "[%s] %s %s\n", e.Step, e.ItemID, e.Message)
		}
	}

	summary, runErr := orch.Run(ctx, opts)
	observability.NewPrinter(out).PrintSummary(summary)
	writeMetrics(metrics, cfg.MetricsPath, summary)

	return runErr
}

// writeMetrics exports the run metrics; failure to write them never fails the run.
func writeMetrics(metrics *observability.Metrics, path string, summary *types.RunSummary) {
	if path == "" || summary == nil || summary.DryRun {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Warn("failed to write metrics", zap.String("path", path), zap.Error(err))
	}
}
