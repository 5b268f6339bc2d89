package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/moldovancsaba/amanoba-sub006/internal/audit"
	"github.com/moldovancsaba/amanoba-sub006/internal/config"
	"github.com/moldovancsaba/amanoba-sub006/internal/cursor"
	"github.com/moldovancsaba/amanoba-sub006/internal/db"
	"github.com/moldovancsaba/amanoba-sub006/internal/dedup"
	"github.com/moldovancsaba/amanoba-sub006/internal/generation"
	"github.com/moldovancsaba/amanoba-sub006/internal/itemstore"
	"github.com/moldovancsaba/amanoba-sub006/internal/llm"
	"github.com/moldovancsaba/amanoba-sub006/internal/quality"
)

// loadConfig reads --config (if any), fills defaults and environment
// fallbacks, then validates.
func loadConfig() (*config.Config, error) {
	cfg := &config.Config{}
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(config.Defaults())
	merged.ApplyEnv(os.Getenv)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// storeHandle is an opened item store with its lesson source.
type storeHandle struct {
	store   itemstore.Store
	lessons dedup.LessonSource
	raw     any // the unwrapped backend
	close   func()
}

// openStore opens the configured backend. Database backends are wrapped in
// bounded retry; the memory backend serves a fixture file and keeps writes in process.
func openStore(ctx context.Context, cfg *config.Config) (*storeHandle, error) {
	policy := cfg.RetryPolicy()

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		database, err := db.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &storeHandle{
			store:   itemstore.NewRetryingStore(database, policy),
			lessons: database,
			raw:     database,
			close:   database.Close,
		}, nil

	case config.DriverSQLite:
		database, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &storeHandle{
			store:   itemstore.NewRetryingStore(database, policy),
			lessons: database,
			raw:     database,
			close:   func() { _ = database.Close() },
		}, nil

	case config.DriverMemory:
		mem, err := itemstore.LoadMemoryStore(cfg.Store.FixturePath)
		if err != nil {
			return nil, err
		}
		return &storeHandle{store: mem, lessons: mem, raw: mem, close: func() {}}, nil
	}

	return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
}

// newRemediator builds the duplicate remediator. With generation enabled it
// uses the Gemini-backed generator and the quality validator; otherwise only
// the deterministic fallback.
func newRemediator(ctx context.Context, cfg *config.Config, lessons dedup.LessonSource) (*dedup.Remediator, func(), error) {
	opts := dedup.Options{
		Lessons:        lessons,
		CandidateCount: cfg.Generation.CandidateCount,
		Logger:         logger,
	}
	if !cfg.Generation.Enabled {
		return dedup.NewRemediator(opts), func() {}, nil
	}

	tier, err := llm.ParseTier(cfg.Generation.Tier)
	if err != nil {
		return nil, nil, err
	}
	llmConfig := llm.DefaultConfig()
	if cfg.Generation.Model != "" {
		llmConfig = llmConfig.WithModel(tier, cfg.Generation.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.Generation.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	rules := cfg.EvaluationRules()
	opts.Generator = generation.NewGenerator(client, generation.Options{
		Tier:   tier,
		Rules:  rules,
		Retry:  cfg.RetryPolicy(),
		Logger: logger,
	})
	opts.Validator = quality.New(rules)

	logger.Debug("candidate generation enabled",
		zap.String("model", llmConfig.GetModel(tier)),
		zap.Int("candidates", cfg.Generation.CandidateCount))

	return dedup.NewRemediator(opts), func() { _ = client.Close() }, nil
}

func newStateStore(cfg *config.Config) *cursor.FileStateStore {
	return cursor.NewFileStateStore(cfg.StatePath)
}

func newLedger(cfg *config.Config) *audit.Ledger {
	return audit.NewLedger(cfg.AuditPath)
}
