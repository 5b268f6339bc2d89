// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/moldovancsaba/amanoba-sub006/internal/evaluation"
	"github.com/moldovancsaba/amanoba-sub006/internal/retry"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// StoreConfig selects and locates the item store.
type StoreConfig struct {
	Driver      string `json:"driver,omitempty" yaml:"driver,omitempty" validate:"omitempty,oneof=postgres sqlite memory"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"required_if=Driver postgres"`
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"required_if=Driver sqlite"`
	FixturePath string `json:"fixture_path,omitempty" yaml:"fixture_path,omitempty" validate:"required_if=Driver memory"` // JSON array of items
}

// RetryConfig bounds retries of store and model calls.
type RetryConfig struct {
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"gte=0,lte=20"`
	BaseDelayMS int `json:"base_delay_ms,omitempty" yaml:"base_delay_ms,omitempty" validate:"gte=0"`
}

// GenerationConfig controls candidate generation for duplicates.
type GenerationConfig struct {
	Enabled        bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	APIKey         string `json:"api_key,omitempty" yaml:"api_key,omitempty" validate:"required_if=Enabled true"`
	CandidateCount int    `json:"candidate_count,omitempty" yaml:"candidate_count,omitempty" validate:"gte=0,lte=10"`
	Tier           string `json:"tier,omitempty" yaml:"tier,omitempty" validate:"omitempty,oneof=lite standard advanced"`
	Model          string `json:"model,omitempty" yaml:"model,omitempty"` // Overrides the model of Tier
}

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	Store StoreConfig `json:"store" yaml:"store"`

	// Paths
	StatePath   string `json:"state_path,omitempty" yaml:"state_path,omitempty"`
	AuditPath   string `json:"audit_path,omitempty" yaml:"audit_path,omitempty"`
	MetricsPath string `json:"metrics_path,omitempty" yaml:"metrics_path,omitempty"` // Prometheus textfile output

	// Sweep behavior
	Agent                 string            `json:"agent,omitempty" yaml:"agent,omitempty"`
	ScopeID               string            `json:"scope_id,omitempty" yaml:"scope_id,omitempty"`
	BatchSize             int               `json:"batch_size,omitempty" yaml:"batch_size,omitempty" validate:"gte=0"`
	StabilizationAttempts int               `json:"stabilization_attempts,omitempty" yaml:"stabilization_attempts,omitempty" validate:"gte=0,lte=10"`
	Restricted            bool              `json:"restricted,omitempty" yaml:"restricted,omitempty"`
	Rules                 *evaluation.Rules `json:"rules,omitempty" yaml:"rules,omitempty"`

	Retry      RetryConfig      `json:"retry" yaml:"retry"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	rules := evaluation.DefaultRules()
	policy := retry.DefaultPolicy()
	return Config{
		Store:                 StoreConfig{Driver: DriverPostgres},
		StatePath:             filepath.Join(".sweep", "run_state.json"),
		AuditPath:             filepath.Join(".sweep", "audit.md"),
		Agent:                 "sweep-agent",
		BatchSize:             25,
		StabilizationAttempts: 3,
		Rules:                 &rules,
		Retry: RetryConfig{
			MaxAttempts: policy.MaxAttempts,
			BaseDelayMS: int(policy.BaseDelay / time.Millisecond),
		},
		Generation: GenerationConfig{
			CandidateCount: 3,
			Tier:           "standard",
		},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Store.Driver == "" {
		result.Store.Driver = defaults.Store.Driver
	}
	if result.Store.DatabaseURL == "" {
		result.Store.DatabaseURL = defaults.Store.DatabaseURL
	}
	if result.Store.SQLitePath == "" {
		result.Store.SQLitePath = defaults.Store.SQLitePath
	}
	if result.Store.FixturePath == "" {
		result.Store.FixturePath = defaults.Store.FixturePath
	}
	if result.StatePath == "" {
		result.StatePath = defaults.StatePath
	}
	if result.AuditPath == "" {
		result.AuditPath = defaults.AuditPath
	}
	if result.MetricsPath == "" {
		result.MetricsPath = defaults.MetricsPath
	}
	if result.Agent == "" {
		result.Agent = defaults.Agent
	}
	if result.ScopeID == "" {
		result.ScopeID = defaults.ScopeID
	}
	if result.Generation.APIKey == "" {
		result.Generation.APIKey = defaults.Generation.APIKey
	}
	if result.Generation.Tier == "" {
		result.Generation.Tier = defaults.Generation.Tier
	}
	if result.Generation.Model == "" {
		result.Generation.Model = defaults.Generation.Model
	}

	// Int fields: use default if zero
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.StabilizationAttempts == 0 {
		result.StabilizationAttempts = defaults.StabilizationAttempts
	}
	if result.Retry.MaxAttempts == 0 {
		result.Retry.MaxAttempts = defaults.Retry.MaxAttempts
	}
	if result.Retry.BaseDelayMS == 0 {
		result.Retry.BaseDelayMS = defaults.Retry.BaseDelayMS
	}
	if result.Generation.CandidateCount == 0 {
		result.Generation.CandidateCount = defaults.Generation.CandidateCount
	}

	if result.Rules == nil && defaults.Rules != nil {
		rules := *defaults.Rules
		result.Rules = &rules
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills secrets from the environment when the file leaves them empty.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.Generation.APIKey == "" {
		c.Generation.APIKey = getenv("GEMINI_API_KEY")
	}
}

// RetryPolicy converts the retry settings.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   time.Duration(c.Retry.BaseDelayMS) * time.Millisecond,
	}
}

// EvaluationRules returns the configured rules, or the defaults.
func (c *Config) EvaluationRules() evaluation.Rules {
	if c.Rules == nil {
		return evaluation.DefaultRules()
	}
	return *c.Rules
}
