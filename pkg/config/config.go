// Package config defines the application configuration, loaded from
// YAML with environment variable overrides.
package config

import (
	"time"

	"themis-hq/themis/pkg/findings"
	"themis-hq/themis/pkg/policy/catalog"
	"themis-hq/themis/pkg/policy/engine"
	"themis-hq/themis/pkg/policy/pipeline"
)

// Config is the root configuration.
type Config struct {
	// Catalog configures rule discovery.
	Catalog CatalogConfig `yaml:"catalog"`

	// Engine configures the decision engine adapter.
	Engine EngineConfig `yaml:"engine"`

	// Evaluation configures the evaluation orchestrator.
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Findings configures durable report storage.
	Findings FindingsConfig `yaml:"findings"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CatalogConfig configures rule catalog discovery and reloading.
type CatalogConfig struct {
	// Root is the rule catalog root directory.
	Root string `yaml:"root"`

	// Watch enables hot reloading on rule file changes.
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a reload fires.
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// MaxFileSize is the largest rule file accepted, in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// Aliases maps alternate category names to canonical ones.
	Aliases map[string]string `yaml:"aliases"`
}

// EngineConfig configures the decision engine adapter.
type EngineConfig struct {
	// BinaryPath is the engine executable.
	BinaryPath string `yaml:"binary_path"`

	// Timeout bounds a single engine invocation.
	Timeout time.Duration `yaml:"timeout"`

	// QuerySuffix is the rule name queried inside each package.
	QuerySuffix string `yaml:"query_suffix"`
}

// EvaluationConfig configures the orchestrator.
type EvaluationConfig struct {
	// Concurrency bounds concurrent engine invocations.
	Concurrency int `yaml:"concurrency"`

	// Batch enables compound-query batching. Defaults to true; set
	// explicitly to false to always invoke per module.
	Batch *bool `yaml:"batch"`

	// PlaceholdersFail includes placeholder results in aggregate
	// compliance.
	PlaceholdersFail bool `yaml:"placeholders_fail"`
}

// FindingsConfig configures durable report storage.
type FindingsConfig struct {
	// Enabled turns the findings store on.
	Enabled bool `yaml:"enabled"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// RetentionDays is how long runs are kept.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for the retention job.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig configures the prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the metrics HTTP listen address.
	ListenAddress string `yaml:"listen_address"`

	// Path is the metrics HTTP path.
	Path string `yaml:"path"`
}

// LoaderConfig converts the catalog section for the loader.
func (c *Config) LoaderConfig() *catalog.LoaderConfig {
	lc := catalog.DefaultLoaderConfig()
	if c.Catalog.MaxFileSize > 0 {
		lc.MaxFileSize = c.Catalog.MaxFileSize
	}
	if len(c.Catalog.Aliases) > 0 {
		lc.Aliases = c.Catalog.Aliases
	}
	return lc
}

// WatcherConfig converts the catalog section for the watcher.
func (c *Config) WatcherConfig() *catalog.WatcherConfig {
	wc := catalog.DefaultWatcherConfig()
	if c.Catalog.DebounceInterval > 0 {
		wc.DebounceInterval = c.Catalog.DebounceInterval
	}
	return wc
}

// EngineAdapterConfig converts the engine section for the adapter.
func (c *Config) EngineAdapterConfig() *engine.Config {
	return &engine.Config{
		BinaryPath:  c.Engine.BinaryPath,
		Timeout:     c.Engine.Timeout,
		QuerySuffix: c.Engine.QuerySuffix,
	}
}

// OrchestratorConfig converts the evaluation section for the
// orchestrator.
func (c *Config) OrchestratorConfig() *pipeline.Config {
	pc := pipeline.DefaultConfig()
	if c.Evaluation.Concurrency > 0 {
		pc.Concurrency = c.Evaluation.Concurrency
	}
	if c.Evaluation.Batch != nil {
		pc.Batch = *c.Evaluation.Batch
	}
	pc.PlaceholdersFail = c.Evaluation.PlaceholdersFail
	return pc
}

// FindingsStoreConfig converts the findings section for the store.
func (c *Config) FindingsStoreConfig() *findings.Config {
	return &findings.Config{
		Path:          c.Findings.Path,
		RetentionDays: c.Findings.RetentionDays,
		PruneSchedule: c.Findings.PruneSchedule,
	}
}
