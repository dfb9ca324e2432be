package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults
// and validates the result. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with all defaults applied and no
// file loaded.
func Default() *Config {
	var cfg Config
	ApplyDefaults(&cfg)
	return &cfg
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention THEMIS_SECTION_FIELD (e.g. THEMIS_CATALOG_ROOT) and take
// precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies THEMIS_SECTION_FIELD environment variable
// overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Catalog overrides
	if val := os.Getenv("THEMIS_CATALOG_ROOT"); val != "" {
		cfg.Catalog.Root = val
	}
	if val := os.Getenv("THEMIS_CATALOG_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Catalog.Watch = b
		}
	}
	if val := os.Getenv("THEMIS_CATALOG_DEBOUNCE_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Catalog.DebounceInterval = d
		}
	}

	// Engine overrides
	if val := os.Getenv("THEMIS_ENGINE_BINARY_PATH"); val != "" {
		cfg.Engine.BinaryPath = val
	}
	if val := os.Getenv("THEMIS_ENGINE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Engine.Timeout = d
		}
	}
	if val := os.Getenv("THEMIS_ENGINE_QUERY_SUFFIX"); val != "" {
		cfg.Engine.QuerySuffix = val
	}

	// Evaluation overrides
	if val := os.Getenv("THEMIS_EVALUATION_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Evaluation.Concurrency = i
		}
	}
	if val := os.Getenv("THEMIS_EVALUATION_BATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evaluation.Batch = &b
		}
	}
	if val := os.Getenv("THEMIS_EVALUATION_PLACEHOLDERS_FAIL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evaluation.PlaceholdersFail = b
		}
	}

	// Findings overrides
	if val := os.Getenv("THEMIS_FINDINGS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Findings.Enabled = b
		}
	}
	if val := os.Getenv("THEMIS_FINDINGS_PATH"); val != "" {
		cfg.Findings.Path = val
	}
	if val := os.Getenv("THEMIS_FINDINGS_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Findings.RetentionDays = i
		}
	}
	if val := os.Getenv("THEMIS_FINDINGS_PRUNE_SCHEDULE"); val != "" {
		cfg.Findings.PruneSchedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("THEMIS_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("THEMIS_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("THEMIS_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("THEMIS_TELEMETRY_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
	if val := os.Getenv("THEMIS_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
