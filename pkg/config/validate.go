package config

import "fmt"

// Validate checks the configuration for invalid values. It assumes
// defaults have already been applied.
func Validate(cfg *Config) error {
	if cfg.Catalog.Root == "" {
		return fmt.Errorf("catalog.root must not be empty")
	}
	if cfg.Catalog.MaxFileSize < 0 {
		return fmt.Errorf("catalog.max_file_size must not be negative")
	}
	if cfg.Catalog.DebounceInterval < 0 {
		return fmt.Errorf("catalog.debounce_interval must not be negative")
	}

	if cfg.Engine.BinaryPath == "" {
		return fmt.Errorf("engine.binary_path must not be empty")
	}
	if cfg.Engine.Timeout <= 0 {
		return fmt.Errorf("engine.timeout must be positive")
	}

	if cfg.Evaluation.Concurrency <= 0 {
		return fmt.Errorf("evaluation.concurrency must be positive")
	}

	if cfg.Findings.Enabled {
		if cfg.Findings.Path == "" {
			return fmt.Errorf("findings.path must not be empty when findings are enabled")
		}
		if cfg.Findings.RetentionDays <= 0 {
			return fmt.Errorf("findings.retention_days must be positive")
		}
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.logging.level must be one of debug, info, warn, error; got %q", cfg.Telemetry.Logging.Level)
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format must be json or text; got %q", cfg.Telemetry.Logging.Format)
	}

	return nil
}
