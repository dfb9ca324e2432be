package config

import "time"

// ApplyDefaults fills unset configuration fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Catalog.Root == "" {
		cfg.Catalog.Root = "./policies"
	}
	if cfg.Catalog.DebounceInterval == 0 {
		cfg.Catalog.DebounceInterval = 250 * time.Millisecond
	}
	if cfg.Catalog.MaxFileSize == 0 {
		cfg.Catalog.MaxFileSize = 1 << 20
	}

	if cfg.Engine.BinaryPath == "" {
		cfg.Engine.BinaryPath = "opa"
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = 30 * time.Second
	}
	if cfg.Engine.QuerySuffix == "" {
		cfg.Engine.QuerySuffix = "report_output"
	}

	if cfg.Evaluation.Concurrency == 0 {
		cfg.Evaluation.Concurrency = 4
	}
	if cfg.Evaluation.Batch == nil {
		batch := true
		cfg.Evaluation.Batch = &batch
	}

	if cfg.Findings.Path == "" {
		cfg.Findings.Path = "themis.db"
	}
	if cfg.Findings.RetentionDays == 0 {
		cfg.Findings.RetentionDays = 90
	}
	if cfg.Findings.PruneSchedule == "" {
		cfg.Findings.PruneSchedule = "0 3 * * *"
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = ":9090"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
}
