package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"themis-hq/themis/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "themis",
	Short: "Themis - compliance evaluation engine for AI interactions",
	Long: `Themis evaluates AI application interaction records against versioned
compliance rule modules through an external decision engine.

It provides:
  - Rule catalog discovery with per-subcategory version selection
  - Dependency-closed bundle resolution with cycle detection
  - Concurrent policy evaluation with per-module failure isolation
  - Canonical metric extraction from evolving evaluator outputs
  - Durable findings storage for audit`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "themis.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration file with environment overrides,
// falling back to defaults when no file exists at the default path.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if !rootCmd.PersistentFlags().Changed("config") {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("config file %q not found", cfgFile)
	}
	return config.LoadConfigWithEnvOverrides(cfgFile)
}

// setupLogger builds the process logger from the telemetry section and
// installs it as the slog default.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Telemetry.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Telemetry.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
