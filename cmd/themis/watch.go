package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"themis-hq/themis/pkg/policy/catalog"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the rule catalog and serve metrics",
	Long: `Watch the rule catalog for changes, reloading the snapshot atomically
on every change, and serve prometheus metrics when enabled. Runs until
interrupted.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	loader := catalog.NewLoader(cfg.LoaderConfig(), logger)
	store, report, err := catalog.NewStore(loader, cfg.Catalog.Root)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Catalog loaded (%d modules, version %s)\n", report.ModuleCount, store.Catalog().Version())

	watcher, err := catalog.NewWatcher(store, cfg.WatcherConfig(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Watch(ctx) }()

	var metricsSrv *http.Server
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:    cfg.Telemetry.Metrics.ListenAddress,
			Handler: mux,
		}
		go func() {
			logger.Info("metrics endpoint started",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path,
			)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		fmt.Printf("✓ Metrics on http://%s%s\n", cfg.Telemetry.Metrics.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-watchErr:
		return err
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down...\n", sig)
		cancel()
		if err := watcher.Stop(); err != nil {
			logger.Error("watcher stop failed", "error", err)
		}
		if metricsSrv != nil {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("metrics shutdown failed", "error", err)
			}
		}
		return nil
	}
}
