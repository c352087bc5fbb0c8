// Package main provides the long-running service:
// - Rate cycles (scheduled): realtime, daily, monthly and yearly tables
// - Trend cycles (scheduled): keyword batches against the anchor
// - HTTP: /health, /metrics, /status, /history
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"travel-data-pipeline/internal/app"
	"travel-data-pipeline/internal/config"
	"travel-data-pipeline/internal/logging"
	"travel-data-pipeline/internal/observability"
	"travel-data-pipeline/internal/registry"
	"travel-data-pipeline/internal/reporting"
)

func main() {
	// Load .env file if exists
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	configPath := flag.String("config", os.Getenv("TDP_CONFIG"), "Path to TOML config file (optional)")
	reportDir := flag.String("report-dir", "reports", "Directory for cycle reports (empty disables)")
	metricsAddr := flag.String("metrics-addr", "", "Override metrics.addr")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logger = logger.With().Str("cmd", "server").Logger()

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Registry.Path).Msg("load registry")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, err := app.OpenSinks(ctx, cfg.Sinks, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open sinks")
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn().Err(err).Msg("close sinks")
		}
	}()

	metrics := observability.NewMetrics(observability.DefaultNamespace, nil)
	cycles := app.NewCycles(cfg, reg, sinks, metrics, logger)

	server := NewServer(ServerOptions{
		Rates:         cycles.Rates,
		Trends:        cycles.Trends,
		Runs:          sinks.Runs,
		Reports:       reporting.NewGenerator(reporting.Options{Rates: sinks.Rates, Trends: sinks.Trends, RegistrySize: reg.Len()}),
		ReportDir:     *reportDir,
		RateInterval:  cfg.Schedule.RateInterval,
		TrendInterval: cfg.Schedule.TrendInterval,
		Metrics:       metrics,
		Logger:        logger,
	})

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("initiating graceful shutdown")
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("second signal, forcing immediate shutdown")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Warn().Msg("graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	httpDone := make(chan struct{})
	go func() {
		defer close(httpDone)
		if err := server.ServeHTTP(ctx, cfg.Metrics.Addr); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// Run the schedulers
	err = server.Run(ctx)
	done <- err
	cancel()

	<-httpDone
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("server error")
		return
	}

	logger.Info().Msg("shutdown complete")
}
