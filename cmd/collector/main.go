// Package main runs rate and trend cycles once and exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

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
	kind := flag.String("kind", "all", "Cycle kind to run: rates, trends or all")
	outputDir := flag.String("output-dir", "", "Override sinks.output_dir")
	reportDir := flag.String("report-dir", "reports", "Directory for cycle reports (empty disables)")
	flag.Parse()

	switch *kind {
	case "rates", "trends", "all":
	default:
		fmt.Fprintf(os.Stderr, "--kind must be rates, trends or all, got %q\n", *kind)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *outputDir != "" {
		cfg.Sinks.OutputDir = *outputDir
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logger = logger.With().Str("cmd", "collector").Logger()

	if err := run(cfg, *kind, *reportDir, logger); err != nil {
		logger.Error().Err(err).Msg("collector failed")
		closer.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, kind, reportDir string, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		return fmt.Errorf("load registry: %w", err)
	}
	logger.Info().Str("path", cfg.Registry.Path).Int("countries", reg.Len()).Msg("registry loaded")

	sinks, err := app.OpenSinks(ctx, cfg.Sinks, logger)
	if err != nil {
		return fmt.Errorf("open sinks: %w", err)
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			logger.Warn().Err(err).Msg("close sinks")
		}
	}()

	metrics := observability.NewMetrics(observability.DefaultNamespace, nil)
	cycles := app.NewCycles(cfg, reg, sinks, metrics, logger)
	gen := reporting.NewGenerator(reporting.Options{
		Rates:        sinks.Rates,
		Trends:       sinks.Trends,
		RegistrySize: reg.Len(),
	})

	failed := false

	if kind == "rates" || kind == "all" {
		res, err := cycles.Rates.Run(ctx)
		if res != nil {
			logger.Info().
				Str("cycle_id", res.CycleID).
				Int("records", len(res.Records)).
				Int("unknown", len(res.Unknown)).
				Int("errors", len(res.Errors)).
				Msg("rate cycle finished")
			failed = failed || len(res.Errors) > 0
			writeReport(logger, reportDir, func() ([]string, error) { return gen.WriteRateReport(reportDir, res) })
		}
		if err != nil {
			return fmt.Errorf("rate cycle: %w", err)
		}
	}

	if kind == "trends" || kind == "all" {
		res, err := cycles.Trends.Run(ctx)
		if res != nil {
			logger.Info().
				Str("cycle_id", res.CycleID).
				Str("mode", string(res.Mode)).
				Int("records", len(res.Records)).
				Int("unknown", len(res.Unknown)).
				Int("errors", len(res.Errors)).
				Msg("trend cycle finished")
			failed = failed || len(res.Errors) > 0
			writeReport(logger, reportDir, func() ([]string, error) { return gen.WriteTrendReport(reportDir, res) })
		}
		if err != nil {
			return fmt.Errorf("trend cycle: %w", err)
		}
	}

	if failed {
		logger.Warn().Msg("finished with partial results, see cycle errors")
	}
	return nil
}

func writeReport(logger zerolog.Logger, dir string, write func() ([]string, error)) {
	if dir == "" {
		return
	}
	paths, err := write()
	if err != nil {
		logger.Error().Err(err).Msg("write report")
		return
	}
	logger.Info().Strs("files", paths).Msg("report written")
}
