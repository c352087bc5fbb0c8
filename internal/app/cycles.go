package app

import (
	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/config"
	"travel-data-pipeline/internal/cycle"
	"travel-data-pipeline/internal/hana"
	"travel-data-pipeline/internal/ingestion"
	"travel-data-pipeline/internal/observability"
	"travel-data-pipeline/internal/trends"
)

// Cycles holds the two cycle runners of a process.
type Cycles struct {
	Rates  *cycle.RateCycle
	Trends *cycle.TrendCycle
}

// NewCycles builds both cycle runners against the live upstreams:
// the rate table scraper and the trend export directory.
func NewCycles(cfg *config.Config, reg cycle.Registry, sinks *Sinks, metrics *observability.Metrics, logger zerolog.Logger) *Cycles {
	rateSource := hana.NewClient(cfg.Hana.Endpoint,
		hana.WithTimeout(cfg.Hana.Timeout),
		hana.WithUserAgent(cfg.Hana.UserAgent),
		hana.WithLogger(logger),
	)
	trendSource := trends.NewFileSource(trends.FileSourceOptions{
		Dir:    cfg.Trends.SourceDir,
		Logger: &logger,
	})

	manager := ingestion.NewManager(ingestion.ManagerOptions{
		RateSource:   rateSource,
		TrendSource:  trendSource,
		Retry:        cfg.Retry,
		PhaseTimeout: cfg.Pacing.PhaseTimeout,
		Logger:       &logger,
	})

	common := cycle.CommonOptions{
		Registry: reg,
		Manager:  manager,
		Pacer:    ingestion.NewPacer(cfg.Pacing.MinPause, cfg.Pacing.MaxPause, nil, nil),
		Runs:     sinks.Runs,
		Metrics:  metrics,
		Logger:   &logger,
	}

	return &Cycles{
		Rates: cycle.NewRateCycle(cycle.RateCycleOptions{
			CommonOptions:   common,
			Publisher:       sinks.Publisher,
			MonthlyLookback: cfg.Rates.MonthlyLookback,
		}),
		Trends: cycle.NewTrendCycle(cycle.TrendCycleOptions{
			CommonOptions: common,
			Publisher:     sinks.Publisher,
			Anchor:        cfg.Trends.Anchor,
			BatchSize:     cfg.Trends.BatchSize,
			Parallelism:   cfg.Trends.Parallelism,
		}),
	}
}
