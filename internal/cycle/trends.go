package cycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"travel-data-pipeline/internal/collector"
	"travel-data-pipeline/internal/compiler"
	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/ingestion"
	"travel-data-pipeline/internal/publish"
	"travel-data-pipeline/internal/resolver"
	"travel-data-pipeline/internal/scoring"
	"travel-data-pipeline/internal/storage"
	"travel-data-pipeline/internal/trends"
)

// TrendResult contains results from one trend cycle.
type TrendResult struct {
	CycleID     string
	StartedAt   time.Time
	FinishedAt  time.Time
	Mode        domain.ScoringMode
	Batches     []domain.TrendBatch
	Phases      []ingestion.PhaseOutcome // one per batch, in batch order
	Records     []domain.TrendScoreRecord
	Unknown     []string
	Diagnostics []string
	Errors      []string
}

// TrendCycle fetches every keyword batch, scores all countries with one
// mode and publishes the records.
type TrendCycle struct {
	deps
	publisher   publish.Publisher
	anchor      string
	batchSize   int
	parallelism int
}

// TrendCycleOptions contains configuration for creating a TrendCycle.
type TrendCycleOptions struct {
	CommonOptions
	Publisher   publish.Publisher // nil: records are only returned
	Anchor      string            // default: domain.DefaultAnchorKeyword
	BatchSize   int               // default: trends.DefaultBatchSize
	Parallelism int               // default: 1
}

// NewTrendCycle creates a new trend cycle runner.
func NewTrendCycle(opts TrendCycleOptions) *TrendCycle {
	c := &TrendCycle{
		deps:        newDeps(opts.CommonOptions, storage.CycleKindTrends),
		publisher:   opts.Publisher,
		anchor:      strings.TrimSpace(opts.Anchor),
		batchSize:   opts.BatchSize,
		parallelism: opts.Parallelism,
	}
	if c.anchor == "" {
		c.anchor = domain.DefaultAnchorKeyword
	}
	if c.batchSize < 2 {
		c.batchSize = trends.DefaultBatchSize
	}
	if c.parallelism < 1 {
		c.parallelism = 1
	}
	return c
}

// Run executes one trend cycle. Batches may finish in any order; the
// collector merges by keyword and the result is ordered by country. The
// returned error is set only when the cycle could not start or ctx ended
// it early.
func (c *TrendCycle) Run(ctx context.Context) (*TrendResult, error) {
	if c.registry == nil {
		return nil, ErrNoRegistry
	}

	result := &TrendResult{CycleID: c.newID(), StartedAt: c.stamp()}
	log := c.logger.With().Str("cycle_id", result.CycleID).Logger()

	result.Batches = trends.BuildBatches(c.registry.TrendKeywords(), c.anchor, c.batchSize)
	log.Info().Int("batches", len(result.Batches)).Int("parallelism", c.parallelism).Msg("trend cycle started")

	// Phase 1: fetch batches with bounded parallelism
	col := collector.New(c.registry, c.anchor)
	outcomes := make([]ingestion.PhaseOutcome, len(result.Batches))
	batchErrs := make([]error, len(result.Batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for i, batch := range result.Batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := c.pause(gctx, i); err != nil {
				return err
			}
			outcomes[i], batchErrs[i] = c.manager.IngestTrendBatch(gctx, batch, col)
			return nil
		})
	}
	_ = g.Wait()

	var runErr error
	for i, outcome := range outcomes {
		if outcome.Name == "" {
			continue
		}
		result.Phases = append(result.Phases, outcome)
		c.recordPhase("TREND", outcome)
		if batchErrs[i] != nil {
			result.Errors = append(result.Errors, batchErrs[i].Error())
		}
	}
	if err := ctx.Err(); err != nil {
		runErr = fmt.Errorf("trend cycle interrupted: %w", err)
		result.Errors = append(result.Errors, runErr.Error())
	}

	// Phase 2: resolve keywords and choose one scoring mode for the cycle
	snap := col.Snapshot()
	res := resolver.New(resolver.Options{Registry: c.registry, Logger: &log}).ResolveTrends(snap)
	result.Unknown = unknownKeys(res.Diagnostics)
	result.Diagnostics = diagnosticStrings(res.Diagnostics)

	meanAnchor, anchorSeen := snap.MeanAnchorGrowth()
	result.Mode = scoring.SelectMode(meanAnchor, anchorSeen)
	if result.Mode == domain.ScoringModeRelative {
		log.Warn().
			Bool("anchor_observed", anchorSeen).
			Float64("mean_anchor_growth", meanAnchor).
			Msg("anchor unusable, scoring relative to this cycle")
	}

	// Phase 3: score and compile
	result.Records = compiler.CompileTrends(result.CycleID, res, result.Mode, c.stamp())

	// Phase 4: publish
	if c.publisher != nil && len(result.Records) > 0 {
		err := c.publisher.PublishTrends(ctx, result.Records)
		c.metrics.RecordPublished(domain.DataTypeGoogleTrend, len(result.Records), err)
		if err != nil {
			log.Error().Err(err).Msg("publish failed")
			result.Errors = append(result.Errors, "publish: "+err.Error())
		}
	}

	result.FinishedAt = c.stamp()
	result.Errors = c.finish(context.WithoutCancel(ctx), &storage.CycleRun{
		CycleID:    result.CycleID,
		Kind:       storage.CycleKindTrends,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Records:    len(result.Records),
		Unknown:    len(result.Unknown),
		Errors:     result.Errors,
	})

	log.Info().
		Str("mode", string(result.Mode)).
		Int("records", len(result.Records)).
		Int("unknown", len(result.Unknown)).
		Int("errors", len(result.Errors)).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("trend cycle finished")

	return result, runErr
}
