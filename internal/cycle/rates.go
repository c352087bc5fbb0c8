package cycle

import (
	"context"
	"fmt"
	"time"

	"travel-data-pipeline/internal/collector"
	"travel-data-pipeline/internal/compiler"
	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/ingestion"
	"travel-data-pipeline/internal/publish"
	"travel-data-pipeline/internal/resolver"
	"travel-data-pipeline/internal/storage"
)

// DefaultMonthlyLookback is the number of monthly average phases, current
// month first.
const DefaultMonthlyLookback = 3

// RatePhases returns the phase order of one rate cycle: realtime, daily,
// monthly averages from the current month backwards, yearly. Month keys
// follow the KST calendar.
func RatePhases(now time.Time, monthlyLookback int) []domain.RateType {
	phases := []domain.RateType{domain.Realtime(), domain.DailyAverage()}
	local := now.In(domain.KST)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, domain.KST)
	for i := 0; i < monthlyLookback; i++ {
		phases = append(phases, domain.MonthlyAverage(first.AddDate(0, -i, 0).Format(domain.MonthKeyLayout)))
	}
	return append(phases, domain.YearlyAverage())
}

// RateResult contains results from one rate cycle.
type RateResult struct {
	CycleID     string
	StartedAt   time.Time
	FinishedAt  time.Time
	Phases      []ingestion.PhaseOutcome
	Records     []domain.CombinedCurrencyRecord
	Unknown     []string
	Diagnostics []string
	Errors      []string
}

// RateCycle runs the rate phases in order against one source, pausing
// between phases, then resolves, scores and publishes the records.
type RateCycle struct {
	deps
	publisher       publish.Publisher
	monthlyLookback int
}

// RateCycleOptions contains configuration for creating a RateCycle.
type RateCycleOptions struct {
	CommonOptions
	Publisher       publish.Publisher // nil: records are only returned
	MonthlyLookback int               // default: DefaultMonthlyLookback
}

// NewRateCycle creates a new rate cycle runner.
func NewRateCycle(opts RateCycleOptions) *RateCycle {
	lookback := opts.MonthlyLookback
	if lookback <= 0 {
		lookback = DefaultMonthlyLookback
	}
	return &RateCycle{
		deps:            newDeps(opts.CommonOptions, storage.CycleKindRates),
		publisher:       opts.Publisher,
		monthlyLookback: lookback,
	}
}

// Run executes one rate cycle. A failed phase or publish is recorded in
// RateResult.Errors and the cycle continues. The returned error is set
// only when the cycle could not start or ctx ended it early; the partial
// result is still returned in the latter case.
func (c *RateCycle) Run(ctx context.Context) (*RateResult, error) {
	if c.registry == nil {
		return nil, ErrNoRegistry
	}

	result := &RateResult{CycleID: c.newID(), StartedAt: c.stamp()}
	log := c.logger.With().Str("cycle_id", result.CycleID).Logger()
	log.Info().Msg("rate cycle started")

	// Phase 1: fetch every rate table into the collector
	col := collector.New(c.registry, "")
	var runErr error
	for i, rt := range RatePhases(result.StartedAt, c.monthlyLookback) {
		if err := c.pause(ctx, i); err != nil {
			runErr = fmt.Errorf("rate cycle interrupted before %s: %w", rt, err)
			result.Errors = append(result.Errors, runErr.Error())
			break
		}
		outcome, err := c.manager.IngestRates(ctx, rt, col)
		result.Phases = append(result.Phases, outcome)
		c.recordPhase(string(rt.Kind), outcome)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			if ctx.Err() != nil {
				runErr = fmt.Errorf("rate cycle interrupted during %s: %w", rt, ctx.Err())
				break
			}
		}
	}

	// Phase 2: resolve raw codes onto countries
	snap := col.Snapshot()
	res := resolver.New(resolver.Options{Registry: c.registry, Logger: &log}).ResolveRates(snap)
	result.Unknown = unknownKeys(res.Diagnostics)
	result.Diagnostics = diagnosticStrings(res.Diagnostics)

	// Phase 3: score and compile
	result.Records = compiler.CompileRates(result.CycleID, res, c.stamp())

	// Phase 4: publish
	if c.publisher != nil && len(result.Records) > 0 {
		err := c.publisher.PublishRates(ctx, result.Records)
		c.metrics.RecordPublished(domain.DataTypeExchangeRate, len(result.Records), err)
		if err != nil {
			log.Error().Err(err).Msg("publish failed")
			result.Errors = append(result.Errors, "publish: "+err.Error())
		}
	}

	result.FinishedAt = c.stamp()
	result.Errors = c.finish(context.WithoutCancel(ctx), &storage.CycleRun{
		CycleID:    result.CycleID,
		Kind:       storage.CycleKindRates,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Records:    len(result.Records),
		Unknown:    len(result.Unknown),
		Errors:     result.Errors,
	})

	log.Info().
		Int("records", len(result.Records)).
		Int("coverage_of", c.registry.Len()).
		Int("unknown", len(result.Unknown)).
		Int("errors", len(result.Errors)).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("rate cycle finished")

	return result, runErr
}
