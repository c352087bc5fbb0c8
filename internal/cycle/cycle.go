// Package cycle runs complete rate and trend crawl cycles:
// ingestion → resolution → scoring → compilation → publish.
package cycle

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/ingestion"
	"travel-data-pipeline/internal/observability"
	"travel-data-pipeline/internal/resolver"
	"travel-data-pipeline/internal/storage"
)

// ErrNoRegistry is returned by Run when the cycle was built without a registry.
var ErrNoRegistry = errors.New("cycle: registry is required")

// Registry is the registry surface a cycle reads. *registry.Registry satisfies it.
type Registry interface {
	resolver.Registry
	TrendKeywords() []string
	Len() int
}

// deps holds the collaborators shared by both cycle kinds.
type deps struct {
	registry Registry
	manager  *ingestion.Manager
	pacer    *ingestion.Pacer
	runs     storage.CycleRunStore
	metrics  *observability.Metrics
	now      func() time.Time
	newID    func() string
	logger   zerolog.Logger
}

// CommonOptions are the options shared by RateCycleOptions and TrendCycleOptions.
type CommonOptions struct {
	Registry Registry
	Manager  *ingestion.Manager
	Pacer    *ingestion.Pacer      // nil: no pause between phases
	Runs     storage.CycleRunStore // nil: runs are not recorded
	Metrics  *observability.Metrics
	Now      func() time.Time // default: time.Now
	NewID    func() string    // default: uuid.NewString
	Logger   *zerolog.Logger
}

func newDeps(opts CommonOptions, kind string) deps {
	d := deps{
		registry: opts.Registry,
		manager:  opts.Manager,
		pacer:    opts.Pacer,
		runs:     opts.Runs,
		metrics:  opts.Metrics,
		now:      opts.Now,
		newID:    opts.NewID,
		logger:   zerolog.Nop(),
	}
	if d.manager == nil {
		d.manager = ingestion.NewManager(ingestion.ManagerOptions{Logger: opts.Logger})
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.newID == nil {
		d.newID = uuid.NewString
	}
	if opts.Logger != nil {
		d.logger = opts.Logger.With().Str("component", "cycle").Str("kind", kind).Logger()
	}
	return d
}

// pause waits between two phases. The first phase never waits.
func (d *deps) pause(ctx context.Context, index int) error {
	if d.pacer == nil || index == 0 {
		return nil
	}
	wait, err := d.pacer.Pause(ctx)
	if err != nil {
		return err
	}
	d.logger.Debug().Dur("pause", wait).Msg("paced before next phase")
	return nil
}

// recordPhase logs and counts one finished phase.
func (d *deps) recordPhase(kind string, outcome ingestion.PhaseOutcome) {
	d.metrics.RecordPhase(kind, string(outcome.Status), outcome.Duration)
	if outcome.Status == ingestion.PhaseStatusOK {
		d.metrics.RecordObservations(kind, outcome.Rows)
		d.logger.Info().
			Str("phase", outcome.Name).
			Int("rows", outcome.Rows).
			Int("attempts", outcome.Attempts).
			Dur("duration", outcome.Duration).
			Msg("phase completed")
	}
}

// finish stores the run bookkeeping row and records cycle metrics.
// A storage failure is appended to errs.
func (d *deps) finish(ctx context.Context, run *storage.CycleRun) []string {
	errs := run.Errors
	if d.runs != nil {
		if err := d.runs.Insert(ctx, run); err != nil {
			d.logger.Error().Err(err).Str("cycle_id", run.CycleID).Msg("failed to record cycle run")
			errs = append(errs, "record run: "+err.Error())
		}
	}
	d.metrics.RecordUnknown(run.Kind, run.Unknown)
	d.metrics.RecordCycle(run.Kind, len(errs) == 0, run.FinishedAt.Sub(run.StartedAt), run.FinishedAt)
	return errs
}

// diagnosticStrings renders diagnostics for results and logs.
func diagnosticStrings(diags []resolver.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

// unknownKeys returns the keys of unknown-entity diagnostics.
func unknownKeys(diags []resolver.Diagnostic) []string {
	var out []string
	for _, d := range diags {
		if d.Kind == resolver.DiagUnknownCurrency || d.Kind == resolver.DiagUnknownKeyword {
			out = append(out, d.Key)
		}
	}
	return out
}

// stamp returns the cycle clock reading in UTC.
func (d *deps) stamp() time.Time {
	return d.now().UTC()
}
