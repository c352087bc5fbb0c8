package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/collector"
	"travel-data-pipeline/internal/domain"
)

// ErrPhaseSkipped is wrapped by every error returned for an aborted phase.
var ErrPhaseSkipped = errors.New("phase skipped")

// DefaultPhaseTimeout bounds one phase including its retries.
const DefaultPhaseTimeout = 20 * time.Minute

// PhaseStatus is the outcome class of one fetch phase.
type PhaseStatus string

const (
	PhaseStatusOK      PhaseStatus = "OK"
	PhaseStatusFailed  PhaseStatus = "FAILED"
	PhaseStatusTimeout PhaseStatus = "TIMEOUT"
)

// PhaseOutcome describes one executed phase.
type PhaseOutcome struct {
	Name     string
	Status   PhaseStatus
	Rows     int
	Attempts int
	Duration time.Duration
	Err      string
}

// Manager moves rows from sources into a cycle's collector. Each phase
// runs under its own timeout and retry policy; a failed phase leaves the
// collector without that phase's rows.
type Manager struct {
	rateSource   RateSource
	trendSource  TrendSource
	retry        RetryPolicy
	phaseTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger
}

// ManagerOptions contains configuration for creating a Manager.
type ManagerOptions struct {
	RateSource   RateSource
	TrendSource  TrendSource
	Retry        RetryPolicy      // zero value: DefaultRetryPolicy
	PhaseTimeout time.Duration    // default: DefaultPhaseTimeout
	Now          func() time.Time // default: time.Now
	Logger       *zerolog.Logger
}

// NewManager creates a new ingestion manager.
func NewManager(opts ManagerOptions) *Manager {
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryPolicy()
	}

	timeout := opts.PhaseTimeout
	if timeout == 0 {
		timeout = DefaultPhaseTimeout
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "ingestion").Logger()
	}

	return &Manager{
		rateSource:   opts.RateSource,
		trendSource:  opts.TrendSource,
		retry:        retry,
		phaseTimeout: timeout,
		now:          now,
		logger:       logger,
	}
}

// IngestRates fetches one rate table and records its rows.
// Rows are recorded in deterministic order (see SortRateObservations).
func (m *Manager) IngestRates(ctx context.Context, rt domain.RateType, c *collector.Collector) (PhaseOutcome, error) {
	if m.rateSource == nil {
		return PhaseOutcome{Name: rt.String(), Status: PhaseStatusFailed, Err: "no rate source"},
			fmt.Errorf("%w: %s: no rate source", ErrPhaseSkipped, rt)
	}

	var rows []domain.RateObservation
	outcome, err := m.runPhase(ctx, rt.String(), func(ctx context.Context) error {
		fetched, err := m.rateSource.FetchRates(ctx, rt)
		if err != nil {
			return err
		}
		rows = fetched
		return nil
	})
	if err != nil {
		return outcome, err
	}

	SortRateObservations(rows)
	rowErrs := c.RecordObservations(rt, rows)
	for _, rowErr := range rowErrs {
		m.logger.Warn().Err(rowErr).Str("phase", outcome.Name).Msg("row not recorded")
	}
	outcome.Rows = len(rows) - len(rowErrs)
	return outcome, nil
}

// IngestTrendBatch fetches one keyword batch and records its rows,
// including the anchor row.
func (m *Manager) IngestTrendBatch(ctx context.Context, batch domain.TrendBatch, c *collector.Collector) (PhaseOutcome, error) {
	name := "TREND(" + batch.ID + ")"
	if m.trendSource == nil {
		return PhaseOutcome{Name: name, Status: PhaseStatusFailed, Err: "no trend source"},
			fmt.Errorf("%w: %s: no trend source", ErrPhaseSkipped, name)
	}

	var rows []domain.TrendObservation
	outcome, err := m.runPhase(ctx, name, func(ctx context.Context) error {
		fetched, err := m.trendSource.FetchTrends(ctx, batch)
		if err != nil {
			return err
		}
		rows = fetched
		return nil
	})
	if err != nil {
		return outcome, err
	}

	at := domain.NewTimestamps(m.now())
	for _, row := range rows {
		if err := c.RecordTrend(batch.ID, row.Keyword, row.RawGrowth, row.CurrentInterest, at); err != nil {
			m.logger.Warn().Err(err).Str("phase", name).Msg("trend row not recorded")
			continue
		}
		outcome.Rows++
	}
	return outcome, nil
}

// runPhase runs fetch under the phase timeout with retries.
func (m *Manager) runPhase(ctx context.Context, name string, fetch func(ctx context.Context) error) (PhaseOutcome, error) {
	start := m.now()
	phaseCtx, cancel := context.WithTimeout(ctx, m.phaseTimeout)
	defer cancel()

	attempts, err := Retry(phaseCtx, m.retry, m.logger, name, fetch)
	outcome := PhaseOutcome{
		Name:     name,
		Status:   PhaseStatusOK,
		Attempts: attempts,
		Duration: m.now().Sub(start),
	}
	if err == nil {
		return outcome, nil
	}

	outcome.Status = PhaseStatusFailed
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(phaseCtx.Err(), context.DeadlineExceeded) {
		outcome.Status = PhaseStatusTimeout
	}
	outcome.Err = err.Error()
	m.logger.Error().
		Err(err).
		Str("phase", name).
		Str("status", string(outcome.Status)).
		Int("attempts", attempts).
		Msg("phase skipped")
	return outcome, fmt.Errorf("%w: %s: %v", ErrPhaseSkipped, name, err)
}
