package stub

import (
	"context"
	"sync"

	"travel-data-pipeline/internal/domain"
)

// StubRateSource returns fixed in-memory rows per rate phase for testing.
// Implements ingestion.RateSource interface.
type StubRateSource struct {
	mu     sync.Mutex
	rows   map[string][]domain.RateObservation // keyed by RateType.String()
	errs   map[string][]error                  // consumed one per call
	calls  map[string]int
	blocks map[string]bool
}

// NewStubRateSource creates an empty stub rate source.
func NewStubRateSource() *StubRateSource {
	return &StubRateSource{
		rows:   make(map[string][]domain.RateObservation),
		errs:   make(map[string][]error),
		calls:  make(map[string]int),
		blocks: make(map[string]bool),
	}
}

// WithRows sets the rows returned for a phase.
func (s *StubRateSource) WithRows(rt domain.RateType, rows ...domain.RateObservation) *StubRateSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rt.String()] = rows
	return s
}

// WithErrors queues errors returned by the next calls for a phase.
func (s *StubRateSource) WithErrors(rt domain.RateType, errs ...error) *StubRateSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[rt.String()] = append(s.errs[rt.String()], errs...)
	return s
}

// Blocking makes a phase wait until its context is done.
func (s *StubRateSource) Blocking(rt domain.RateType) *StubRateSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[rt.String()] = true
	return s
}

// Calls returns how often a phase was fetched.
func (s *StubRateSource) Calls(rt domain.RateType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[rt.String()]
}

// FetchRates returns copies of the configured rows.
func (s *StubRateSource) FetchRates(ctx context.Context, rt domain.RateType) ([]domain.RateObservation, error) {
	key := rt.String()

	s.mu.Lock()
	s.calls[key]++
	block := s.blocks[key]
	var err error
	if queued := s.errs[key]; len(queued) > 0 {
		err = queued[0]
		s.errs[key] = queued[1:]
	}
	rows := make([]domain.RateObservation, len(s.rows[key]))
	copy(rows, s.rows[key])
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// StubTrendSource returns fixed signals per keyword for testing.
// Implements ingestion.TrendSource interface.
type StubTrendSource struct {
	mu      sync.Mutex
	signals map[string]domain.TrendObservation // keyed by keyword
	failing map[string]error                   // keyed by batch ID
	batches []string
}

// NewStubTrendSource creates a stub trend source from per-keyword signals.
func NewStubTrendSource(signals ...domain.TrendObservation) *StubTrendSource {
	s := &StubTrendSource{
		signals: make(map[string]domain.TrendObservation),
		failing: make(map[string]error),
	}
	for _, sig := range signals {
		s.signals[sig.Keyword] = sig
	}
	return s
}

// FailBatch makes every fetch of a batch return err.
func (s *StubTrendSource) FailBatch(batchID string, err error) *StubTrendSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[batchID] = err
	return s
}

// Batches returns the IDs of fetched batches in call order.
func (s *StubTrendSource) Batches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.batches))
	copy(out, s.batches)
	return out
}

// FetchTrends returns the configured signal of every batch keyword that has one.
func (s *StubTrendSource) FetchTrends(_ context.Context, batch domain.TrendBatch) ([]domain.TrendObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batches = append(s.batches, batch.ID)
	if err := s.failing[batch.ID]; err != nil {
		return nil, err
	}

	var out []domain.TrendObservation
	for _, kw := range batch.AllKeywords() {
		if sig, ok := s.signals[kw]; ok {
			sig.BatchID = batch.ID
			out = append(out, sig)
		}
	}
	return out, nil
}
