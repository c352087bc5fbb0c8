package publish

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

// StorePublisher persists records into record stores. Either store may be
// nil, in which case that record kind is skipped.
type StorePublisher struct {
	rates  storage.RateRecordStore
	trends storage.TrendRecordStore
	logger zerolog.Logger
}

// StorePublisherOptions contains configuration for creating a StorePublisher.
type StorePublisherOptions struct {
	Rates  storage.RateRecordStore
	Trends storage.TrendRecordStore
	Logger *zerolog.Logger
}

// NewStorePublisher creates a new store publisher.
func NewStorePublisher(opts StorePublisherOptions) *StorePublisher {
	p := &StorePublisher{rates: opts.Rates, trends: opts.Trends, logger: zerolog.Nop()}
	if opts.Logger != nil {
		p.logger = opts.Logger.With().Str("component", "publish").Str("sink", "store").Logger()
	}
	return p
}

// PublishRates inserts the records. A cycle that is already stored is
// treated as published.
func (p *StorePublisher) PublishRates(ctx context.Context, records []domain.CombinedCurrencyRecord) error {
	if p.rates == nil || len(records) == 0 {
		return nil
	}
	ptrs := make([]*domain.CombinedCurrencyRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	return p.handle(p.rates.InsertBulk(ctx, ptrs), "rate", len(records))
}

// PublishTrends inserts the records. A cycle that is already stored is
// treated as published.
func (p *StorePublisher) PublishTrends(ctx context.Context, records []domain.TrendScoreRecord) error {
	if p.trends == nil || len(records) == 0 {
		return nil
	}
	ptrs := make([]*domain.TrendScoreRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	return p.handle(p.trends.InsertBulk(ctx, ptrs), "trend", len(records))
}

func (p *StorePublisher) handle(err error, kind string, count int) error {
	switch {
	case err == nil:
		p.logger.Debug().Str("kind", kind).Int("count", count).Msg("records stored")
		return nil
	case errors.Is(err, storage.ErrDuplicateKey):
		p.logger.Warn().Str("kind", kind).Msg("cycle already stored, skipping")
		return nil
	default:
		return fmt.Errorf("store %s records: %w", kind, err)
	}
}

// Close is a no-op; the stores are owned by the caller.
func (p *StorePublisher) Close() error { return nil }

var _ Publisher = (*StorePublisher)(nil)
