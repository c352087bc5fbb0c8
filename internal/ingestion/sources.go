package ingestion

import (
	"context"

	"travel-data-pipeline/internal/domain"
)

// RateSource provides rate table rows from an upstream.
type RateSource interface {
	// FetchRates returns every row of the table selected by rt.
	// An empty result means no data this phase and is not an error.
	FetchRates(ctx context.Context, rt domain.RateType) ([]domain.RateObservation, error)
}

// TrendSource provides summarized trend signals for one keyword batch.
type TrendSource interface {
	// FetchTrends returns one observation per batch keyword, including the
	// anchor keyword's own row. Anchor fields of the result are unset.
	FetchTrends(ctx context.Context, batch domain.TrendBatch) ([]domain.TrendObservation, error)
}
