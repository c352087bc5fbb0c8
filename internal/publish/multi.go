package publish

import (
	"context"
	"errors"

	"travel-data-pipeline/internal/domain"
)

// Multi fans out to several publishers. Every publisher is attempted;
// the errors are joined.
type Multi []Publisher

// PublishRates publishes to every publisher.
func (m Multi) PublishRates(ctx context.Context, records []domain.CombinedCurrencyRecord) error {
	if len(m) == 0 {
		return ErrNoPublishers
	}
	var errs []error
	for _, p := range m {
		if err := p.PublishRates(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishTrends publishes to every publisher.
func (m Multi) PublishTrends(ctx context.Context, records []domain.TrendScoreRecord) error {
	if len(m) == 0 {
		return ErrNoPublishers
	}
	var errs []error
	for _, p := range m {
		if err := p.PublishTrends(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher.
func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Publisher = Multi(nil)
