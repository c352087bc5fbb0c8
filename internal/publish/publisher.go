// Package publish delivers compiled records to downstream sinks.
package publish

import (
	"context"
	"errors"
	"time"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/idhash"
)

// ErrNoPublishers is returned by Multi when it has nothing to publish to.
var ErrNoPublishers = errors.New("no publishers configured")

// Publisher delivers the records of one cycle. Implementations must be
// safe to call again with the same cycle; consumers deduplicate on
// Event.EventID.
type Publisher interface {
	PublishRates(ctx context.Context, records []domain.CombinedCurrencyRecord) error
	PublishTrends(ctx context.Context, records []domain.TrendScoreRecord) error
	Close() error
}

// Event is the envelope of one published record.
type Event struct {
	EventID      string    `json:"event_id"`
	DataType     string    `json:"dataType"`
	CycleID      string    `json:"cycle_id"`
	CountryCode3 string    `json:"country_code_3"`
	PublishedAt  time.Time `json:"published_at"`
	Payload      any       `json:"payload"`
}

// NewRateEvent wraps a rate record.
func NewRateEvent(r domain.CombinedCurrencyRecord, publishedAt time.Time) Event {
	return Event{
		EventID:      idhash.ComputeEventID(r.CycleID, domain.DataTypeExchangeRate, r.CountryCode3),
		DataType:     domain.DataTypeExchangeRate,
		CycleID:      r.CycleID,
		CountryCode3: r.CountryCode3,
		PublishedAt:  publishedAt.UTC(),
		Payload:      r,
	}
}

// NewTrendEvent wraps a trend record.
func NewTrendEvent(r domain.TrendScoreRecord, publishedAt time.Time) Event {
	return Event{
		EventID:      idhash.ComputeEventID(r.CycleID, domain.DataTypeGoogleTrend, r.CountryCode3),
		DataType:     domain.DataTypeGoogleTrend,
		CycleID:      r.CycleID,
		CountryCode3: r.CountryCode3,
		PublishedAt:  publishedAt.UTC(),
		Payload:      r,
	}
}
