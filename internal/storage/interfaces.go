// Package storage defines the record and cycle run stores the sinks write
// to. Records are append-only: a (cycle_id, country_code_3) key is written
// once.
package storage

import (
	"context"
	"errors"

	"travel-data-pipeline/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("record key already stored")
	ErrInvalidInput = errors.New("record key is incomplete")
)

// RateRecordStore provides access to rate_records storage.
type RateRecordStore interface {
	// InsertBulk adds the records of one or more cycles atomically.
	// Fails entire batch on duplicate (cycle_id, country_code_3).
	InsertBulk(ctx context.Context, records []*domain.CombinedCurrencyRecord) error

	// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
	GetByCycle(ctx context.Context, cycleID string) ([]*domain.CombinedCurrencyRecord, error)

	// GetByCountry retrieves the history of a country, ordered by compiled_at_utc ASC.
	GetByCountry(ctx context.Context, countryCode3 string) ([]*domain.CombinedCurrencyRecord, error)
}

// TrendRecordStore provides access to trend_records storage.
type TrendRecordStore interface {
	// InsertBulk adds the records of one or more cycles atomically.
	// Fails entire batch on duplicate (cycle_id, country_code_3).
	InsertBulk(ctx context.Context, records []*domain.TrendScoreRecord) error

	// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
	GetByCycle(ctx context.Context, cycleID string) ([]*domain.TrendScoreRecord, error)

	// GetByCountry retrieves the history of a country, ordered by crawled_at_utc ASC.
	GetByCountry(ctx context.Context, countryCode3 string) ([]*domain.TrendScoreRecord, error)
}
