package memory

import (
	"context"
	"sort"
	"sync"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

type recordKey struct {
	cycleID      string
	countryCode3 string
}

// RateRecordStore is an in-memory implementation of storage.RateRecordStore.
type RateRecordStore struct {
	mu   sync.RWMutex
	data map[recordKey]*domain.CombinedCurrencyRecord
}

// NewRateRecordStore creates a new in-memory rate record store.
func NewRateRecordStore() *RateRecordStore {
	return &RateRecordStore{
		data: make(map[recordKey]*domain.CombinedCurrencyRecord),
	}
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *RateRecordStore) InsertBulk(_ context.Context, records []*domain.CombinedCurrencyRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[recordKey]struct{}, len(records))

	for _, r := range records {
		if r == nil || r.CycleID == "" || r.CountryCode3 == "" {
			return storage.ErrInvalidInput
		}
		k := recordKey{r.CycleID, r.CountryCode3}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[k]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, r := range records {
		s.data[recordKey{r.CycleID, r.CountryCode3}] = r.Clone()
	}
	return nil
}

// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
func (s *RateRecordStore) GetByCycle(_ context.Context, cycleID string) ([]*domain.CombinedCurrencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CombinedCurrencyRecord
	for k, r := range s.data {
		if k.cycleID == cycleID {
			result = append(result, r.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CountryCode3 < result[j].CountryCode3
	})
	return result, nil
}

// GetByCountry retrieves the history of a country, ordered by compiled_at_utc ASC.
func (s *RateRecordStore) GetByCountry(_ context.Context, countryCode3 string) ([]*domain.CombinedCurrencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CombinedCurrencyRecord
	for k, r := range s.data {
		if k.countryCode3 == countryCode3 {
			result = append(result, r.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CompiledAtUTC.Equal(result[j].CompiledAtUTC) {
			return result[i].CompiledAtUTC.Before(result[j].CompiledAtUTC)
		}
		return result[i].CycleID < result[j].CycleID
	})
	return result, nil
}

var _ storage.RateRecordStore = (*RateRecordStore)(nil)
