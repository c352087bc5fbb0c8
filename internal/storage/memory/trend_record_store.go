package memory

import (
	"context"
	"sort"
	"sync"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

// TrendRecordStore is an in-memory implementation of storage.TrendRecordStore.
type TrendRecordStore struct {
	mu   sync.RWMutex
	data map[recordKey]*domain.TrendScoreRecord
}

// NewTrendRecordStore creates a new in-memory trend record store.
func NewTrendRecordStore() *TrendRecordStore {
	return &TrendRecordStore{
		data: make(map[recordKey]*domain.TrendScoreRecord),
	}
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *TrendRecordStore) InsertBulk(_ context.Context, records []*domain.TrendScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

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
func (s *TrendRecordStore) GetByCycle(_ context.Context, cycleID string) ([]*domain.TrendScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrendScoreRecord
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

// GetByCountry retrieves the history of a country, ordered by crawled_at_utc ASC.
func (s *TrendRecordStore) GetByCountry(_ context.Context, countryCode3 string) ([]*domain.TrendScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TrendScoreRecord
	for k, r := range s.data {
		if k.countryCode3 == countryCode3 {
			result = append(result, r.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CrawledAtUTC.Equal(result[j].CrawledAtUTC) {
			return result[i].CrawledAtUTC.Before(result[j].CrawledAtUTC)
		}
		return result[i].CycleID < result[j].CycleID
	})
	return result, nil
}

var _ storage.TrendRecordStore = (*TrendRecordStore)(nil)
