package memory

import (
	"context"
	"sort"
	"sync"

	"travel-data-pipeline/internal/storage"
)

// CycleRunStore is an in-memory implementation of storage.CycleRunStore.
type CycleRunStore struct {
	mu   sync.RWMutex
	runs map[string]*storage.CycleRun // keyed by cycle_id
}

// NewCycleRunStore creates a new in-memory cycle run store.
func NewCycleRunStore() *CycleRunStore {
	return &CycleRunStore{
		runs: make(map[string]*storage.CycleRun),
	}
}

// Insert adds a finished cycle. Returns ErrDuplicateKey if cycle_id exists.
func (s *CycleRunStore) Insert(_ context.Context, run *storage.CycleRun) error {
	if run == nil || run.CycleID == "" || run.Kind == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.CycleID]; exists {
		return storage.ErrDuplicateKey
	}
	s.runs[run.CycleID] = copyRun(run)
	return nil
}

// GetLatest returns the most recently started cycle of a kind.
func (s *CycleRunStore) GetLatest(_ context.Context, kind string) (*storage.CycleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *storage.CycleRun
	for _, r := range s.runs {
		if r.Kind != kind {
			continue
		}
		if latest == nil || r.StartedAt.After(latest.StartedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return copyRun(latest), nil
}

// List returns up to limit cycles, most recent first.
func (s *CycleRunStore) List(_ context.Context, limit int) ([]*storage.CycleRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.CycleRun, 0, len(s.runs))
	for _, r := range s.runs {
		result = append(result, copyRun(r))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRun(r *storage.CycleRun) *storage.CycleRun {
	c := *r
	c.Errors = append([]string(nil), r.Errors...)
	return &c
}

var _ storage.CycleRunStore = (*CycleRunStore)(nil)
