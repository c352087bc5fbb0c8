package postgres

import (
	"context"
	"fmt"

	"travel-data-pipeline/internal/storage"
)

// CycleRunStore is a PostgreSQL implementation of storage.CycleRunStore.
type CycleRunStore struct {
	pool *Pool
}

// NewCycleRunStore creates a new PostgreSQL cycle run store.
func NewCycleRunStore(pool *Pool) *CycleRunStore {
	return &CycleRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CycleRunStore = (*CycleRunStore)(nil)

// Insert adds a finished cycle. Returns ErrDuplicateKey if cycle_id exists.
func (s *CycleRunStore) Insert(ctx context.Context, run *storage.CycleRun) error {
	if run == nil || run.CycleID == "" || run.Kind == "" {
		return storage.ErrInvalidInput
	}

	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO cycle_runs (cycle_id, kind, started_at, finished_at, records, unknown, errors)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.CycleID, run.Kind, run.StartedAt, run.FinishedAt, run.Records, run.Unknown, errs)
	return translate(err, "insert cycle run")
}

// GetLatest returns the most recently started cycle of a kind.
func (s *CycleRunStore) GetLatest(ctx context.Context, kind string) (*storage.CycleRun, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT cycle_id, kind, started_at, finished_at, records, unknown, errors
		FROM cycle_runs
		WHERE kind = $1
		ORDER BY started_at DESC
		LIMIT 1
	`, kind)

	var r storage.CycleRun
	err := row.Scan(&r.CycleID, &r.Kind, &r.StartedAt, &r.FinishedAt, &r.Records, &r.Unknown, &r.Errors)
	if err != nil {
		return nil, translate(err, "get latest cycle run")
	}
	normalizeRun(&r)
	return &r, nil
}

// List returns up to limit cycles, most recent first.
func (s *CycleRunStore) List(ctx context.Context, limit int) ([]*storage.CycleRun, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.pool.Query(ctx, `
		SELECT cycle_id, kind, started_at, finished_at, records, unknown, errors
		FROM cycle_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list cycle runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.CycleRun
	for rows.Next() {
		var r storage.CycleRun
		if err := rows.Scan(&r.CycleID, &r.Kind, &r.StartedAt, &r.FinishedAt, &r.Records, &r.Unknown, &r.Errors); err != nil {
			return nil, fmt.Errorf("scan cycle run: %w", err)
		}
		normalizeRun(&r)
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func normalizeRun(r *storage.CycleRun) {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if len(r.Errors) == 0 {
		r.Errors = nil
	}
}
