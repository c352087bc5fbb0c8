package storage

import (
	"context"
	"time"
)

// Cycle kinds recorded in CycleRun.Kind.
const (
	CycleKindRates  = "rates"
	CycleKindTrends = "trends"
)

// CycleRun is the bookkeeping row of one executed cycle.
type CycleRun struct {
	CycleID    string
	Kind       string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Unknown    int
	Errors     []string
}

// Succeeded reports whether the cycle finished without errors.
func (r *CycleRun) Succeeded() bool {
	return len(r.Errors) == 0
}

// CycleRunStore keeps the history of executed cycles so a restarted
// scheduler can report when each kind last ran.
type CycleRunStore interface {
	// Insert adds a finished cycle. Returns ErrDuplicateKey if cycle_id exists.
	Insert(ctx context.Context, run *CycleRun) error

	// GetLatest returns the most recently started cycle of a kind.
	// Returns ErrNotFound if the kind never ran.
	GetLatest(ctx context.Context, kind string) (*CycleRun, error)

	// List returns up to limit cycles, most recent first.
	List(ctx context.Context, limit int) ([]*CycleRun, error)
}
