package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-data-pipeline/internal/storage"
)

func TestCycleRunStore(t *testing.T) {
	store := NewCycleRunStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, err := store.GetLatest(ctx, storage.CycleKindRates); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before any run, got %v", err)
	}

	runs := []*storage.CycleRun{
		{CycleID: "r1", Kind: storage.CycleKindRates, StartedAt: base},
		{CycleID: "t1", Kind: storage.CycleKindTrends, StartedAt: base.Add(time.Minute)},
		{CycleID: "r2", Kind: storage.CycleKindRates, StartedAt: base.Add(time.Hour), Errors: []string{"DAILY_AVERAGE skipped"}},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	latest, err := store.GetLatest(ctx, storage.CycleKindRates)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if latest.CycleID != "r2" || latest.Succeeded() {
		t.Errorf("unexpected latest run: %+v", latest)
	}

	list, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].CycleID != "r2" || list[1].CycleID != "t1" {
		t.Errorf("unexpected list: %+v", list)
	}

	if err := store.Insert(ctx, runs[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.Insert(ctx, &storage.CycleRun{CycleID: "x"}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
