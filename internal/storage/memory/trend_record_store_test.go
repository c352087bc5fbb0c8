package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

func trendRecord(cycleID, code3 string, crawledAt time.Time) *domain.TrendScoreRecord {
	return &domain.TrendScoreRecord{
		DataType:        domain.DataTypeGoogleTrend,
		CycleID:         cycleID,
		CountryCode3:    code3,
		Keyword:         code3 + " 여행",
		FinalTrendScore: 42,
		AnchorGrowth:    domain.Float64Ptr(0.1),
		ScoringMode:     domain.ScoringModeFixed,
		CrawledAtUTC:    crawledAt,
	}
}

func TestTrendRecordStore_InsertAndGet(t *testing.T) {
	store := NewTrendRecordStore()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	err := store.InsertBulk(ctx, []*domain.TrendScoreRecord{
		trendRecord("c1", "JPN", now),
		trendRecord("c1", "CHL", now),
		trendRecord("c2", "JPN", now.Add(-time.Hour)),
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	byCycle, err := store.GetByCycle(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByCycle failed: %v", err)
	}
	if len(byCycle) != 2 || byCycle[0].CountryCode3 != "CHL" {
		t.Errorf("unexpected cycle records: %+v", byCycle)
	}

	byCountry, err := store.GetByCountry(ctx, "JPN")
	if err != nil {
		t.Fatalf("GetByCountry failed: %v", err)
	}
	if len(byCountry) != 2 || byCountry[0].CycleID != "c2" {
		t.Errorf("expected c2 first, got %+v", byCountry)
	}
}

func TestTrendRecordStore_DuplicateKey(t *testing.T) {
	store := NewTrendRecordStore()
	ctx := context.Background()
	r := trendRecord("c1", "JPN", time.Now())

	if err := store.InsertBulk(ctx, []*domain.TrendScoreRecord{r}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.TrendScoreRecord{r}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTrendRecordStore_EmptyInsert(t *testing.T) {
	if err := NewTrendRecordStore().InsertBulk(context.Background(), nil); err != nil {
		t.Errorf("expected nil for empty insert, got %v", err)
	}
}
