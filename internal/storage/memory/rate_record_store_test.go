package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

func rateRecord(cycleID, code3 string, compiledAt time.Time) *domain.CombinedCurrencyRecord {
	return &domain.CombinedCurrencyRecord{
		DataType:        domain.DataTypeExchangeRate,
		CycleID:         cycleID,
		CountryCode3:    code3,
		CurrencyCode:    "USD",
		RealtimeRate:    domain.Float64Ptr(1350),
		MonthlyAvgRates: map[string]float64{"202501": 1320},
		CompiledAtUTC:   compiledAt,
	}
}

func TestRateRecordStore_InsertAndGetByCycle(t *testing.T) {
	store := NewRateRecordStore()
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	records := []*domain.CombinedCurrencyRecord{
		rateRecord("c1", "USA", now),
		rateRecord("c1", "DEU", now),
		rateRecord("c2", "USA", now.Add(time.Hour)),
	}
	if err := store.InsertBulk(ctx, records); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByCycle(ctx, "c1")
	if err != nil {
		t.Fatalf("GetByCycle failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].CountryCode3 != "DEU" || got[1].CountryCode3 != "USA" {
		t.Errorf("expected DEU, USA order, got %s, %s", got[0].CountryCode3, got[1].CountryCode3)
	}
}

func TestRateRecordStore_GetByCountryOrdered(t *testing.T) {
	store := NewRateRecordStore()
	ctx := context.Background()
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	_ = store.InsertBulk(ctx, []*domain.CombinedCurrencyRecord{
		rateRecord("late", "USA", now.Add(2*time.Hour)),
		rateRecord("early", "USA", now),
	})

	got, err := store.GetByCountry(ctx, "USA")
	if err != nil {
		t.Fatalf("GetByCountry failed: %v", err)
	}
	if len(got) != 2 || got[0].CycleID != "early" || got[1].CycleID != "late" {
		t.Errorf("unexpected order: %+v", got)
	}
}

func TestRateRecordStore_DuplicateKey(t *testing.T) {
	store := NewRateRecordStore()
	ctx := context.Background()
	r := rateRecord("c1", "USA", time.Now())

	if err := store.InsertBulk(ctx, []*domain.CombinedCurrencyRecord{r}); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.CombinedCurrencyRecord{r}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRateRecordStore_IntraBatchDuplicateIsAtomic(t *testing.T) {
	store := NewRateRecordStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.CombinedCurrencyRecord{
		rateRecord("c1", "FRA", time.Now()),
		rateRecord("c1", "USA", time.Now()),
		rateRecord("c1", "USA", time.Now()),
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	got, _ := store.GetByCycle(ctx, "c1")
	if len(got) != 0 {
		t.Errorf("expected nothing inserted, got %d records", len(got))
	}
}

func TestRateRecordStore_InvalidInput(t *testing.T) {
	store := NewRateRecordStore()
	err := store.InsertBulk(context.Background(), []*domain.CombinedCurrencyRecord{{CountryCode3: "USA"}})
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestRateRecordStore_ReturnsCopies(t *testing.T) {
	store := NewRateRecordStore()
	ctx := context.Background()
	r := rateRecord("c1", "USA", time.Now())
	_ = store.InsertBulk(ctx, []*domain.CombinedCurrencyRecord{r})

	*r.RealtimeRate = 1
	r.MonthlyAvgRates["202501"] = 1

	got, _ := store.GetByCycle(ctx, "c1")
	if *got[0].RealtimeRate != 1350 || got[0].MonthlyAvgRates["202501"] != 1320 {
		t.Errorf("stored record was mutated through caller pointer: %+v", got[0])
	}
}
