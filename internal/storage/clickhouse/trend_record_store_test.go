package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

func TestTrendRecordStore_InsertBulkAndGetByCountry(t *testing.T) {
	conn := setupTestDB(t)

	store := NewTrendRecordStore(conn)
	ctx := context.Background()
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	for i, cycle := range []string{"t-2", "t-1"} {
		err := store.InsertBulk(ctx, []*domain.TrendScoreRecord{{
			CycleID: cycle, CountryCode3: "JPN", Keyword: "일본 여행", CountryNameKor: "일본",
			TrendScoreRawGrowth: 0.5, ScaledRawGrowth: 17.8, TrendScoreCurrentInterest: 60,
			AnchorGrowth: ptr(0.1), FinalTrendScore: 41, ScoringMode: domain.ScoringModeRelative,
			CrawledAtUTC: day.Add(-time.Duration(i) * 24 * time.Hour),
		}})
		require.NoError(t, err)
	}

	got, err := store.GetByCountry(ctx, "JPN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t-1", got[0].CycleID)
	assert.Equal(t, domain.ScoringModeRelative, got[0].ScoringMode)
	require.NotNil(t, got[0].AnchorGrowth)
	assert.Nil(t, got[0].AnchorInterest)

	byCycle, err := store.GetByCycle(ctx, "t-2")
	require.NoError(t, err)
	require.Len(t, byCycle, 1)

	err = store.InsertBulk(ctx, []*domain.TrendScoreRecord{{CycleID: "t-2", CountryCode3: "JPN"}})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
