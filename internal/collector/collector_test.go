package collector

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg, err := registry.New([]domain.CountryRecord{
		{CountryCode3: "USA", CountryNameKor: "미국", CurrencyCode: "USD", GoogleTrendKeywordKor: "미국 여행"},
		{CountryCode3: "JPN", CountryNameKor: "일본", CurrencyCode: "JPY", GoogleTrendKeywordKor: "일본 여행"},
		{CountryCode3: "DEU", CountryNameKor: "독일", CurrencyCode: "EUR", IsEuroZone: true},
	})
	require.NoError(t, err)
	return reg
}

var ts = domain.NewTimestamps(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))

func TestRecordRate_LastWriteWins(t *testing.T) {
	c := New(testRegistry(t), domain.DefaultAnchorKeyword)

	require.NoError(t, c.RecordRate("USD", domain.Realtime(), 1350, ts))
	require.NoError(t, c.RecordRate(" usd ", domain.Realtime(), 1360, ts))
	require.NoError(t, c.RecordRate("USD", domain.YearlyAverage(), 1300, ts))
	require.NoError(t, c.RecordRate("USD", domain.MonthlyAverage("202504"), 1320, ts))
	require.NoError(t, c.RecordRate("USD", domain.MonthlyAverage("202503"), 1310, ts))
	require.NoError(t, c.RecordRate("USD", domain.MonthlyAverage("202504"), 1325, ts))

	snap := c.Snapshot()
	require.Len(t, snap.Rates, 1)

	usd := snap.Rates[0]
	assert.Equal(t, "USD", usd.RawCode)
	require.NotNil(t, usd.Realtime)
	assert.Equal(t, 1360.0, usd.Realtime.Value)
	assert.Nil(t, usd.DailyAvg)
	require.NotNil(t, usd.YearlyAvg)
	assert.Equal(t, 1300.0, usd.YearlyAvg.Value)
	assert.Equal(t, map[string]Observed{
		"202504": {Value: 1325, At: ts},
		"202503": {Value: 1310, At: ts},
	}, usd.MonthlyAvg)
	assert.False(t, usd.Unrecognized)
}

func TestRecordRate_UnknownCodeFlagged(t *testing.T) {
	c := New(testRegistry(t), domain.DefaultAnchorKeyword)

	require.NoError(t, c.RecordRate("XAU", domain.Realtime(), 120000, ts))
	require.NoError(t, c.RecordRate("JPY", domain.Realtime(), 9.1, ts))

	snap := c.Snapshot()
	require.Len(t, snap.Rates, 2)
	assert.Equal(t, []string{"XAU"}, snap.Unrecognized())
}

func TestRecordRate_Invalid(t *testing.T) {
	c := New(nil, domain.DefaultAnchorKeyword)

	assert.Error(t, c.RecordRate("USD", domain.MonthlyAverage("25-04"), 1, ts))
	assert.Error(t, c.RecordRate("  ", domain.Realtime(), 1, ts))
	assert.Empty(t, c.Snapshot().Rates)
}

func TestRecordObservations(t *testing.T) {
	c := New(testRegistry(t), domain.DefaultAnchorKeyword)

	errs := c.RecordObservations(domain.DailyAverage(), []domain.RateObservation{
		{CurrencyCode: "USD", StandardRate: 1351.5, BuyRate: 1370},
		{CurrencyCode: "", StandardRate: 1},
		{CurrencyCode: "JPY", StandardRate: 9.05},
	})
	assert.Len(t, errs, 1)

	snap := c.Snapshot()
	require.Len(t, snap.Rates, 2)
	assert.Equal(t, "JPY", snap.Rates[0].RawCode)
	assert.Equal(t, 1351.5, snap.Rates[1].DailyAvg.Value)
}

func TestRecordTrend_AnchorPerBatch(t *testing.T) {
	c := New(testRegistry(t), domain.DefaultAnchorKeyword)

	require.NoError(t, c.RecordTrend("b1", domain.DefaultAnchorKeyword, 0.2, 60, ts))
	require.NoError(t, c.RecordTrend("b1", "미국 여행", 0.5, 40, ts))
	require.NoError(t, c.RecordTrend("b2", domain.DefaultAnchorKeyword, -0.1, 55, ts))
	require.NoError(t, c.RecordTrend("b2", "일본 여행", 1.5, 90, ts))
	require.NoError(t, c.RecordTrend("b2", "화성 여행", 3, 5, ts))

	snap := c.Snapshot()
	require.Len(t, snap.Trends, 3)
	require.Len(t, snap.Anchors, 2)

	mean, ok := snap.MeanAnchorGrowth()
	require.True(t, ok)
	assert.InDelta(t, 0.05, mean, 1e-9)

	a, ok := snap.Anchor("b2")
	require.True(t, ok)
	assert.Equal(t, 55.0, a.Interest)

	assert.Equal(t, []string{"화성 여행"}, snap.Unrecognized())
}

func TestMeanAnchorGrowth_NoAnchor(t *testing.T) {
	c := New(nil, domain.DefaultAnchorKeyword)
	require.NoError(t, c.RecordTrend("b1", "미국 여행", 0.5, 40, ts))

	_, ok := c.Snapshot().MeanAnchorGrowth()
	assert.False(t, ok)
}

func TestSnapshot_IsolatedFromLaterWrites(t *testing.T) {
	c := New(nil, domain.DefaultAnchorKeyword)
	require.NoError(t, c.RecordRate("USD", domain.MonthlyAverage("202501"), 1, ts))

	snap := c.Snapshot()
	require.NoError(t, c.RecordRate("USD", domain.MonthlyAverage("202501"), 2, ts))

	assert.Equal(t, 1.0, snap.Rates[0].MonthlyAvg["202501"].Value)
}

func TestCollector_ConcurrentTrendBatches(t *testing.T) {
	c := New(testRegistry(t), domain.DefaultAnchorKeyword)

	var wg sync.WaitGroup
	for i, kw := range []string{"미국 여행", "일본 여행"} {
		wg.Add(1)
		go func(batch int, keyword string) {
			defer wg.Done()
			id := string(rune('a' + batch))
			_ = c.RecordTrend(id, domain.DefaultAnchorKeyword, 0.1, 50, ts)
			_ = c.RecordTrend(id, keyword, 0.3, 70, ts)
		}(i, kw)
	}
	wg.Wait()

	snap := c.Snapshot()
	assert.Len(t, snap.Trends, 2)
	assert.Len(t, snap.Anchors, 2)
}
