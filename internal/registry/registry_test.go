package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-data-pipeline/internal/domain"
)

func testRecords() []domain.CountryRecord {
	return []domain.CountryRecord{
		{CountryCode3: "USA", CountryCode2: "US", CountryNameKor: "미국", CountryNameEng: "United States", CurrencyCode: "USD", GoogleTrendKeywordKor: "미국 여행"},
		{CountryCode3: "FRA", CountryCode2: "FR", CountryNameKor: "프랑스", CountryNameEng: "France", CurrencyCode: "EUR", IsEuroZone: true, GoogleTrendKeywordKor: "프랑스 여행"},
		{CountryCode3: "DEU", CountryCode2: "DE", CountryNameKor: "독일", CountryNameEng: "Germany", CurrencyCode: "EUR", IsEuroZone: true},
		{CountryCode3: "ECU", CountryCode2: "EC", CountryNameKor: "에콰도르", CountryNameEng: "Ecuador", CurrencyCode: "USD"},
		{CountryCode3: "MNE", CountryCode2: "ME", CountryNameKor: "몬테네그로", CountryNameEng: "Montenegro", CurrencyCode: "EUR"},
	}
}

func TestNew_Lookups(t *testing.T) {
	reg, err := New(testRecords())
	require.NoError(t, err)

	assert.Equal(t, 5, reg.Len())

	usa, ok := reg.LookupByCode3("usa")
	require.True(t, ok)
	assert.Equal(t, "United States", usa.CountryNameEng)

	_, ok = reg.LookupByCode3("XXX")
	assert.False(t, ok)

	usd := reg.LookupByCurrency("USD")
	require.Len(t, usd, 2)
	assert.Equal(t, "ECU", usd[0].CountryCode3)
	assert.Equal(t, "USA", usd[1].CountryCode3)

	assert.Empty(t, reg.LookupByCurrency("ZZZ"))
	assert.NotNil(t, reg.LookupByCurrency("ZZZ"))
}

func TestNew_EurozoneMembers(t *testing.T) {
	reg, err := New(testRecords())
	require.NoError(t, err)

	members := reg.EurozoneMembers()
	require.Len(t, members, 2)
	assert.Equal(t, "DEU", members[0].CountryCode3)
	assert.Equal(t, "FRA", members[1].CountryCode3)

	// MNE uses EUR without the eurozone flag
	assert.Len(t, reg.LookupByCurrency("EUR"), 3)
}

func TestLookupByTrendKeyword(t *testing.T) {
	reg, err := New(testRecords())
	require.NoError(t, err)

	rec, ok := reg.LookupByTrendKeyword("미국 여행")
	require.True(t, ok)
	assert.Equal(t, "USA", rec.CountryCode3)

	// DEU has no keyword; falls back to the Korean name
	rec, ok = reg.LookupByTrendKeyword("독일 여행")
	require.True(t, ok)
	assert.Equal(t, "DEU", rec.CountryCode3)

	_, ok = reg.LookupByTrendKeyword(domain.DefaultAnchorKeyword)
	assert.False(t, ok)

	_, ok = reg.LookupByTrendKeyword("독일")
	assert.False(t, ok)
}

func TestTrendKeywords(t *testing.T) {
	reg, err := New(testRecords())
	require.NoError(t, err)

	assert.Equal(t, []string{"프랑스 여행", "미국 여행"}, reg.TrendKeywords())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.CountryRecord
	}{
		{
			name:    "empty code3",
			records: []domain.CountryRecord{{CountryNameKor: "미국", CurrencyCode: "USD"}},
		},
		{
			name: "duplicate code3",
			records: []domain.CountryRecord{
				{CountryCode3: "USA", CountryNameKor: "미국", CurrencyCode: "USD"},
				{CountryCode3: "USA", CountryNameKor: "미국2", CurrencyCode: "USD"},
			},
		},
		{
			name: "duplicate keyword",
			records: []domain.CountryRecord{
				{CountryCode3: "USA", CountryNameKor: "미국", CurrencyCode: "USD", GoogleTrendKeywordKor: "여행"},
				{CountryCode3: "CAN", CountryNameKor: "캐나다", CurrencyCode: "CAD", GoogleTrendKeywordKor: "여행"},
			},
		},
		{
			name:    "lowercase currency",
			records: []domain.CountryRecord{{CountryCode3: "USA", CountryNameKor: "미국", CurrencyCode: "usd"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.records)
			assert.True(t, errors.Is(err, ErrInvalidRecord), "got %v", err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "countries.json")
	data := `{
		"JPN": {"country_code_2": "JP", "country_korean_name": "일본", "country_english_name": "Japan", "currency_code": "JPY", "google_trend_keyword_kor": "일본 여행"},
		"ITA": {"country_code_3": "ITA", "country_code_2": "IT", "country_korean_name": "이탈리아", "country_english_name": "Italy", "currency_code": "EUR", "is_euro_zone": true}
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	jpn, ok := reg.LookupByCode3("JPN")
	require.True(t, ok)
	assert.Equal(t, "JPN", jpn.CountryCode3)
	assert.Len(t, reg.EurozoneMembers(), 1)
}

func TestLoad_Failures(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrLoad)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"USA": [`), 0o644))
	_, err = Load(bad)
	assert.ErrorIs(t, err, ErrLoad)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o644))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrLoad)

	mismatch := filepath.Join(dir, "mismatch.json")
	require.NoError(t, os.WriteFile(mismatch, []byte(`{"USA": {"country_code_3": "CAN", "country_korean_name": "캐나다", "currency_code": "CAD"}}`), 0o644))
	_, err = Load(mismatch)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestLoad_ShippedRegistry(t *testing.T) {
	reg, err := Load(filepath.Join("..", "..", "configs", "master_country_map.json"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reg.Len(), 50)
	assert.Len(t, reg.EurozoneMembers(), 12)

	jpn, ok := reg.LookupByCode3("JPN")
	require.True(t, ok)
	assert.Equal(t, "JPY", jpn.CurrencyCode)

	kor, ok := reg.LookupByTrendKeyword("일본 여행")
	require.True(t, ok)
	assert.Equal(t, "JPN", kor.CountryCode3)
}
