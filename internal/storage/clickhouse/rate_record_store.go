package clickhouse

import (
	"context"
	"fmt"
	"time"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

// RateRecordStore implements storage.RateRecordStore using ClickHouse.
type RateRecordStore struct {
	conn *Conn
}

// NewRateRecordStore creates a new RateRecordStore.
func NewRateRecordStore(conn *Conn) *RateRecordStore {
	return &RateRecordStore{conn: conn}
}

const rateRecordColumns = `
	cycle_id, country_code_3, country_code_2, country_korean_name, country_english_name,
	currency_code, is_euro_zone,
	realtime_rate, realtime_crawled_at_utc, daily_avg_rate, monthly_avg_rates, yearly_avg_rate,
	exchange_rate_change_percent, exchange_rate_score, compiled_at_utc
`

// InsertBulk appends records as one batch. Nothing is written when a key
// repeats within the batch or is already stored.
func (s *RateRecordStore) InsertBulk(ctx context.Context, records []*domain.CombinedCurrencyRecord) error {
	if len(records) == 0 {
		return nil
	}

	keys := make([]recordKey, len(records))
	for i, r := range records {
		if r == nil {
			return storage.ErrInvalidInput
		}
		keys[i] = recordKey{r.CycleID, r.CountryCode3}
	}
	if err := s.conn.checkBatchKeys(ctx, "rate_records", keys); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO rate_records (`+rateRecordColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare rate_records batch: %w", err)
	}

	for _, r := range records {
		monthly := r.MonthlyAvgRates
		if monthly == nil {
			monthly = map[string]float64{}
		}
		err = batch.Append(
			r.CycleID, r.CountryCode3, r.CountryCode2, r.CountryNameKor, r.CountryNameEng,
			r.CurrencyCode, r.IsEuroZone,
			r.RealtimeRate, r.RealtimeCrawledAtUTC, r.DailyAvgRate, monthly, r.YearlyAvgRate,
			r.ExchangeRateChangePercent, r.ExchangeRateScore, r.CompiledAtUTC,
		)
		if err != nil {
			return fmt.Errorf("append %s: %w", r.CountryCode3, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send rate_records batch: %w", err)
	}
	return nil
}

// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
func (s *RateRecordStore) GetByCycle(ctx context.Context, cycleID string) ([]*domain.CombinedCurrencyRecord, error) {
	return queryRecords(ctx, s.conn, scanRateRecords,
		`SELECT `+rateRecordColumns+` FROM rate_records WHERE cycle_id = ? ORDER BY country_code_3 ASC`, cycleID)
}

// GetByCountry retrieves the history of a country, ordered by compiled_at_utc ASC.
func (s *RateRecordStore) GetByCountry(ctx context.Context, countryCode3 string) ([]*domain.CombinedCurrencyRecord, error) {
	return queryRecords(ctx, s.conn, scanRateRecords,
		`SELECT `+rateRecordColumns+` FROM rate_records WHERE country_code_3 = ? ORDER BY compiled_at_utc ASC, cycle_id ASC`, countryCode3)
}

// scanRateRecords scans multiple rows.
func scanRateRecords(rows rowScanner) ([]*domain.CombinedCurrencyRecord, error) {
	var result []*domain.CombinedCurrencyRecord

	for rows.Next() {
		var r domain.CombinedCurrencyRecord
		var realtimeAt *time.Time
		var monthly map[string]float64

		err := rows.Scan(
			&r.CycleID, &r.CountryCode3, &r.CountryCode2, &r.CountryNameKor, &r.CountryNameEng,
			&r.CurrencyCode, &r.IsEuroZone,
			&r.RealtimeRate, &realtimeAt, &r.DailyAvgRate, &monthly, &r.YearlyAvgRate,
			&r.ExchangeRateChangePercent, &r.ExchangeRateScore, &r.CompiledAtUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rate record row: %w", err)
		}

		if len(monthly) > 0 {
			r.MonthlyAvgRates = monthly
		}
		if realtimeAt != nil {
			utc := realtimeAt.UTC()
			local := realtimeAt.In(domain.KST)
			r.RealtimeCrawledAtUTC = &utc
			r.RealtimeCrawledAtLocal = &local
		}
		r.DataType = domain.DataTypeExchangeRate
		r.CompiledAtUTC = r.CompiledAtUTC.UTC()
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rate record rows: %w", err)
	}
	return result, nil
}

var _ storage.RateRecordStore = (*RateRecordStore)(nil)
