package postgres

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

// RateRecordStore implements storage.RateRecordStore using PostgreSQL.
type RateRecordStore struct {
	pool *Pool
}

// NewRateRecordStore creates a new RateRecordStore.
func NewRateRecordStore(pool *Pool) *RateRecordStore {
	return &RateRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RateRecordStore = (*RateRecordStore)(nil)

const rateRecordColumns = `
	cycle_id, country_code_3, country_code_2, country_korean_name, country_english_name,
	currency_code, is_euro_zone,
	realtime_rate, realtime_crawled_at_utc, daily_avg_rate, monthly_avg_rates, yearly_avg_rate,
	exchange_rate_change_percent, exchange_rate_score, compiled_at_utc
`

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *RateRecordStore) InsertBulk(ctx context.Context, records []*domain.CombinedCurrencyRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `INSERT INTO rate_records (` + rateRecordColumns + `) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7,
		$8, $9, $10, $11, $12,
		$13, $14, $15
	)`

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		for _, r := range records {
			if r == nil || r.CycleID == "" || r.CountryCode3 == "" {
				return storage.ErrInvalidInput
			}

			monthly, err := json.Marshal(monthlyOrEmpty(r.MonthlyAvgRates))
			if err != nil {
				return fmt.Errorf("encode monthly averages: %w", err)
			}

			_, err = tx.Exec(ctx, query,
				r.CycleID, r.CountryCode3, r.CountryCode2, r.CountryNameKor, r.CountryNameEng,
				r.CurrencyCode, r.IsEuroZone,
				r.RealtimeRate, r.RealtimeCrawledAtUTC, r.DailyAvgRate, monthly, r.YearlyAvgRate,
				r.ExchangeRateChangePercent, r.ExchangeRateScore, r.CompiledAtUTC,
			)
			if err != nil {
				return translate(err, "insert rate record "+r.CountryCode3)
			}
		}
		return nil
	})
}

// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
func (s *RateRecordStore) GetByCycle(ctx context.Context, cycleID string) ([]*domain.CombinedCurrencyRecord, error) {
	query := `SELECT ` + rateRecordColumns + `
		FROM rate_records
		WHERE cycle_id = $1
		ORDER BY country_code_3 ASC
	`

	rows, err := s.pool.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query rate records by cycle: %w", err)
	}
	defer rows.Close()

	return scanRateRecords(rows)
}

// GetByCountry retrieves the history of a country, ordered by compiled_at_utc ASC.
func (s *RateRecordStore) GetByCountry(ctx context.Context, countryCode3 string) ([]*domain.CombinedCurrencyRecord, error) {
	query := `SELECT ` + rateRecordColumns + `
		FROM rate_records
		WHERE country_code_3 = $1
		ORDER BY compiled_at_utc ASC, cycle_id ASC
	`

	rows, err := s.pool.Query(ctx, query, countryCode3)
	if err != nil {
		return nil, fmt.Errorf("query rate records by country: %w", err)
	}
	defer rows.Close()

	return scanRateRecords(rows)
}

func scanRateRecords(rows pgx.Rows) ([]*domain.CombinedCurrencyRecord, error) {
	var result []*domain.CombinedCurrencyRecord
	for rows.Next() {
		var r domain.CombinedCurrencyRecord
		var monthly []byte
		var realtimeAt *time.Time

		err := rows.Scan(
			&r.CycleID, &r.CountryCode3, &r.CountryCode2, &r.CountryNameKor, &r.CountryNameEng,
			&r.CurrencyCode, &r.IsEuroZone,
			&r.RealtimeRate, &realtimeAt, &r.DailyAvgRate, &monthly, &r.YearlyAvgRate,
			&r.ExchangeRateChangePercent, &r.ExchangeRateScore, &r.CompiledAtUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rate record: %w", err)
		}

		if err := json.Unmarshal(monthly, &r.MonthlyAvgRates); err != nil {
			return nil, fmt.Errorf("decode monthly averages: %w", err)
		}
		if len(r.MonthlyAvgRates) == 0 {
			r.MonthlyAvgRates = nil
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
		return nil, fmt.Errorf("iterate rate records: %w", err)
	}
	return result, nil
}

func monthlyOrEmpty(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
