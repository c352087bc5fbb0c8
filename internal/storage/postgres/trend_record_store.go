package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

// TrendRecordStore implements storage.TrendRecordStore using PostgreSQL.
type TrendRecordStore struct {
	pool *Pool
}

// NewTrendRecordStore creates a new TrendRecordStore.
func NewTrendRecordStore(pool *Pool) *TrendRecordStore {
	return &TrendRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrendRecordStore = (*TrendRecordStore)(nil)

const trendRecordColumns = `
	cycle_id, country_code_3, keyword, country_code_2, country_korean_name, country_english_name,
	trend_score_raw_growth, scaled_raw_growth, trend_score_current_interest,
	anchor_growth, anchor_interest, final_trend_score, scoring_mode, crawled_at_utc
`

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate.
func (s *TrendRecordStore) InsertBulk(ctx context.Context, records []*domain.TrendScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `INSERT INTO trend_records (` + trendRecordColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9,
		$10, $11, $12, $13, $14
	)`

	return s.pool.inTx(ctx, func(tx pgx.Tx) error {
		for _, r := range records {
			if r == nil || r.CycleID == "" || r.CountryCode3 == "" {
				return storage.ErrInvalidInput
			}

			_, err := tx.Exec(ctx, query,
				r.CycleID, r.CountryCode3, r.Keyword, r.CountryCode2, r.CountryNameKor, r.CountryNameEng,
				r.TrendScoreRawGrowth, r.ScaledRawGrowth, r.TrendScoreCurrentInterest,
				r.AnchorGrowth, r.AnchorInterest, r.FinalTrendScore, string(r.ScoringMode), r.CrawledAtUTC,
			)
			if err != nil {
				return translate(err, "insert trend record "+r.CountryCode3)
			}
		}
		return nil
	})
}

// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
func (s *TrendRecordStore) GetByCycle(ctx context.Context, cycleID string) ([]*domain.TrendScoreRecord, error) {
	query := `SELECT ` + trendRecordColumns + `
		FROM trend_records
		WHERE cycle_id = $1
		ORDER BY country_code_3 ASC
	`

	rows, err := s.pool.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query trend records by cycle: %w", err)
	}
	defer rows.Close()

	return scanTrendRecords(rows)
}

// GetByCountry retrieves the history of a country, ordered by crawled_at_utc ASC.
func (s *TrendRecordStore) GetByCountry(ctx context.Context, countryCode3 string) ([]*domain.TrendScoreRecord, error) {
	query := `SELECT ` + trendRecordColumns + `
		FROM trend_records
		WHERE country_code_3 = $1
		ORDER BY crawled_at_utc ASC, cycle_id ASC
	`

	rows, err := s.pool.Query(ctx, query, countryCode3)
	if err != nil {
		return nil, fmt.Errorf("query trend records by country: %w", err)
	}
	defer rows.Close()

	return scanTrendRecords(rows)
}

func scanTrendRecords(rows pgx.Rows) ([]*domain.TrendScoreRecord, error) {
	var result []*domain.TrendScoreRecord
	for rows.Next() {
		var r domain.TrendScoreRecord
		var mode string

		err := rows.Scan(
			&r.CycleID, &r.CountryCode3, &r.Keyword, &r.CountryCode2, &r.CountryNameKor, &r.CountryNameEng,
			&r.TrendScoreRawGrowth, &r.ScaledRawGrowth, &r.TrendScoreCurrentInterest,
			&r.AnchorGrowth, &r.AnchorInterest, &r.FinalTrendScore, &mode, &r.CrawledAtUTC,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trend record: %w", err)
		}

		r.DataType = domain.DataTypeGoogleTrend
		r.ScoringMode = domain.ScoringMode(mode)
		r.CrawledAtUTC = r.CrawledAtUTC.UTC()
		r.CrawledAtKST = r.CrawledAtUTC.In(domain.KST)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend records: %w", err)
	}
	return result, nil
}
