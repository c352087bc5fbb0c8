package clickhouse

import (
	"context"
	"fmt"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/storage"
)

// TrendRecordStore implements storage.TrendRecordStore using ClickHouse.
type TrendRecordStore struct {
	conn *Conn
}

// NewTrendRecordStore creates a new TrendRecordStore.
func NewTrendRecordStore(conn *Conn) *TrendRecordStore {
	return &TrendRecordStore{conn: conn}
}

const trendRecordColumns = `
	cycle_id, country_code_3, keyword, country_code_2, country_korean_name, country_english_name,
	trend_score_raw_growth, scaled_raw_growth, trend_score_current_interest,
	anchor_growth, anchor_interest, final_trend_score, scoring_mode, crawled_at_utc
`

// InsertBulk appends records as one batch. Nothing is written when a key
// repeats within the batch or is already stored.
func (s *TrendRecordStore) InsertBulk(ctx context.Context, records []*domain.TrendScoreRecord) error {
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
	if err := s.conn.checkBatchKeys(ctx, "trend_records", keys); err != nil {
		return err
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO trend_records (`+trendRecordColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare trend_records batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.CycleID, r.CountryCode3, r.Keyword, r.CountryCode2, r.CountryNameKor, r.CountryNameEng,
			r.TrendScoreRawGrowth, r.ScaledRawGrowth, r.TrendScoreCurrentInterest,
			r.AnchorGrowth, r.AnchorInterest, r.FinalTrendScore, string(r.ScoringMode), r.CrawledAtUTC,
		)
		if err != nil {
			return fmt.Errorf("append %s: %w", r.CountryCode3, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send trend_records batch: %w", err)
	}
	return nil
}

// GetByCycle retrieves all records of a cycle, ordered by country_code_3 ASC.
func (s *TrendRecordStore) GetByCycle(ctx context.Context, cycleID string) ([]*domain.TrendScoreRecord, error) {
	return queryRecords(ctx, s.conn, scanTrendRecords,
		`SELECT `+trendRecordColumns+` FROM trend_records WHERE cycle_id = ? ORDER BY country_code_3 ASC`, cycleID)
}

// GetByCountry retrieves the history of a country, ordered by crawled_at_utc ASC.
func (s *TrendRecordStore) GetByCountry(ctx context.Context, countryCode3 string) ([]*domain.TrendScoreRecord, error) {
	return queryRecords(ctx, s.conn, scanTrendRecords,
		`SELECT `+trendRecordColumns+` FROM trend_records WHERE country_code_3 = ? ORDER BY crawled_at_utc ASC, cycle_id ASC`, countryCode3)
}

// scanTrendRecords scans multiple rows.
func scanTrendRecords(rows rowScanner) ([]*domain.TrendScoreRecord, error) {
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
			return nil, fmt.Errorf("scan trend record row: %w", err)
		}

		r.DataType = domain.DataTypeGoogleTrend
		r.ScoringMode = domain.ScoringMode(mode)
		r.CrawledAtUTC = r.CrawledAtUTC.UTC()
		r.CrawledAtKST = r.CrawledAtUTC.In(domain.KST)
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trend record rows: %w", err)
	}
	return result, nil
}

var _ storage.TrendRecordStore = (*TrendRecordStore)(nil)
