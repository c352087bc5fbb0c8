// Package compiler merges registry attributes, resolved observations and
// scores into the flat records handed to publishers.
package compiler

import (
	"time"

	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/resolver"
	"travel-data-pipeline/internal/scoring"
)

// CompileRates builds one CombinedCurrencyRecord per resolved country,
// ordered by country_code_3. Missing observations stay nil.
func CompileRates(cycleID string, res resolver.RateResolution, compiledAt time.Time) []domain.CombinedCurrencyRecord {
	records := make([]domain.CombinedCurrencyRecord, 0, len(res.Countries))

	for _, cr := range res.Countries {
		rec := domain.CombinedCurrencyRecord{
			DataType:       domain.DataTypeExchangeRate,
			CycleID:        cycleID,
			CountryCode3:   cr.Country.CountryCode3,
			CountryCode2:   cr.Country.CountryCode2,
			CountryNameKor: cr.Country.CountryNameKor,
			CountryNameEng: cr.Country.CountryNameEng,
			CurrencyCode:   cr.Country.CurrencyCode,
			IsEuroZone:     cr.Country.IsEuroZone,
			CompiledAtUTC:  compiledAt.UTC(),
		}

		if cr.Realtime != nil {
			rec.RealtimeRate = domain.Float64Ptr(cr.Realtime.Value)
			if !cr.Realtime.At.IsZero() {
				utc, local := cr.Realtime.At.UTC, cr.Realtime.At.Local
				rec.RealtimeCrawledAtUTC = &utc
				rec.RealtimeCrawledAtLocal = &local
			}
		}
		if cr.DailyAvg != nil {
			rec.DailyAvgRate = domain.Float64Ptr(cr.DailyAvg.Value)
		}
		if len(cr.MonthlyAvg) > 0 {
			rec.MonthlyAvgRates = make(map[string]float64, len(cr.MonthlyAvg))
			for month, v := range cr.MonthlyAvg {
				rec.MonthlyAvgRates[month] = v
			}
		}
		if cr.YearlyAvg != nil {
			rec.YearlyAvgRate = domain.Float64Ptr(cr.YearlyAvg.Value)
		}

		rec.ExchangeRateChangePercent, rec.ExchangeRateScore = scoring.ExchangeRateScore(rec.RealtimeRate, rec.YearlyAvgRate)
		records = append(records, rec)
	}

	return records
}

// CompileTrends scores every resolved country with one mode and builds its
// TrendScoreRecord, ordered by country_code_3.
func CompileTrends(cycleID string, res resolver.TrendResolution, mode domain.ScoringMode, compiledAt time.Time) []domain.TrendScoreRecord {
	inputs := make([]scoring.TrendInput, len(res.Countries))
	for i, ct := range res.Countries {
		inputs[i] = scoring.TrendInput{
			Key:             ct.Country.CountryCode3,
			RawGrowth:       ct.RawGrowth,
			CurrentInterest: ct.CurrentInterest,
		}
	}
	scores := scoring.ScoreTrends(inputs, mode)
	byKey := make(map[string]scoring.TrendResult, len(scores))
	for _, s := range scores {
		byKey[s.Key] = s
	}

	records := make([]domain.TrendScoreRecord, 0, len(res.Countries))
	for _, ct := range res.Countries {
		at := ct.At
		if at.IsZero() {
			at = domain.NewTimestamps(compiledAt)
		}
		score := byKey[ct.Country.CountryCode3]

		records = append(records, domain.TrendScoreRecord{
			DataType:                  domain.DataTypeGoogleTrend,
			CycleID:                   cycleID,
			Keyword:                   ct.Keyword,
			CountryCode3:              ct.Country.CountryCode3,
			CountryCode2:              ct.Country.CountryCode2,
			CountryNameKor:            ct.Country.CountryNameKor,
			CountryNameEng:            ct.Country.CountryNameEng,
			TrendScoreRawGrowth:       ct.RawGrowth,
			ScaledRawGrowth:           score.Scaled,
			TrendScoreCurrentInterest: ct.CurrentInterest,
			AnchorGrowth:              ct.AnchorGrowth,
			AnchorInterest:            ct.AnchorInterest,
			FinalTrendScore:           score.Final,
			ScoringMode:               mode,
			CrawledAtUTC:              at.UTC,
			CrawledAtKST:              at.Local,
		})
	}

	return records
}
