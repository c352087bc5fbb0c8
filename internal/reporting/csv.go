package reporting

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"travel-data-pipeline/internal/domain"
)

// RateCSVHeader is the column order of RenderRateCSV.
var RateCSVHeader = []string{
	"cycle_id", "country_code_3", "country_code_2", "country_english_name", "currency_code", "is_euro_zone",
	"realtime_rate", "daily_avg_rate", "monthly_avg_rates", "yearly_avg_rate",
	"exchange_rate_change_percent", "exchange_rate_score", "compiled_at_utc",
}

// TrendCSVHeader is the column order of RenderTrendCSV.
var TrendCSVHeader = []string{
	"cycle_id", "country_code_3", "country_english_name", "keyword",
	"trend_score_raw_growth", "scaled_raw_growth", "trend_score_current_interest",
	"anchor_growth", "anchor_interest", "final_trend_score", "scoring_mode", "crawled_at_utc",
}

// RenderRateCSV writes rate records as CSV. Missing values are empty
// cells; monthly averages are "YYYYMM:rate" pairs joined by ";".
func RenderRateCSV(w io.Writer, records []domain.CombinedCurrencyRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RateCSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.CycleID,
			r.CountryCode3,
			r.CountryCode2,
			r.CountryNameEng,
			r.CurrencyCode,
			strconv.FormatBool(r.IsEuroZone),
			formatOptional(r.RealtimeRate),
			formatOptional(r.DailyAvgRate),
			formatMonthly(r.MonthlyAvgRates),
			formatOptional(r.YearlyAvgRate),
			formatOptional(r.ExchangeRateChangePercent),
			formatFloat(r.ExchangeRateScore),
			r.CompiledAtUTC.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTrendCSV writes trend records as CSV.
func RenderTrendCSV(w io.Writer, records []domain.TrendScoreRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TrendCSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.CycleID,
			r.CountryCode3,
			r.CountryNameEng,
			r.Keyword,
			formatFloat(r.TrendScoreRawGrowth),
			formatFloat(r.ScaledRawGrowth),
			formatFloat(r.TrendScoreCurrentInterest),
			formatOptional(r.AnchorGrowth),
			formatOptional(r.AnchorInterest),
			formatFloat(r.FinalTrendScore),
			string(r.ScoringMode),
			r.CrawledAtUTC.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatMonthly(m map[string]float64) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ":" + formatFloat(m[k])
	}
	return strings.Join(parts, ";")
}
