package domain

import "time"

// Event data types carried in the dataType field.
const (
	DataTypeExchangeRate = "exchangeRate"
	DataTypeGoogleTrend  = "googleTrend"
)

// CombinedCurrencyRecord is the scored exchange-rate record of one country
// for one rate cycle. Observation fields stay nil when the phase produced
// nothing for the country.
type CombinedCurrencyRecord struct {
	DataType       string `json:"dataType"`
	CycleID        string `json:"cycle_id"`
	CountryCode3   string `json:"country_code_3"`
	CountryCode2   string `json:"country_code_2"`
	CountryNameKor string `json:"country_korean_name"`
	CountryNameEng string `json:"country_english_name"`
	CurrencyCode   string `json:"currency_code"`
	IsEuroZone     bool   `json:"is_euro_zone"`

	RealtimeRate           *float64           `json:"realtime_rate"`
	RealtimeCrawledAtUTC   *time.Time         `json:"realtime_crawled_at_utc"`
	RealtimeCrawledAtLocal *time.Time         `json:"realtime_crawled_at_kst"`
	DailyAvgRate           *float64           `json:"daily_avg_rate"`
	MonthlyAvgRates        map[string]float64 `json:"monthly_avg_rates"` // "YYYYMM" -> rate
	YearlyAvgRate          *float64           `json:"yearly_avg_rate"`

	ExchangeRateChangePercent *float64 `json:"exchange_rate_change_percent"`
	ExchangeRateScore         float64  `json:"exchange_rate_score"`

	CompiledAtUTC time.Time `json:"compiled_at_utc"`
}

// TrendScoreRecord is the scored trend record of one country for one trend cycle.
type TrendScoreRecord struct {
	DataType       string `json:"dataType"`
	CycleID        string `json:"cycle_id"`
	Keyword        string `json:"keyword"`
	CountryCode3   string `json:"country_code_3"`
	CountryCode2   string `json:"country_code_2"`
	CountryNameKor string `json:"country_korean_name"`
	CountryNameEng string `json:"country_english_name"`

	TrendScoreRawGrowth       float64  `json:"trend_score_raw_growth"`
	ScaledRawGrowth           float64  `json:"scaled_raw_growth"`
	TrendScoreCurrentInterest float64  `json:"trend_score_current_interest"`
	AnchorGrowth              *float64 `json:"anchor_growth"`
	AnchorInterest            *float64 `json:"anchor_interest"`
	FinalTrendScore           float64  `json:"final_trend_score"`

	ScoringMode  ScoringMode `json:"scoring_mode"`
	CrawledAtUTC time.Time   `json:"crawled_at_utc"`
	CrawledAtKST time.Time   `json:"crawled_at_kst"`
}

// Clone returns a deep copy of the record.
func (r *CombinedCurrencyRecord) Clone() *CombinedCurrencyRecord {
	c := *r
	c.RealtimeRate = cloneFloat(r.RealtimeRate)
	c.RealtimeCrawledAtUTC = cloneTime(r.RealtimeCrawledAtUTC)
	c.RealtimeCrawledAtLocal = cloneTime(r.RealtimeCrawledAtLocal)
	c.DailyAvgRate = cloneFloat(r.DailyAvgRate)
	c.YearlyAvgRate = cloneFloat(r.YearlyAvgRate)
	c.ExchangeRateChangePercent = cloneFloat(r.ExchangeRateChangePercent)
	if r.MonthlyAvgRates != nil {
		c.MonthlyAvgRates = make(map[string]float64, len(r.MonthlyAvgRates))
		for k, v := range r.MonthlyAvgRates {
			c.MonthlyAvgRates[k] = v
		}
	}
	return &c
}

// Clone returns a deep copy of the record.
func (r *TrendScoreRecord) Clone() *TrendScoreRecord {
	c := *r
	c.AnchorGrowth = cloneFloat(r.AnchorGrowth)
	c.AnchorInterest = cloneFloat(r.AnchorInterest)
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Float64Ptr returns a pointer to v.
func Float64Ptr(v float64) *float64 {
	return &v
}
