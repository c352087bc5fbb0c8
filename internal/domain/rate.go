package domain

import (
	"fmt"
	"time"
)

// RateKind identifies which exchange-rate table a phase reads.
type RateKind string

const (
	RateKindRealtime       RateKind = "REALTIME"
	RateKindDailyAverage   RateKind = "DAILY_AVERAGE"
	RateKindMonthlyAverage RateKind = "MONTHLY_AVERAGE"
	RateKindYearlyAverage  RateKind = "YEARLY_AVERAGE"
)

// String returns the string representation of RateKind.
func (k RateKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known value.
func (k RateKind) IsValid() bool {
	switch k {
	case RateKindRealtime, RateKindDailyAverage, RateKindMonthlyAverage, RateKindYearlyAverage:
		return true
	}
	return false
}

// MonthKeyLayout is the time layout of a monthly average key ("YYYYMM").
const MonthKeyLayout = "200601"

// RateType is the tagged variant selecting a rate phase.
// MonthKey is set only for RateKindMonthlyAverage.
type RateType struct {
	Kind     RateKind
	MonthKey string
}

// Realtime returns the realtime rate type.
func Realtime() RateType { return RateType{Kind: RateKindRealtime} }

// DailyAverage returns the daily average rate type.
func DailyAverage() RateType { return RateType{Kind: RateKindDailyAverage} }

// MonthlyAverage returns the monthly average rate type for a "YYYYMM" key.
func MonthlyAverage(monthKey string) RateType {
	return RateType{Kind: RateKindMonthlyAverage, MonthKey: monthKey}
}

// YearlyAverage returns the yearly average rate type.
func YearlyAverage() RateType { return RateType{Kind: RateKindYearlyAverage} }

// Validate checks the kind and, for monthly averages, the month key format.
func (r RateType) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("unknown rate kind %q", r.Kind)
	}
	if r.Kind == RateKindMonthlyAverage {
		if _, err := time.Parse(MonthKeyLayout, r.MonthKey); err != nil {
			return fmt.Errorf("invalid month key %q: %w", r.MonthKey, err)
		}
	} else if r.MonthKey != "" {
		return fmt.Errorf("month key set on %s", r.Kind)
	}
	return nil
}

// String returns a phase label, e.g. "MONTHLY_AVERAGE(202501)".
func (r RateType) String() string {
	if r.Kind == RateKindMonthlyAverage {
		return fmt.Sprintf("%s(%s)", r.Kind, r.MonthKey)
	}
	return string(r.Kind)
}

// Layout returns the default table layout for this rate type.
func (r RateType) Layout() TableLayout {
	if r.Kind == RateKindRealtime {
		return RealtimeLayout
	}
	return AverageLayout
}

// TableLayout holds the cell indexes of one scraped rate table.
// A negative index means the column is absent and parses as zero.
type TableLayout struct {
	MinCells    int `mapstructure:"min_cells" validate:"gte=1"`
	CurrencyCol int `mapstructure:"currency_col" validate:"gte=0"`
	BuyCol      int `mapstructure:"buy_col"`
	SellCol     int `mapstructure:"sell_col"`
	SendCol     int `mapstructure:"send_col"`
	ReceiveCol  int `mapstructure:"receive_col"`
	StandardCol int `mapstructure:"standard_col" validate:"gte=0"`
}

// Default layouts of the KEB Hana rate tables.
var (
	RealtimeLayout = TableLayout{
		MinCells:    11,
		CurrencyCol: 0,
		BuyCol:      1,
		SellCol:     3,
		SendCol:     5,
		ReceiveCol:  6,
		StandardCol: 8,
	}
	AverageLayout = TableLayout{
		MinCells:    9,
		CurrencyCol: 0,
		BuyCol:      1,
		SellCol:     2,
		SendCol:     3,
		ReceiveCol:  4,
		StandardCol: 8,
	}
)

// RateObservation is one parsed row of a rate table.
// Only StandardRate is scored; the other rates are carried through.
type RateObservation struct {
	CurrencyCode    string
	BuyRate         float64
	SellRate        float64
	SendRate        float64
	ReceiveRate     float64
	StandardRate    float64
	ObservedAtUTC   time.Time
	ObservedAtLocal time.Time
}

// Timestamps returns the observation time pair.
func (o RateObservation) Timestamps() Timestamps {
	return Timestamps{UTC: o.ObservedAtUTC, Local: o.ObservedAtLocal}
}
