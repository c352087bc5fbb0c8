// Package scoring computes the bounded 0-100 comparison scores.
// All functions are pure.
package scoring

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"travel-data-pipeline/internal/domain"
)

// Score constants.
const (
	MinScore = 0.0
	MaxScore = 100.0

	// DeviationWindowPct is the half-width of the change window mapped onto [100, 0].
	DeviationWindowPct = 10.0

	// GrowthCeiling is the scaled growth that normalizes to 100.
	GrowthCeiling = 10.0

	GrowthWeight   = 0.7
	InterestWeight = 0.3

	changePercentPlaces = 2
)

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// RoundPercent rounds half away from zero to two decimals.
func RoundPercent(v float64) float64 {
	return decimal.NewFromFloat(v).Round(changePercentPlaces).InexactFloat64()
}

// ExchangeRateScore compares the realtime rate with the yearly average.
// A missing input or a non-positive yearly average yields a nil change and
// a zero score. Otherwise a lower realtime rate scores higher:
// -10% or below is 100, +10% or above is 0.
func ExchangeRateScore(realtime, yearly *float64) (changePercent *float64, score float64) {
	if realtime == nil || yearly == nil || *yearly <= 0 {
		return nil, MinScore
	}

	change := RoundPercent((*realtime - *yearly) / *yearly * 100)
	score = Clamp((DeviationWindowPct-change)/(2*DeviationWindowPct)*100, MinScore, MaxScore)
	return &change, score
}

// ScaleGrowth dampens positive growth with log10(1+g); negative growth
// passes through unchanged.
func ScaleGrowth(rawGrowth float64) float64 {
	switch {
	case rawGrowth > 0:
		return math.Log10(1 + rawGrowth)
	case rawGrowth < 0:
		return rawGrowth
	default:
		return 0
	}
}

// NormalizeGrowth maps scaled growth onto [0, 100]. Declines contribute 0.
func NormalizeGrowth(scaled float64) float64 {
	if scaled <= 0 {
		return 0
	}
	return math.Min(scaled/GrowthCeiling*100, MaxScore)
}

// Composite combines normalized growth and interest with the fixed weights.
func Composite(normalizedGrowth, interest float64) float64 {
	return Clamp(normalizedGrowth*GrowthWeight+interest*InterestWeight, MinScore, MaxScore)
}

// TrendScore is the fixed-scale trend score of one country.
func TrendScore(rawGrowth, currentInterest float64) float64 {
	return Composite(NormalizeGrowth(ScaleGrowth(rawGrowth)), currentInterest)
}

// TrendInput is one country's trend signal.
type TrendInput struct {
	Key             string
	RawGrowth       float64
	CurrentInterest float64
}

// TrendResult is the score of one TrendInput.
type TrendResult struct {
	Key    string
	Scaled float64
	Final  float64
}

// SelectMode picks the scoring mode of a whole trend cycle. The fixed scale
// is used only when the anchor was observed with a positive mean growth.
func SelectMode(meanAnchorGrowth float64, anchorObserved bool) domain.ScoringMode {
	if !anchorObserved || meanAnchorGrowth <= 0 {
		return domain.ScoringModeRelative
	}
	return domain.ScoringModeFixed
}

// ScoreTrends scores every input with one mode. Results are ordered by Key.
func ScoreTrends(inputs []TrendInput, mode domain.ScoringMode) []TrendResult {
	sorted := make([]TrendInput, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	results := make([]TrendResult, len(sorted))
	if mode == domain.ScoringModeRelative {
		gLo, gHi := bounds(sorted, func(in TrendInput) float64 { return in.RawGrowth })
		iLo, iHi := bounds(sorted, func(in TrendInput) float64 { return in.CurrentInterest })
		for i, in := range sorted {
			results[i] = TrendResult{
				Key:    in.Key,
				Scaled: ScaleGrowth(in.RawGrowth),
				Final: Composite(
					minMax(in.RawGrowth, gLo, gHi),
					minMax(in.CurrentInterest, iLo, iHi),
				),
			}
		}
		return results
	}

	for i, in := range sorted {
		results[i] = TrendResult{
			Key:    in.Key,
			Scaled: ScaleGrowth(in.RawGrowth),
			Final:  TrendScore(in.RawGrowth, in.CurrentInterest),
		}
	}
	return results
}

// bounds returns the min and max of a field, widened to include 0.
func bounds(inputs []TrendInput, field func(TrendInput) float64) (lo, hi float64) {
	for _, in := range inputs {
		v := field(in)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// minMax maps v from [lo, hi] onto [0, 100]. A flat range maps to 0.
func minMax(v, lo, hi float64) float64 {
	if hi-lo <= 0 {
		return 0
	}
	return (v - lo) / (hi - lo) * 100
}
