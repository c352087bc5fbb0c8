// Package trends turns search-interest time series into per-keyword growth
// and interest signals and groups keywords into fetch batches.
package trends

import (
	"math"

	"travel-data-pipeline/internal/domain"
)

// Window sizes of the growth comparison.
const (
	WindowSize = 15
	// Epsilon replaces a zero baseline so a keyword that appears from
	// nothing reports a very large growth instead of dividing by zero.
	Epsilon = 1e-6
	// AnchorColdStartGrowth is the anchor growth when its baseline is zero.
	AnchorColdStartGrowth = 1.0
)

// Series holds interest values per keyword, oldest first. NaN marks a
// missing point.
type Series map[string][]float64

// Summarize computes the signal of every keyword in keywords that has a
// column in series. The anchor row, when present, is always returned
// first; the other rows carry the anchor values of the same batch.
// Keywords without a column are returned in missing.
func Summarize(series Series, keywords []string, anchor string) (rows []domain.TrendObservation, missing []string) {
	var anchorGrowth, anchorInterest *float64
	if values, ok := series[anchor]; ok {
		g := growth(values, AnchorColdStartGrowth)
		i := lastValue(values)
		anchorGrowth, anchorInterest = &g, &i
		rows = append(rows, domain.TrendObservation{
			Keyword:         anchor,
			RawGrowth:       g,
			CurrentInterest: i,
		})
	}

	for _, kw := range keywords {
		if kw == anchor {
			continue
		}
		values, ok := series[kw]
		if !ok {
			missing = append(missing, kw)
			continue
		}
		rows = append(rows, domain.TrendObservation{
			Keyword:         kw,
			RawGrowth:       growth(values, math.NaN()),
			CurrentInterest: lastValue(values),
			AnchorGrowth:    copyFloat(anchorGrowth),
			AnchorInterest:  copyFloat(anchorInterest),
		})
	}
	return rows, missing
}

// Growth returns the relative change of the last window mean over the
// previous window mean for a keyword series.
func Growth(values []float64) float64 {
	return growth(values, math.NaN())
}

// growth compares the mean of the last WindowSize points with the mean of
// the WindowSize points before them. When the previous mean is not
// positive and the last mean is, coldStart is returned; a NaN coldStart
// selects last/Epsilon.
func growth(values []float64, coldStart float64) float64 {
	n := len(values)
	lastFrom := max(n-WindowSize, 0)
	prevFrom := max(n-2*WindowSize, 0)

	last := mean(values[lastFrom:])
	prev := mean(values[prevFrom:lastFrom])

	switch {
	case prev > 0:
		return (last - prev) / prev
	case last > 0:
		if math.IsNaN(coldStart) {
			return last / Epsilon
		}
		return coldStart
	default:
		return 0
	}
}

// mean ignores NaN points; it is NaN when no point is set.
func mean(values []float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// lastValue is the most recent point, 0 when absent or missing.
func lastValue(values []float64) float64 {
	if len(values) == 0 || math.IsNaN(values[len(values)-1]) {
		return 0
	}
	return values[len(values)-1]
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
