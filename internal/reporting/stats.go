package reporting

import (
	"math"
	"slices"
)

// ComputeScoreStats summarizes the score distribution of a cycle. Stddev is
// the sample deviation; percentiles interpolate between neighbouring ranks.
func ComputeScoreStats(scores []float64) ScoreStats {
	if len(scores) == 0 {
		return ScoreStats{}
	}

	sorted := slices.Clone(scores)
	slices.Sort(sorted)

	// Welford's running mean and squared deviation.
	var mean, m2 float64
	for i, v := range sorted {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)
	}

	st := ScoreStats{
		Count:  len(sorted),
		Mean:   mean,
		Median: quantile(sorted, 0.5),
		P10:    quantile(sorted, 0.1),
		P90:    quantile(sorted, 0.9),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
	if st.Count > 1 {
		st.Stddev = math.Sqrt(m2 / float64(st.Count-1))
	}
	return st
}

// quantile reads q in [0, 1] from ascending values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}
