package domain

// DefaultAnchorKeyword is the overseas-travel baseline search term.
const DefaultAnchorKeyword = "해외여행"

// TrendKeywordSuffix is appended to a Korean country name to form its search keyword.
const TrendKeywordSuffix = " 여행"

// TrendObservation is the summarized signal of one keyword in one batch.
// The anchor fields carry the anchor keyword observed in the same batch.
type TrendObservation struct {
	Keyword         string
	RawGrowth       float64 // fractional change between two 15-day windows
	CurrentInterest float64 // 0-100 source scale
	AnchorGrowth    *float64
	AnchorInterest  *float64
	BatchID         string
}

// TrendBatch is one group of keywords fetched together with the anchor.
type TrendBatch struct {
	ID       string
	Anchor   string
	Keywords []string
}

// AllKeywords returns the anchor followed by the batch keywords.
func (b TrendBatch) AllKeywords() []string {
	out := make([]string, 0, len(b.Keywords)+1)
	out = append(out, b.Anchor)
	out = append(out, b.Keywords...)
	return out
}

// ScoringMode records which trend formula produced a cycle's scores.
type ScoringMode string

const (
	ScoringModeFixed    ScoringMode = "fixed"
	ScoringModeRelative ScoringMode = "relative"
)
