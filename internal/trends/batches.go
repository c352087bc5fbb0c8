package trends

import (
	"fmt"
	"sort"
	"strings"

	"travel-data-pipeline/internal/domain"
)

// DefaultBatchSize is the keyword limit of one interest-over-time request,
// anchor included.
const DefaultBatchSize = 5

// BuildBatches groups keywords into batches of size-1 keywords plus the
// anchor. Keywords are deduplicated and sorted so the same registry always
// yields the same batches.
func BuildBatches(keywords []string, anchor string, size int) []domain.TrendBatch {
	if size < 2 {
		size = DefaultBatchSize
	}
	anchor = strings.TrimSpace(anchor)

	seen := make(map[string]bool, len(keywords))
	unique := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || kw == anchor || seen[kw] {
			continue
		}
		seen[kw] = true
		unique = append(unique, kw)
	}
	sort.Strings(unique)

	per := size - 1
	batches := make([]domain.TrendBatch, 0, (len(unique)+per-1)/per)
	for start := 0; start < len(unique); start += per {
		end := min(start+per, len(unique))
		group := make([]string, end-start)
		copy(group, unique[start:end])
		batches = append(batches, domain.TrendBatch{
			ID:       fmt.Sprintf("batch-%02d", len(batches)+1),
			Anchor:   anchor,
			Keywords: group,
		})
	}
	return batches
}
