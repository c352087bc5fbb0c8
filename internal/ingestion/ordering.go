package ingestion

import (
	"sort"
	"strings"

	"travel-data-pipeline/internal/domain"
)

// SortRateObservations orders rows by currency code, keeping table order
// for repeated codes so the last table row wins when recorded.
func SortRateObservations(rows []domain.RateObservation) {
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToUpper(rows[i].CurrencyCode) < strings.ToUpper(rows[j].CurrencyCode)
	})
}
