// Package collector accumulates raw rate and trend observations of one
// crawl cycle, keyed by the raw identifier the upstream reported.
package collector

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"travel-data-pipeline/internal/domain"
)

// Matcher tells the collector whether a raw identifier is known.
// *registry.Registry satisfies it.
type Matcher interface {
	LookupByCurrency(code string) []domain.CountryRecord
	LookupByTrendKeyword(keyword string) (domain.CountryRecord, bool)
}

// Observed is one recorded value with the time it was observed.
type Observed struct {
	Value float64
	At    domain.Timestamps
}

// RateEntry holds every rate phase value seen for one raw currency code.
type RateEntry struct {
	RawCode      string
	Realtime     *Observed
	DailyAvg     *Observed
	MonthlyAvg   map[string]Observed // keyed by "YYYYMM"
	YearlyAvg    *Observed
	Unrecognized bool
}

// TrendEntry is the latest observation of one raw keyword.
type TrendEntry struct {
	Keyword         string
	BatchID         string
	RawGrowth       float64
	CurrentInterest float64
	At              domain.Timestamps
	Unrecognized    bool
}

// AnchorSample is the anchor keyword as observed in one batch.
type AnchorSample struct {
	BatchID  string
	Growth   float64
	Interest float64
}

// Collector is safe for concurrent use; trend batches may record in parallel.
type Collector struct {
	matcher Matcher
	anchor  string

	mu      sync.Mutex
	rates   map[string]*RateEntry
	trends  map[string]*TrendEntry
	anchors map[string]AnchorSample // keyed by batch ID
}

// New creates an empty collector. anchor is the trend keyword treated as
// the comparison baseline; it is never flagged as unrecognized.
func New(matcher Matcher, anchor string) *Collector {
	return &Collector{
		matcher: matcher,
		anchor:  strings.TrimSpace(anchor),
		rates:   make(map[string]*RateEntry),
		trends:  make(map[string]*TrendEntry),
		anchors: make(map[string]AnchorSample),
	}
}

// RecordRate stores one rate value under its raw currency code.
// Recording the same (code, rate type) again overwrites the earlier value.
func (c *Collector) RecordRate(rawCode string, rt domain.RateType, value float64, at domain.Timestamps) error {
	if err := rt.Validate(); err != nil {
		return fmt.Errorf("record rate %s: %w", rawCode, err)
	}
	key := normalizeCode(rawCode)
	if key == "" {
		return fmt.Errorf("record rate: empty currency code")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.rates[key]
	if !ok {
		entry = &RateEntry{
			RawCode:      key,
			Unrecognized: c.matcher != nil && len(c.matcher.LookupByCurrency(key)) == 0,
		}
		c.rates[key] = entry
	}

	obs := &Observed{Value: value, At: at}
	switch rt.Kind {
	case domain.RateKindRealtime:
		entry.Realtime = obs
	case domain.RateKindDailyAverage:
		entry.DailyAvg = obs
	case domain.RateKindMonthlyAverage:
		if entry.MonthlyAvg == nil {
			entry.MonthlyAvg = make(map[string]Observed)
		}
		entry.MonthlyAvg[rt.MonthKey] = *obs
	case domain.RateKindYearlyAverage:
		entry.YearlyAvg = obs
	}
	return nil
}

// RecordObservations records every row of one rate phase.
// Rows that cannot be recorded are returned as errors; the rest are kept.
func (c *Collector) RecordObservations(rt domain.RateType, rows []domain.RateObservation) []error {
	var errs []error
	for _, row := range rows {
		if err := c.RecordRate(row.CurrencyCode, rt, row.StandardRate, row.Timestamps()); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// RecordTrend stores the summarized signal of one keyword from a batch.
// The anchor keyword is stored per batch as comparison context.
func (c *Collector) RecordTrend(batchID, keyword string, rawGrowth, currentInterest float64, at domain.Timestamps) error {
	kw := strings.TrimSpace(keyword)
	if kw == "" {
		return fmt.Errorf("record trend: empty keyword")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if kw == c.anchor {
		c.anchors[batchID] = AnchorSample{BatchID: batchID, Growth: rawGrowth, Interest: currentInterest}
		return nil
	}

	unrecognized := false
	if c.matcher != nil {
		_, ok := c.matcher.LookupByTrendKeyword(kw)
		unrecognized = !ok
	}
	c.trends[kw] = &TrendEntry{
		Keyword:         kw,
		BatchID:         batchID,
		RawGrowth:       rawGrowth,
		CurrentInterest: currentInterest,
		At:              at,
		Unrecognized:    unrecognized,
	}
	return nil
}

// Snapshot is a point-in-time copy of the accumulator, ordered by key.
type Snapshot struct {
	Rates   []RateEntry
	Trends  []TrendEntry
	Anchors []AnchorSample
}

// Snapshot copies the accumulator. Later records do not affect the result.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Rates:   make([]RateEntry, 0, len(c.rates)),
		Trends:  make([]TrendEntry, 0, len(c.trends)),
		Anchors: make([]AnchorSample, 0, len(c.anchors)),
	}

	for _, e := range c.rates {
		cp := *e
		cp.Realtime = copyObserved(e.Realtime)
		cp.DailyAvg = copyObserved(e.DailyAvg)
		cp.YearlyAvg = copyObserved(e.YearlyAvg)
		if e.MonthlyAvg != nil {
			cp.MonthlyAvg = make(map[string]Observed, len(e.MonthlyAvg))
			for k, v := range e.MonthlyAvg {
				cp.MonthlyAvg[k] = v
			}
		}
		snap.Rates = append(snap.Rates, cp)
	}
	sort.Slice(snap.Rates, func(i, j int) bool {
		return snap.Rates[i].RawCode < snap.Rates[j].RawCode
	})

	for _, e := range c.trends {
		snap.Trends = append(snap.Trends, *e)
	}
	sort.Slice(snap.Trends, func(i, j int) bool {
		return snap.Trends[i].Keyword < snap.Trends[j].Keyword
	})

	for _, a := range c.anchors {
		snap.Anchors = append(snap.Anchors, a)
	}
	sort.Slice(snap.Anchors, func(i, j int) bool {
		return snap.Anchors[i].BatchID < snap.Anchors[j].BatchID
	})

	return snap
}

// Unrecognized returns the raw identifiers with no registry match.
func (s Snapshot) Unrecognized() []string {
	var out []string
	for _, e := range s.Rates {
		if e.Unrecognized {
			out = append(out, e.RawCode)
		}
	}
	for _, e := range s.Trends {
		if e.Unrecognized {
			out = append(out, e.Keyword)
		}
	}
	return out
}

// Anchor returns the anchor sample of a batch.
func (s Snapshot) Anchor(batchID string) (AnchorSample, bool) {
	for _, a := range s.Anchors {
		if a.BatchID == batchID {
			return a, true
		}
	}
	return AnchorSample{}, false
}

// MeanAnchorGrowth averages the anchor growth over all batches.
// ok is false when no batch reported the anchor.
func (s Snapshot) MeanAnchorGrowth() (mean float64, ok bool) {
	if len(s.Anchors) == 0 {
		return 0, false
	}
	var sum float64
	for _, a := range s.Anchors {
		sum += a.Growth
	}
	return sum / float64(len(s.Anchors)), true
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func copyObserved(o *Observed) *Observed {
	if o == nil {
		return nil
	}
	cp := *o
	return &cp
}
