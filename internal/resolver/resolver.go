// Package resolver fans raw-keyed observations out onto canonical countries.
package resolver

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/collector"
	"travel-data-pipeline/internal/domain"
)

// Registry is the subset of the country registry the resolver reads.
type Registry interface {
	LookupByCurrency(code string) []domain.CountryRecord
	EurozoneMembers() []domain.CountryRecord
	LookupByTrendKeyword(keyword string) (domain.CountryRecord, bool)
}

// Diagnostic kinds.
const (
	DiagUnknownCurrency = "unknown_currency"
	DiagUnknownKeyword  = "unknown_keyword"
	DiagConflict        = "conflict"
	DiagMissingAnchor   = "missing_anchor"
)

// Diagnostic reports a raw entry that was discarded or merged.
type Diagnostic struct {
	Kind    string
	Key     string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Key, d.Message)
}

// CountryRates is the rate accumulator of one canonical country.
type CountryRates struct {
	Country    domain.CountryRecord
	SourceCode string
	Realtime   *collector.Observed
	DailyAvg   *collector.Observed
	MonthlyAvg map[string]float64
	YearlyAvg  *collector.Observed
}

// CountryTrend is the trend accumulator of one canonical country.
type CountryTrend struct {
	Country         domain.CountryRecord
	Keyword         string
	BatchID         string
	RawGrowth       float64
	CurrentInterest float64
	AnchorGrowth    *float64
	AnchorInterest  *float64
	At              domain.Timestamps
}

// RateResolution is the rate fan-out result, ordered by country_code_3.
type RateResolution struct {
	Countries   []CountryRates
	Diagnostics []Diagnostic
}

// TrendResolution is the trend fan-out result, ordered by country_code_3.
type TrendResolution struct {
	Countries   []CountryTrend
	Diagnostics []Diagnostic
}

// Resolver maps raw identifiers onto registry countries. It never fails:
// unresolvable entries become diagnostics.
type Resolver struct {
	registry Registry
	logger   zerolog.Logger
}

// Options for creating a Resolver.
type Options struct {
	Registry Registry
	Logger   *zerolog.Logger // default: no-op
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "resolver").Logger()
	}
	return &Resolver{registry: opts.Registry, logger: logger}
}

// targets returns the countries a currency code fans out to.
// EUR goes to the eurozone members; other codes to every registry match.
func (r *Resolver) targets(code string) []domain.CountryRecord {
	if code == domain.CurrencyEUR {
		if members := r.registry.EurozoneMembers(); len(members) > 0 {
			return members
		}
	}
	return r.registry.LookupByCurrency(code)
}

// ResolveRates copies each raw currency entry onto every country it
// applies to. A shared currency copies the same values to each member.
func (r *Resolver) ResolveRates(snap collector.Snapshot) RateResolution {
	var res RateResolution
	byCountry := make(map[string]*CountryRates)

	for _, entry := range snap.Rates {
		countries := r.targets(entry.RawCode)
		if len(countries) == 0 {
			d := Diagnostic{Kind: DiagUnknownCurrency, Key: entry.RawCode, Message: "unknown currency code, discarded"}
			r.logger.Warn().Str("currency", entry.RawCode).Msg("unknown currency code")
			res.Diagnostics = append(res.Diagnostics, d)
			continue
		}

		for _, country := range countries {
			acc, exists := byCountry[country.CountryCode3]
			if !exists {
				acc = &CountryRates{Country: country}
				byCountry[country.CountryCode3] = acc
			} else {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Kind:    DiagConflict,
					Key:     country.CountryCode3,
					Message: fmt.Sprintf("currency %s overrides %s", entry.RawCode, acc.SourceCode),
				})
			}
			mergeRates(acc, entry)
		}
	}

	res.Countries = make([]CountryRates, 0, len(byCountry))
	for _, acc := range byCountry {
		res.Countries = append(res.Countries, *acc)
	}
	sort.Slice(res.Countries, func(i, j int) bool {
		return res.Countries[i].Country.CountryCode3 < res.Countries[j].Country.CountryCode3
	})

	r.logger.Debug().
		Int("raw_codes", len(snap.Rates)).
		Int("countries", len(res.Countries)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("rates resolved")
	return res
}

// mergeRates overwrites the fields the entry carries. Values are copied so
// fanned-out countries never share pointers.
func mergeRates(acc *CountryRates, entry collector.RateEntry) {
	acc.SourceCode = entry.RawCode
	if entry.Realtime != nil {
		v := *entry.Realtime
		acc.Realtime = &v
	}
	if entry.DailyAvg != nil {
		v := *entry.DailyAvg
		acc.DailyAvg = &v
	}
	if entry.YearlyAvg != nil {
		v := *entry.YearlyAvg
		acc.YearlyAvg = &v
	}
	if len(entry.MonthlyAvg) > 0 {
		if acc.MonthlyAvg == nil {
			acc.MonthlyAvg = make(map[string]float64, len(entry.MonthlyAvg))
		}
		for month, obs := range entry.MonthlyAvg {
			acc.MonthlyAvg[month] = obs.Value
		}
	}
}

// ResolveTrends maps each keyword 1:1 to its country and attaches the
// anchor observed in the same batch.
func (r *Resolver) ResolveTrends(snap collector.Snapshot) TrendResolution {
	var res TrendResolution
	byCountry := make(map[string]*CountryTrend)

	for _, entry := range snap.Trends {
		country, ok := r.registry.LookupByTrendKeyword(entry.Keyword)
		if !ok {
			r.logger.Warn().Str("keyword", entry.Keyword).Msg("unknown trend keyword")
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind: DiagUnknownKeyword, Key: entry.Keyword, Message: "no country for keyword, discarded",
			})
			continue
		}

		trend := &CountryTrend{
			Country:         country,
			Keyword:         entry.Keyword,
			BatchID:         entry.BatchID,
			RawGrowth:       entry.RawGrowth,
			CurrentInterest: entry.CurrentInterest,
			At:              entry.At,
		}
		if anchor, ok := snap.Anchor(entry.BatchID); ok {
			trend.AnchorGrowth = domain.Float64Ptr(anchor.Growth)
			trend.AnchorInterest = domain.Float64Ptr(anchor.Interest)
		} else {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind: DiagMissingAnchor, Key: entry.Keyword, Message: fmt.Sprintf("batch %s has no anchor", entry.BatchID),
			})
		}

		if prev, exists := byCountry[country.CountryCode3]; exists {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Kind:    DiagConflict,
				Key:     country.CountryCode3,
				Message: fmt.Sprintf("keyword %q overrides %q", entry.Keyword, prev.Keyword),
			})
		}
		byCountry[country.CountryCode3] = trend
	}

	res.Countries = make([]CountryTrend, 0, len(byCountry))
	for _, t := range byCountry {
		res.Countries = append(res.Countries, *t)
	}
	sort.Slice(res.Countries, func(i, j int) bool {
		return res.Countries[i].Country.CountryCode3 < res.Countries[j].Country.CountryCode3
	})

	r.logger.Debug().
		Int("keywords", len(snap.Trends)).
		Int("countries", len(res.Countries)).
		Int("diagnostics", len(res.Diagnostics)).
		Msg("trends resolved")
	return res
}
