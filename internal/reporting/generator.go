package reporting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"travel-data-pipeline/internal/cycle"
	"travel-data-pipeline/internal/domain"
	"travel-data-pipeline/internal/ingestion"
	"travel-data-pipeline/internal/storage"
)

// DefaultTopN is the number of countries listed in the top-score table.
const DefaultTopN = 10

// ErrNoHistoryStore is returned by CountryHistory without any record store.
var ErrNoHistoryStore = errors.New("no record store configured")

// Generator produces cycle reports from cycle results and stored records.
type Generator struct {
	rates        storage.RateRecordStore
	trends       storage.TrendRecordStore
	registrySize int
	topN         int
	now          func() time.Time // Injectable clock for deterministic output
}

// Options contains configuration for creating a Generator.
type Options struct {
	Rates        storage.RateRecordStore  // optional, used by CountryHistory
	Trends       storage.TrendRecordStore // optional, used by CountryHistory
	RegistrySize int
	TopN         int // default: DefaultTopN
}

// NewGenerator creates a new report generator.
func NewGenerator(opts Options) *Generator {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Generator{
		rates:        opts.Rates,
		trends:       opts.Trends,
		registrySize: opts.RegistrySize,
		topN:         topN,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// FromRateResult builds the report of a rate cycle.
func (g *Generator) FromRateResult(res *cycle.RateResult) *CycleReport {
	scores := make([]float64, len(res.Records))
	ranked := make([]RankedRow, len(res.Records))
	for i, r := range res.Records {
		scores[i] = r.ExchangeRateScore
		detail := r.CurrencyCode
		if r.ExchangeRateChangePercent != nil {
			detail = fmt.Sprintf("%s %+.2f%%", r.CurrencyCode, *r.ExchangeRateChangePercent)
		}
		ranked[i] = RankedRow{
			CountryCode3: r.CountryCode3,
			CountryName:  r.CountryNameEng,
			Score:        r.ExchangeRateScore,
			Detail:       detail,
		}
	}

	return &CycleReport{
		Kind:         storage.CycleKindRates,
		CycleID:      res.CycleID,
		GeneratedAt:  g.now(),
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		RegistrySize: g.registrySize,
		Records:      len(res.Records),
		Phases:       phaseRows(res.Phases),
		Scores:       ComputeScoreStats(scores),
		TopRecords:   g.top(ranked),
		Unknown:      copyStrings(res.Unknown),
		Diagnostics:  copyStrings(res.Diagnostics),
		Errors:       copyStrings(res.Errors),
	}
}

// FromTrendResult builds the report of a trend cycle.
func (g *Generator) FromTrendResult(res *cycle.TrendResult) *CycleReport {
	scores := make([]float64, len(res.Records))
	ranked := make([]RankedRow, len(res.Records))
	for i, r := range res.Records {
		scores[i] = r.FinalTrendScore
		ranked[i] = RankedRow{
			CountryCode3: r.CountryCode3,
			CountryName:  r.CountryNameEng,
			Score:        r.FinalTrendScore,
			Detail:       fmt.Sprintf("growth %+.1f%% interest %.0f", r.TrendScoreRawGrowth*100, r.TrendScoreCurrentInterest),
		}
	}

	return &CycleReport{
		Kind:         storage.CycleKindTrends,
		CycleID:      res.CycleID,
		GeneratedAt:  g.now(),
		StartedAt:    res.StartedAt,
		FinishedAt:   res.FinishedAt,
		Mode:         string(res.Mode),
		RegistrySize: g.registrySize,
		Records:      len(res.Records),
		Phases:       phaseRows(res.Phases),
		Scores:       ComputeScoreStats(scores),
		TopRecords:   g.top(ranked),
		Unknown:      copyStrings(res.Unknown),
		Diagnostics:  copyStrings(res.Diagnostics),
		Errors:       copyStrings(res.Errors),
	}
}

// CountryHistory merges the stored rate and trend records of one country,
// ordered by time then data type.
func (g *Generator) CountryHistory(ctx context.Context, countryCode3 string) ([]HistoryRow, error) {
	if g.rates == nil && g.trends == nil {
		return nil, ErrNoHistoryStore
	}

	var rows []HistoryRow
	if g.rates != nil {
		records, err := g.rates.GetByCountry(ctx, countryCode3)
		if err != nil {
			return nil, fmt.Errorf("rate history: %w", err)
		}
		for _, r := range records {
			rows = append(rows, HistoryRow{
				DataType: domain.DataTypeExchangeRate,
				CycleID:  r.CycleID,
				At:       r.CompiledAtUTC,
				Score:    r.ExchangeRateScore,
			})
		}
	}
	if g.trends != nil {
		records, err := g.trends.GetByCountry(ctx, countryCode3)
		if err != nil {
			return nil, fmt.Errorf("trend history: %w", err)
		}
		for _, r := range records {
			rows = append(rows, HistoryRow{
				DataType: domain.DataTypeGoogleTrend,
				CycleID:  r.CycleID,
				At:       r.CrawledAtUTC,
				Score:    r.FinalTrendScore,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].At.Equal(rows[j].At) {
			return rows[i].At.Before(rows[j].At)
		}
		return rows[i].DataType < rows[j].DataType
	})
	return rows, nil
}

// WriteRateReport writes the Markdown report and the record CSV of a rate
// cycle into dir and returns the written paths.
func (g *Generator) WriteRateReport(dir string, res *cycle.RateResult) ([]string, error) {
	report := g.FromRateResult(res)
	return writeReport(dir, report, func(w io.Writer) error {
		return RenderRateCSV(w, res.Records)
	})
}

// WriteTrendReport writes the Markdown report and the record CSV of a
// trend cycle into dir and returns the written paths.
func (g *Generator) WriteTrendReport(dir string, res *cycle.TrendResult) ([]string, error) {
	report := g.FromTrendResult(res)
	return writeReport(dir, report, func(w io.Writer) error {
		return RenderTrendCSV(w, res.Records)
	})
}

func writeReport(dir string, report *CycleReport, renderCSV func(io.Writer) error) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	base := filepath.Join(dir, fmt.Sprintf("%s_report_%s", report.Kind, report.CycleID))

	mdPath := base + ".md"
	if err := os.WriteFile(mdPath, []byte(RenderCycleMarkdown(report)), 0o644); err != nil {
		return nil, fmt.Errorf("write markdown: %w", err)
	}

	csvPath := base + ".csv"
	f, err := os.Create(csvPath)
	if err != nil {
		return nil, fmt.Errorf("create csv: %w", err)
	}
	if err := renderCSV(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close csv: %w", err)
	}
	return []string{mdPath, csvPath}, nil
}

func (g *Generator) top(rows []RankedRow) []RankedRow {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].CountryCode3 < rows[j].CountryCode3
	})
	if len(rows) > g.topN {
		rows = rows[:g.topN]
	}
	return rows
}

func phaseRows(outcomes []ingestion.PhaseOutcome) []PhaseRow {
	rows := make([]PhaseRow, len(outcomes))
	for i, o := range outcomes {
		rows[i] = PhaseRow{
			Name:     o.Name,
			Status:   string(o.Status),
			Rows:     o.Rows,
			Attempts: o.Attempts,
			Duration: o.Duration,
			Err:      o.Err,
		}
	}
	return rows
}

func copyStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
