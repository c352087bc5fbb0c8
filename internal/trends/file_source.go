package trends

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/domain"
)

// ErrExportNotFound is returned when a batch has no export file.
var ErrExportNotFound = errors.New("trend export not found")

// Export is one interest-over-time export: a date axis and one value
// column per keyword. null marks a missing point.
type Export struct {
	Dates  []string              `json:"dates"`
	Series map[string][]*float64 `json:"series"`
}

// Values converts the export columns to a Series.
func (e Export) Values() Series {
	out := make(Series, len(e.Series))
	for kw, col := range e.Series {
		values := make([]float64, len(col))
		for i, v := range col {
			if v == nil {
				values[i] = math.NaN()
				continue
			}
			values[i] = *v
		}
		out[kw] = values
	}
	return out
}

// FileSource reads one export file per batch from a directory, named
// "<batch id>.json". Implements ingestion.TrendSource interface.
type FileSource struct {
	dir    string
	logger zerolog.Logger
}

// FileSourceOptions contains configuration for creating a FileSource.
type FileSourceOptions struct {
	Dir    string
	Logger *zerolog.Logger
}

// NewFileSource creates a new export file source.
func NewFileSource(opts FileSourceOptions) *FileSource {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "trends").Logger()
	}
	return &FileSource{dir: opts.Dir, logger: logger}
}

// ReadExport decodes one export file.
func ReadExport(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Export{}, fmt.Errorf("%w: %s", ErrExportNotFound, path)
		}
		return Export{}, fmt.Errorf("read export: %w", err)
	}
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return Export{}, fmt.Errorf("decode export %s: %w", path, err)
	}
	return exp, nil
}

// FetchTrends summarizes the batch export. A missing or malformed file is
// not retried.
func (s *FileSource) FetchTrends(ctx context.Context, batch domain.TrendBatch) ([]domain.TrendObservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, batch.ID+".json")
	exp, err := ReadExport(path)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	rows, missing := Summarize(exp.Values(), batch.Keywords, batch.Anchor)
	for _, kw := range missing {
		s.logger.Warn().Str("batch", batch.ID).Str("keyword", kw).Msg("no column for keyword, skipping")
	}
	for i := range rows {
		rows[i].BatchID = batch.ID
	}
	return rows, nil
}
