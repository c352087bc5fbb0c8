package publish

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/domain"
)

// File name prefixes of the local output.
const (
	RateFilePrefix  = "exchange_rates"
	TrendFilePrefix = "country_trends"
	fileStampLayout = "20060102_150405"
)

// FilePublisher writes each cycle as a JSON Lines file into a directory.
type FilePublisher struct {
	dir    string
	now    func() time.Time
	logger zerolog.Logger
}

// FilePublisherOptions contains configuration for creating a FilePublisher.
type FilePublisherOptions struct {
	Dir    string
	Now    func() time.Time // default: time.Now
	Logger *zerolog.Logger
}

// NewFilePublisher creates a new file publisher.
func NewFilePublisher(opts FilePublisherOptions) *FilePublisher {
	p := &FilePublisher{dir: opts.Dir, now: opts.Now, logger: zerolog.Nop()}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.Logger != nil {
		p.logger = opts.Logger.With().Str("component", "publish").Str("sink", "file").Logger()
	}
	return p
}

// PublishRates writes exchange_rates_<stamp>.jsonl.
func (p *FilePublisher) PublishRates(ctx context.Context, records []domain.CombinedCurrencyRecord) error {
	now := p.now()
	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, NewRateEvent(r, now))
	}
	return p.write(ctx, RateFilePrefix, now, events)
}

// PublishTrends writes country_trends_<stamp>.jsonl.
func (p *FilePublisher) PublishTrends(ctx context.Context, records []domain.TrendScoreRecord) error {
	now := p.now()
	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, NewTrendEvent(r, now))
	}
	return p.write(ctx, TrendFilePrefix, now, events)
}

func (p *FilePublisher) write(ctx context.Context, prefix string, now time.Time, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(p.dir, fmt.Sprintf("%s_%s.jsonl", prefix, now.In(domain.KST).Format(fileStampLayout)))
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("encode event %s: %w", ev.EventID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	p.logger.Info().Str("path", path).Int("count", len(events)).Msg("records written")
	return nil
}

// Close is a no-op.
func (p *FilePublisher) Close() error { return nil }

var _ Publisher = (*FilePublisher)(nil)
