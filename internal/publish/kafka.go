package publish

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"travel-data-pipeline/internal/domain"
)

// Default Kafka settings.
const (
	DefaultRateTopic    = "travel.exchange-rates"
	DefaultTrendTopic   = "travel.google-trends"
	DefaultMaxAttempts  = 5
	DefaultBatchTimeout = 500 * time.Millisecond
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures the Kafka writer.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	RateTopic    string        `mapstructure:"rate_topic"`
	TrendTopic   string        `mapstructure:"trend_topic"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// NewKafkaWriter creates a writer that waits for all replicas and
// balances by key hash, so every event of a country lands on the same
// partition.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = DefaultBatchTimeout
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		Compression:            kafka.Gzip,
		RequiredAcks:           kafka.RequireAll,
		MaxAttempts:            attempts,
		BatchTimeout:           batchTimeout,
	}
}

// KafkaPublisher publishes events as JSON messages keyed by country_code_3.
type KafkaPublisher struct {
	writer     MessageWriter
	rateTopic  string
	trendTopic string
	now        func() time.Time
	logger     zerolog.Logger
}

// KafkaPublisherOptions contains configuration for creating a KafkaPublisher.
type KafkaPublisherOptions struct {
	Writer     MessageWriter
	RateTopic  string           // default: DefaultRateTopic
	TrendTopic string           // default: DefaultTrendTopic
	Now        func() time.Time // default: time.Now
	Logger     *zerolog.Logger
}

// NewKafkaPublisher creates a new Kafka publisher.
func NewKafkaPublisher(opts KafkaPublisherOptions) *KafkaPublisher {
	p := &KafkaPublisher{
		writer:     opts.Writer,
		rateTopic:  opts.RateTopic,
		trendTopic: opts.TrendTopic,
		now:        opts.Now,
		logger:     zerolog.Nop(),
	}
	if p.rateTopic == "" {
		p.rateTopic = DefaultRateTopic
	}
	if p.trendTopic == "" {
		p.trendTopic = DefaultTrendTopic
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.Logger != nil {
		p.logger = opts.Logger.With().Str("component", "publish").Str("sink", "kafka").Logger()
	}
	return p
}

// PublishRates writes one message per rate record.
func (p *KafkaPublisher) PublishRates(ctx context.Context, records []domain.CombinedCurrencyRecord) error {
	now := p.now()
	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, NewRateEvent(r, now))
	}
	return p.write(ctx, p.rateTopic, events)
}

// PublishTrends writes one message per trend record.
func (p *KafkaPublisher) PublishTrends(ctx context.Context, records []domain.TrendScoreRecord) error {
	now := p.now()
	events := make([]Event, 0, len(records))
	for _, r := range records {
		events = append(events, NewTrendEvent(r, now))
	}
	return p.write(ctx, p.trendTopic, events)
}

func (p *KafkaPublisher) write(ctx context.Context, topic string, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", ev.EventID, err)
		}
		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   []byte(ev.CountryCode3),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(ev.EventID)},
				{Key: "dataType", Value: []byte(ev.DataType)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Int("count", len(msgs)).Msg("failed to send kafka messages")
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), topic, err)
	}

	p.logger.Debug().Str("topic", topic).Int("count", len(msgs)).Msg("kafka messages sent")
	return nil
}

// Close closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ Publisher = (*KafkaPublisher)(nil)
