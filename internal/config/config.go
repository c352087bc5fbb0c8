// Package config loads the pipeline configuration from an optional TOML
// file and TDP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"travel-data-pipeline/internal/ingestion"
	"travel-data-pipeline/internal/logging"
	"travel-data-pipeline/internal/publish"
)

// EnvPrefix prefixes every environment override, e.g. TDP_SINKS_KAFKA_BROKERS.
const EnvPrefix = "TDP"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the complete process configuration.
type Config struct {
	Registry RegistryConfig        `mapstructure:"registry"`
	Pacing   PacingConfig          `mapstructure:"pacing"`
	Retry    ingestion.RetryPolicy `mapstructure:"retry"`
	Rates    RatesConfig           `mapstructure:"rates"`
	Trends   TrendsConfig          `mapstructure:"trends"`
	Hana     HanaConfig            `mapstructure:"hana"`
	Sinks    SinksConfig           `mapstructure:"sinks"`
	Logging  logging.Config        `mapstructure:"logging"`
	Metrics  MetricsConfig         `mapstructure:"metrics"`
	Schedule ScheduleConfig        `mapstructure:"schedule"`
}

// RegistryConfig locates the country registry file.
type RegistryConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// PacingConfig bounds the random pause between phases and each phase's runtime.
type PacingConfig struct {
	MinPause     time.Duration `mapstructure:"min_pause" validate:"gte=0"`
	MaxPause     time.Duration `mapstructure:"max_pause" validate:"gtefield=MinPause"`
	PhaseTimeout time.Duration `mapstructure:"phase_timeout" validate:"gt=0"`
}

// RatesConfig configures the rate cycle.
type RatesConfig struct {
	MonthlyLookback int `mapstructure:"monthly_lookback" validate:"gte=0,lte=24"`
}

// TrendsConfig configures the trend cycle.
type TrendsConfig struct {
	Anchor      string `mapstructure:"anchor" validate:"required"`
	BatchSize   int    `mapstructure:"batch_size" validate:"gte=2,lte=5"`
	Parallelism int    `mapstructure:"parallelism" validate:"gte=1"`
	SourceDir   string `mapstructure:"source_dir" validate:"required"`
}

// HanaConfig configures the rate table scraper.
type HanaConfig struct {
	Endpoint  string        `mapstructure:"endpoint" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent string        `mapstructure:"user_agent"`
}

// SinksConfig selects where compiled records are published. Every
// configured sink receives every record.
type SinksConfig struct {
	OutputDir     string              `mapstructure:"output_dir"`
	UseMemory     bool                `mapstructure:"use_memory"`
	PostgresDSN   string              `mapstructure:"postgres_dsn"`
	ClickhouseDSN string              `mapstructure:"clickhouse_dsn"`
	Kafka         publish.KafkaConfig `mapstructure:"kafka"`
}

// Enabled reports whether at least one sink is configured.
func (s SinksConfig) Enabled() bool {
	return s.OutputDir != "" || s.UseMemory || s.PostgresDSN != "" || s.ClickhouseDSN != "" || len(s.Kafka.Brokers) > 0
}

// MetricsConfig configures the HTTP endpoint of the server binary.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// ScheduleConfig sets how often the server runs each cycle kind.
type ScheduleConfig struct {
	RateInterval  time.Duration `mapstructure:"rate_interval" validate:"gt=0"`
	TrendInterval time.Duration `mapstructure:"trend_interval" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads path (optional) and environment overrides, then validates.
// An empty path uses defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !c.Sinks.Enabled() {
		return fmt.Errorf("%w: no sink configured (set sinks.output_dir, sinks.use_memory, a DSN or kafka brokers)", ErrInvalid)
	}
	if c.Pacing.PhaseTimeout < c.Retry.MaxInterval {
		return fmt.Errorf("%w: pacing.phase_timeout %s is shorter than retry.max_interval %s",
			ErrInvalid, c.Pacing.PhaseTimeout, c.Retry.MaxInterval)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("registry.path", "configs/master_country_map.json")

	v.SetDefault("pacing.min_pause", 30*time.Second)
	v.SetDefault("pacing.max_pause", 60*time.Second)
	v.SetDefault("pacing.phase_timeout", ingestion.DefaultPhaseTimeout)

	v.SetDefault("retry.initial_interval", ingestion.DefaultRetryInitialInterval)
	v.SetDefault("retry.max_interval", ingestion.DefaultRetryMaxInterval)
	v.SetDefault("retry.max_attempts", ingestion.DefaultRetryMaxAttempts)

	v.SetDefault("rates.monthly_lookback", 3)

	v.SetDefault("trends.anchor", "해외여행")
	v.SetDefault("trends.batch_size", 5)
	v.SetDefault("trends.parallelism", 1)
	v.SetDefault("trends.source_dir", "data/trends")

	v.SetDefault("hana.endpoint", "https://www.kebhana.com/cms/rate/wpfxd651_01i_01.do")
	v.SetDefault("hana.timeout", 15*time.Second)
	v.SetDefault("hana.user_agent", "")

	v.SetDefault("sinks.output_dir", "local_output")
	v.SetDefault("sinks.use_memory", false)
	v.SetDefault("sinks.postgres_dsn", "")
	v.SetDefault("sinks.clickhouse_dsn", "")
	v.SetDefault("sinks.kafka.brokers", []string{})
	v.SetDefault("sinks.kafka.rate_topic", publish.DefaultRateTopic)
	v.SetDefault("sinks.kafka.trend_topic", publish.DefaultTrendTopic)
	v.SetDefault("sinks.kafka.max_attempts", publish.DefaultMaxAttempts)
	v.SetDefault("sinks.kafka.batch_timeout", publish.DefaultBatchTimeout)

	def := logging.DefaultConfig()
	v.SetDefault("logging.level", def.Level)
	v.SetDefault("logging.format", def.Format)
	v.SetDefault("logging.output", def.Output)
	v.SetDefault("logging.file_path", def.FilePath)
	v.SetDefault("logging.max_size_mb", def.MaxSizeMB)
	v.SetDefault("logging.max_backups", def.MaxBackups)
	v.SetDefault("logging.max_age_days", def.MaxAgeDays)
	v.SetDefault("logging.compress", def.Compress)

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("schedule.rate_interval", 24*time.Hour)
	v.SetDefault("schedule.trend_interval", 24*time.Hour)
}

// LoadEnvFile loads KEY=VALUE lines from path into the environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read env file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"`)

		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s: %w", key, err)
			}
		}
	}
	return nil
}
