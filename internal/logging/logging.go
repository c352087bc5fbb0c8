// Package logging builds the process logger: zerolog with optional
// rotating file output.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Output targets.
const (
	OutputStdout = "stdout"
	OutputFile   = "file"
	OutputBoth   = "both"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config configures the process logger.
type Config struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	Output     string `mapstructure:"output" validate:"oneof=stdout file both"`
	FilePath   string `mapstructure:"file_path" validate:"required_unless=Output stdout"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns console-friendly defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     FormatJSON,
		Output:     OutputStdout,
		FilePath:   "logs/travel-data-pipeline.log",
		MaxSizeMB:  100,
		MaxBackups: 10,
		MaxAgeDays: 30,
		Compress:   true,
	}
}

// New creates a logger and the closer of its file output, if any.
func New(cfg Config) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	var stdout io.Writer = os.Stdout
	if cfg.Format == FormatConsole {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	var out io.Writer
	var closer io.Closer = nopCloser{}
	switch cfg.Output {
	case OutputFile, OutputBoth:
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		closer = file
		out = file
		if cfg.Output == OutputBoth {
			out = zerolog.MultiLevelWriter(stdout, file)
		}
	default:
		out = stdout
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// ParseLevel maps a config level onto zerolog. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
