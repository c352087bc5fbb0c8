// Package app wires configuration into the stores, publishers and cycle
// runners shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/config"
	"travel-data-pipeline/internal/publish"
	"travel-data-pipeline/internal/storage"
	chstore "travel-data-pipeline/internal/storage/clickhouse"
	"travel-data-pipeline/internal/storage/memory"
	"travel-data-pipeline/internal/storage/migrations"
	pgstore "travel-data-pipeline/internal/storage/postgres"
)

// DefaultPostgresMaxConns bounds the archive pool.
const DefaultPostgresMaxConns = 4

// Sinks holds every configured publish destination plus the cycle run
// history store.
type Sinks struct {
	Publisher publish.Multi
	Runs      storage.CycleRunStore

	// Rates and Trends are the stores read back by reports and /status:
	// postgres when configured, otherwise memory when enabled.
	Rates  storage.RateRecordStore
	Trends storage.TrendRecordStore

	closers []func() error
}

// OpenSinks connects every sink in cfg. Database sinks run their
// migrations first. On error, sinks opened so far are closed.
func OpenSinks(ctx context.Context, cfg config.SinksConfig, logger zerolog.Logger) (*Sinks, error) {
	s := &Sinks{}

	if cfg.UseMemory {
		rates, trends := memory.NewRateRecordStore(), memory.NewTrendRecordStore()
		s.Rates, s.Trends = rates, trends
		s.Publisher = append(s.Publisher, publish.NewStorePublisher(publish.StorePublisherOptions{
			Rates: rates, Trends: trends, Logger: &logger,
		}))
		logger.Info().Msg("memory sink enabled")
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, pgstore.PoolOptions{DSN: cfg.PostgresDSN, MaxConns: DefaultPostgresMaxConns})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })

		if err := migrations.ApplyPostgres(ctx, pool, logger); err != nil {
			s.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}

		rates, trends := pgstore.NewRateRecordStore(pool), pgstore.NewTrendRecordStore(pool)
		s.Rates, s.Trends = rates, trends
		s.Runs = pgstore.NewCycleRunStore(pool)
		s.Publisher = append(s.Publisher, publish.NewStorePublisher(publish.StorePublisherOptions{
			Rates: rates, Trends: trends, Logger: &logger,
		}))
		logger.Info().Msg("postgres sink enabled")
	}

	if cfg.ClickhouseDSN != "" {
		if err := chstore.EnsureDatabase(ctx, cfg.ClickhouseDSN); err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse database: %w", err)
		}
		conn, err := chstore.Open(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		s.closers = append(s.closers, conn.Close)

		if err := migrations.ApplyClickhouse(ctx, conn, logger); err != nil {
			s.Close()
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		s.Publisher = append(s.Publisher, publish.NewStorePublisher(publish.StorePublisherOptions{
			Rates:  chstore.NewRateRecordStore(conn),
			Trends: chstore.NewTrendRecordStore(conn),
			Logger: &logger,
		}))
		logger.Info().Msg("clickhouse sink enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		s.Publisher = append(s.Publisher, publish.NewKafkaPublisher(publish.KafkaPublisherOptions{
			Writer:     publish.NewKafkaWriter(cfg.Kafka),
			RateTopic:  cfg.Kafka.RateTopic,
			TrendTopic: cfg.Kafka.TrendTopic,
			Logger:     &logger,
		}))
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("kafka sink enabled")
	}

	if cfg.OutputDir != "" {
		s.Publisher = append(s.Publisher, publish.NewFilePublisher(publish.FilePublisherOptions{
			Dir: cfg.OutputDir, Logger: &logger,
		}))
		logger.Info().Str("dir", cfg.OutputDir).Msg("file sink enabled")
	}

	if len(s.Publisher) == 0 {
		return nil, publish.ErrNoPublishers
	}
	if s.Runs == nil {
		s.Runs = memory.NewCycleRunStore()
	}
	return s, nil
}

// Close closes the publishers, then the database connections.
func (s *Sinks) Close() error {
	var errs []error
	if len(s.Publisher) > 0 {
		errs = append(errs, s.Publisher.Close())
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
