package migrations

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"travel-data-pipeline/internal/storage/postgres"
)

const createVersionTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT        PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// ApplyPostgres applies the embedded migrations that are not yet
// recorded in schema_migrations, in lexical order. Each file runs in its
// own transaction together with its version row.
func ApplyPostgres(ctx context.Context, pool *postgres.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	all, err := Postgres()
	if err != nil {
		return err
	}

	for _, m := range all {
		var applied bool
		if err := pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if applied {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("apply migration %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Version, err)
		}
		logger.Info().Str("migration", m.Version).Msg("applied postgres migration")
	}

	return nil
}
