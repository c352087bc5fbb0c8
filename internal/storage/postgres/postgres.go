// Package postgres archives published records and cycle runs in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"travel-data-pipeline/internal/storage"
)

// DefaultApplicationName is reported to the server as application_name.
const DefaultApplicationName = "travel-data-pipeline"

// pgErrUniqueViolation is the SQLSTATE of a unique constraint violation.
const pgErrUniqueViolation = "23505"

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// PoolOptions configures NewPool. Zero values keep the pgxpool defaults.
type PoolOptions struct {
	DSN             string
	MaxConns        int32
	MaxConnIdleTime time.Duration
	ApplicationName string // default: DefaultApplicationName
}

// NewPool connects and pings the server.
func NewPool(ctx context.Context, opts PoolOptions) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.MaxConnIdleTime
	}
	appName := opts.ApplicationName
	if appName == "" {
		appName = DefaultApplicationName
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = appName

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// inTx runs fn inside one transaction, committing only when fn succeeds.
func (p *Pool) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// translate maps driver errors onto the storage sentinels and wraps the
// rest with op.
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
		return storage.ErrDuplicateKey
	}
	return fmt.Errorf("%s: %w", op, err)
}
