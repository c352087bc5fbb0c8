package postgres

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const testImage = "postgres:15-alpine"

// setupTestDB returns a pool on a fresh PostgreSQL container whose
// entrypoint has already run the schema files. Teardown is registered
// with t.Cleanup.
func setupTestDB(t *testing.T) *Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, testImage,
		tcpostgres.WithDatabase("travel"),
		tcpostgres.WithUsername("travel"),
		tcpostgres.WithPassword("travel"),
		tcpostgres.WithInitScripts(schemaFiles(t)...),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolOptions{DSN: dsn, MaxConns: 4, ApplicationName: "travel-data-pipeline-test"})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

// schemaFiles lists ../migrations/postgres/*.sql in apply order.
func schemaFiles(t *testing.T) []string {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("..", "migrations", "postgres", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	sort.Strings(files)
	return files
}

func ptr[T any](v T) *T {
	return &v
}

func utcTime(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
