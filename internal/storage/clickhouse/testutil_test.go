package clickhouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"travel-data-pipeline/internal/storage/migrations"
)

const testImage = "clickhouse/clickhouse-server:24.1-alpine"

// setupTestDB starts a ClickHouse server, applies the embedded schema and
// returns an open connection. The container is removed by t.Cleanup.
func setupTestDB(t *testing.T) *Conn {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        testImage,
			ExposedPorts: []string{"9000/tcp", "8123/tcp"},
			Env:          map[string]string{"CLICKHOUSE_SKIP_USER_SETUP": "1"},
			WaitingFor: wait.ForAll(
				wait.ForHTTP("/ping").WithPort("8123/tcp"),
				wait.ForListeningPort("9000/tcp"),
			).WithDeadline(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.PortEndpoint(ctx, "9000/tcp", "clickhouse")
	require.NoError(t, err)
	dsn := fmt.Sprintf("%s/travel", endpoint)

	require.NoError(t, EnsureDatabase(ctx, dsn))
	conn, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.ApplyClickhouse(ctx, conn, zerolog.Nop()))
	return conn
}

func ptr[T any](v T) *T {
	return &v
}
