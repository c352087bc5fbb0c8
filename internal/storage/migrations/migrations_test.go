package migrations

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `
-- first table
CREATE TABLE a (x String) ENGINE = Memory;

CREATE TABLE b (y String DEFAULT 'a;b -- not a comment') -- trailing
ENGINE = Memory;
SELECT 'it''s';
`
	stmts, err := SplitStatements(script)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (x String) ENGINE = Memory", stmts[0])
	assert.Contains(t, stmts[1], "'a;b -- not a comment'")
	assert.NotContains(t, stmts[1], "trailing")
	assert.Equal(t, "SELECT 'it''s'", stmts[2])
}

func TestSplitStatements_Unterminated(t *testing.T) {
	_, err := SplitStatements("SELECT 'open;")
	assert.True(t, errors.Is(err, ErrUnterminatedString))
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := Postgres()
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_records.sql", pg[0].Version)
	assert.Equal(t, "002_cycle_runs.sql", pg[1].Version)

	ch, err := Clickhouse()
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, m := range ch {
		stmts, err := SplitStatements(m.SQL)
		require.NoError(t, err, m.Version)
		assert.Len(t, stmts, 2, m.Version)
	}
}

type recordingExecer struct {
	stmts []string
	fail  int
}

func (r *recordingExecer) Exec(_ context.Context, query string, _ ...any) error {
	r.stmts = append(r.stmts, query)
	if r.fail > 0 && len(r.stmts) == r.fail {
		return errors.New("boom")
	}
	return nil
}

func TestApplyClickhouse(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, ApplyClickhouse(context.Background(), db, zerolog.Nop()))
	require.Len(t, db.stmts, 2)
	assert.Contains(t, db.stmts[0], "rate_records")
	assert.Contains(t, db.stmts[1], "trend_records")
}

func TestApplyClickhouse_StopsOnError(t *testing.T) {
	db := &recordingExecer{fail: 1}
	err := ApplyClickhouse(context.Background(), db, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_records.sql statement 1")
	assert.Len(t, db.stmts, 1)
}
