package migrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrUnterminatedString is returned when a script ends inside a quoted literal.
var ErrUnterminatedString = errors.New("unterminated string literal")

// Execer runs a single statement. The ClickHouse native protocol accepts
// one statement per call.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// ApplyClickhouse runs every embedded ClickHouse statement against db.
// The tables are created with IF NOT EXISTS, so reapplying is a no-op.
func ApplyClickhouse(ctx context.Context, db Execer, logger zerolog.Logger) error {
	all, err := Clickhouse()
	if err != nil {
		return err
	}
	for _, m := range all {
		stmts, err := SplitStatements(m.SQL)
		if err != nil {
			return fmt.Errorf("migration %s: %w", m.Version, err)
		}
		for i, stmt := range stmts {
			if err := db.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("migration %s statement %d: %w", m.Version, i+1, err)
			}
		}
		logger.Info().Str("migration", m.Version).Int("statements", len(stmts)).Msg("applied clickhouse migration")
	}
	return nil
}

// SplitStatements splits a script on semicolons outside single-quoted
// literals. "--" comments run to the end of the line and are dropped.
func SplitStatements(script string) ([]string, error) {
	var (
		stmts   []string
		cur     strings.Builder
		quoted  bool
		comment bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(script); i++ {
		ch := script[i]
		switch {
		case comment:
			if ch == '\n' {
				comment = false
				cur.WriteByte(ch)
			}
		case quoted:
			cur.WriteByte(ch)
			if ch == '\'' {
				if i+1 < len(script) && script[i+1] == '\'' {
					cur.WriteByte('\'')
					i++
					continue
				}
				quoted = false
			}
		case ch == '\'':
			quoted = true
			cur.WriteByte(ch)
		case ch == '-' && i+1 < len(script) && script[i+1] == '-':
			comment = true
			i++
		case ch == ';':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if quoted {
		return nil, ErrUnterminatedString
	}
	flush()
	return stmts, nil
}
