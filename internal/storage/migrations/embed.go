// Package migrations holds the embedded schema of the archive sinks and
// applies it in file order.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

//go:embed clickhouse/*.sql
var clickhouseFS embed.FS

// Migration is one schema file. Version is the file name.
type Migration struct {
	Version string
	SQL     string
}

// Postgres returns the PostgreSQL migrations in apply order.
func Postgres() ([]Migration, error) { return load(postgresFS, "postgres") }

// Clickhouse returns the ClickHouse migrations in apply order.
func Clickhouse() ([]Migration, error) { return load(clickhouseFS, "clickhouse") }

func load(fsys fs.FS, dir string) ([]Migration, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("list %s migrations: %w", dir, err)
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{Version: path.Base(name), SQL: string(data)})
	}
	return out, nil
}
