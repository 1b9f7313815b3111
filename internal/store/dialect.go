package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type dialect struct {
	name         string
	schema       []string
	numberedArgs bool // $1, $2 placeholders instead of ?
	open         func(ctx context.Context, target string) (*sql.DB, func(), error)
}

// rebind rewrites ? placeholders for dialects that number their arguments
func (d dialect) rebind(query string) string {
	if !d.numberedArgs {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseDSN picks a dialect from the DSN and returns the driver-level target
func parseDSN(dsn string) (dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return dialect{}, "", fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgresDialect, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqliteDialect, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return sqliteDialect, dsn, nil
	case strings.Contains(dsn, "://"):
		return dialect{}, "", fmt.Errorf("%w: %s", ErrUnsupportedDSN, dsn[:strings.Index(dsn, "://")])
	default:
		return sqliteDialect, dsn, nil
	}
}
