package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL backend behind a DSN.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// sqlitePragmas keeps readers and the flush goroutine from tripping over
// each other's locks.
var sqlitePragmas = []string{"busy_timeout(5000)", "journal_mode(WAL)"}

// DetectDialect treats postgres:// and postgresql:// URLs as PostgreSQL and
// anything else as a SQLite file path.
func DetectDialect(dsn string) Dialect {
	scheme, _, ok := strings.Cut(dsn, "://")
	if ok && (strings.EqualFold(scheme, "postgres") || strings.EqualFold(scheme, "postgresql")) {
		return DialectPostgres
	}
	return DialectSQLite
}

// OpenDB opens the database behind dsn. PostgreSQL connections are pinged
// with retries; SQLite files are opened lazily.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	dialect := DetectDialect(dsn)
	if dialect == DialectPostgres {
		db, err := openPostgres(ctx, dsn)
		return db, dialect, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dsn))
	if err != nil {
		return nil, dialect, fmt.Errorf("open sqlite: %w", err)
	}
	return db, dialect, nil
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	err = retry.Do(
		func() error { return db.PingContext(ctx) },
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// sqliteDSN appends the pragmas, keeping any query the path already has.
func sqliteDSN(path string) string {
	params := make([]string, 0, len(sqlitePragmas))
	for _, p := range sqlitePragmas {
		params = append(params, "_pragma="+p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(params, "&")
}

// Rebind numbers `?` placeholders as `$1, $2, ...` for PostgreSQL. SQLite
// queries are returned as is.
func Rebind(dialect Dialect, query string) string {
	if dialect != DialectPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + strings.Count(query, "?"))
	n := 0
	for _, part := range strings.SplitAfter(query, "?") {
		if !strings.HasSuffix(part, "?") {
			b.WriteString(part)
			continue
		}
		n++
		b.WriteString(part[:len(part)-1])
		b.WriteString("$" + strconv.Itoa(n))
	}
	return b.String()
}
