// Package platform opens the registry database and keeps its schema
// current. Postgres backs the service; SQLite backs local and CLI use.
package platform

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect identifies the SQL flavor of an open database.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Rebind rewrites ? placeholders into the dialect's form. Queries are
// written with ? and must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Open connects to a database URL. postgres:// and postgresql:// URLs use
// lib/pq; sqlite://path opens a SQLite file.
func Open(ctx context.Context, url string) (*sql.DB, Dialect, error) {
	var (
		driver  string
		dsn     string
		dialect Dialect
	)
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		driver, dsn, dialect = "postgres", url, Postgres
	case strings.HasPrefix(url, "sqlite://"):
		driver, dsn, dialect = "sqlite", strings.TrimPrefix(url, "sqlite://"), SQLite
	default:
		return nil, "", eris.Errorf("unsupported database url %q", url)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", eris.Wrapf(err, "open %s", dialect)
	}
	if dialect == SQLite {
		// One writer at a time.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", eris.Wrapf(err, "ping %s", dialect)
	}
	return db, dialect, nil
}

// AutoMigrate runs all pending database migrations.
func AutoMigrate(db *sql.DB, dialect Dialect) error {
	source, err := iofs.New(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return eris.Wrap(err, "create migration source")
	}

	var driver database.Driver
	switch dialect {
	case Postgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case SQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return eris.Errorf("unsupported dialect %q", dialect)
	}
	if err != nil {
		return eris.Wrap(err, "create migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", source, string(dialect), driver)
	if err != nil {
		return eris.Wrap(err, "create migrator")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "run migrations")
	}

	return nil
}
