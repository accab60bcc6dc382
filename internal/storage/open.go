package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/goliatone/go-translatable/internal/migrations"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var (
	ErrUnsupportedDialect = errors.New("storage: unsupported dialect")
	ErrDSNRequired        = errors.New("storage: dsn required")
)

// Options configures a database handle.
type Options struct {
	Dialect string
	DSN     string
	Debug   bool
	// Migrate applies pending schema migrations after connecting.
	Migrate bool
}

// Open connects to the configured database and returns a bun handle.
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	dsn := strings.TrimSpace(opts.DSN)
	if dsn == "" {
		return nil, ErrDSNRequired
	}

	var db *bun.DB
	switch normalizeDialect(opts.Dialect) {
	case DialectSQLite:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
		if isMemoryDSN(dsn) {
			db.SetMaxOpenConns(1)
		}
	case DialectPostgres:
		sqldb, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDialect, opts.Dialect)
	}

	if opts.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}

	if opts.Migrate {
		if _, err := migrations.Up(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

// ValidDialect reports whether the dialect name is supported.
func ValidDialect(dialect string) bool {
	switch normalizeDialect(dialect) {
	case DialectSQLite, DialectPostgres:
		return true
	}
	return false
}

func normalizeDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite
	case "postgres", "postgresql", "pg":
		return DialectPostgres
	}
	return strings.ToLower(strings.TrimSpace(dialect))
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
