package testsupport

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-translatable/internal/migrations"
)

var dbCounter atomic.Int64

// NewSQLiteMemoryDB opens a private shared-cache in-memory SQLite database.
func NewSQLiteMemoryDB() (*sql.DB, error) {
	name := fmt.Sprintf("translatable_test_%d", dbCounter.Add(1))
	return sql.Open("sqlite3", "file:"+name+"?mode=memory&cache=shared&_fk=1")
}

// NewBunDB returns a migrated bun handle over a fresh in-memory database. The
// handle is closed when the test finishes.
func NewBunDB(t testing.TB) *bun.DB {
	t.Helper()

	sqlDB, err := NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if _, err := migrations.Up(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
