package storage

import (
	"context"
	"errors"
	"testing"
)

func TestOpen_SQLiteMemoryAppliesMigrations(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Options{
		Dialect: "sqlite3",
		DSN:     "file:storage_open?mode=memory&cache=shared&_fk=1",
		Migrate: true,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, table := range []string{"translate_attributes", "translate_indexes"} {
		var count int
		if err := db.NewRaw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(ctx, &count); err != nil {
			t.Fatalf("inspect %s: %v", table, err)
		}
		if count != 1 {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, Options{Dialect: "sqlite"}); !errors.Is(err, ErrDSNRequired) {
		t.Fatalf("expected ErrDSNRequired, got %v", err)
	}
	if _, err := Open(ctx, Options{Dialect: "mysql", DSN: "x"}); !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got %v", err)
	}
}

func TestValidDialect(t *testing.T) {
	cases := map[string]bool{
		"":           true,
		"sqlite3":    true,
		"PostgreSQL": true,
		"pg":         true,
		"mysql":      false,
	}
	for input, want := range cases {
		if got := ValidDialect(input); got != want {
			t.Fatalf("ValidDialect(%q) = %v, want %v", input, got, want)
		}
	}
}
