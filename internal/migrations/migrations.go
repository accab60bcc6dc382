package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// Migrations holds the schema steps for the translation tables.
var Migrations = migrate.NewMigrations()

// Result summarises a migration run.
type Result struct {
	Group   int64
	Applied []string
}

// Up applies every pending migration.
func Up(ctx context.Context, db *bun.DB) (Result, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return Result{}, fmt.Errorf("migrations: init: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("migrations: migrate: %w", err)
	}
	return groupResult(group), nil
}

// Down rolls back the last applied group.
func Down(ctx context.Context, db *bun.DB) (Result, error) {
	migrator := migrate.NewMigrator(db, Migrations)
	if err := migrator.Init(ctx); err != nil {
		return Result{}, fmt.Errorf("migrations: init: %w", err)
	}
	group, err := migrator.Rollback(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("migrations: rollback: %w", err)
	}
	return groupResult(group), nil
}

func groupResult(group *migrate.MigrationGroup) Result {
	if group == nil || group.IsZero() {
		return Result{}
	}
	applied := make([]string, 0, len(group.Migrations))
	for _, migration := range group.Migrations {
		applied = append(applied, migration.Name)
	}
	return Result{Group: group.ID, Applied: applied}
}

func execAll(ctx context.Context, db *bun.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrations: %s: %w", stmt, err)
		}
	}
	return nil
}
