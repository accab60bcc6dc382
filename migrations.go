package translatable

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/migrations"
)

// MigrationResult reports the migrations applied or rolled back.
type MigrationResult = migrations.Result

// Migrate applies pending schema migrations for the translation tables.
func Migrate(ctx context.Context, db *bun.DB) (MigrationResult, error) {
	return migrations.Up(ctx, db)
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB) (MigrationResult, error) {
	return migrations.Down(ctx, db)
}
