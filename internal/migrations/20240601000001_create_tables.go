package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-translatable/internal/blobs"
	"github.com/goliatone/go-translatable/internal/indexes"
)

var tableModels = []any{
	(*blobs.Blob)(nil),
	(*indexes.Entry)(nil),
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, model := range tableModels {
			if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("migrations: create table %T: %w", model, err)
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for i := len(tableModels) - 1; i >= 0; i-- {
			if _, err := db.NewDropTable().Model(tableModels[i]).IfExists().Exec(ctx); err != nil {
				return fmt.Errorf("migrations: drop table %T: %w", tableModels[i], err)
			}
		}
		return nil
	})
}
