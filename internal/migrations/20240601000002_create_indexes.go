package migrations

import (
	"context"

	"github.com/uptrace/bun"
)

var createIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS translate_attributes_locale_model_uidx ON translate_attributes (locale, model_id, model_type)",
	"CREATE UNIQUE INDEX IF NOT EXISTS translate_indexes_locale_model_item_uidx ON translate_indexes (locale, model_id, model_type, item)",
	"CREATE INDEX IF NOT EXISTS translate_indexes_lookup_idx ON translate_indexes (model_type, locale, item, value)",
}

var dropIndexes = []string{
	"DROP INDEX IF EXISTS translate_indexes_lookup_idx",
	"DROP INDEX IF EXISTS translate_indexes_locale_model_item_uidx",
	"DROP INDEX IF EXISTS translate_attributes_locale_model_uidx",
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		return execAll(ctx, db, createIndexes)
	}, func(ctx context.Context, db *bun.DB) error {
		return execAll(ctx, db, dropIndexes)
	})
}
