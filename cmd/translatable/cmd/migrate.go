package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	translatable "github.com/goliatone/go-translatable"
	"github.com/goliatone/go-translatable/internal/storage"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the translation schema",
	}
	migrateCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, opts, translatable.Migrate, "applied")
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration group",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd, opts, translatable.Rollback, "rolled back")
			},
		},
	)
	return migrateCmd
}

type migrateFunc = func(ctx context.Context, db *bun.DB) (translatable.MigrationResult, error)

func runMigrate(cmd *cobra.Command, opts *rootOptions, run migrateFunc, verb string) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	db, err := storage.Open(ctx, storage.Options{
		Dialect: cfg.Storage.Dialect,
		DSN:     cfg.Storage.DSN,
		Debug:   cfg.Storage.Debug,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := run(ctx, db)
	if err != nil {
		return err
	}
	if result.Group == 0 {
		printf(cmd, "no migrations %s\n", verb)
		return nil
	}
	printf(cmd, "group #%d %s: %s\n", result.Group, verb, joinOrNone(result.Applied))
	return nil
}
