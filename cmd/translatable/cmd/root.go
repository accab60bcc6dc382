package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	translatable "github.com/goliatone/go-translatable"
)

type rootOptions struct {
	cfgFile string
	dsn     string
	dialect string
	verbose bool
}

// NewRootCommand builds the translatable CLI.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "translatable",
		Short: "Maintain translated attribute storage",
		Long: `translatable manages the blob and index tables that hold per-locale
attribute translations.

Commands:
  migrate  - apply or roll back the translation schema
  purge    - delete every translation row of a record
  reindex  - rebuild index rows from stored blobs`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "YAML config file (default: built-in defaults)")
	root.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "database DSN, overrides storage.dsn")
	root.PersistentFlags().StringVar(&opts.dialect, "dialect", "", "database dialect (sqlite|postgres), overrides storage.dialect")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log SQL queries and debug output")

	root.AddCommand(newMigrateCommand(opts), newPurgeCommand(opts), newReindexCommand(opts))
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// config loads the config file and applies flag overrides. Maintenance
// commands always run against bun storage.
func (o *rootOptions) config() (translatable.Config, error) {
	cfg := translatable.DefaultConfig()
	if o.cfgFile != "" {
		loaded, err := translatable.LoadConfig(o.cfgFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	if o.dialect != "" {
		cfg.Storage.Dialect = o.dialect
	}
	cfg.Storage.Provider = translatable.StorageBun
	if o.verbose {
		cfg.Storage.Debug = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (o *rootOptions) module(ctx context.Context) (*translatable.Module, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	return translatable.NewContext(ctx, cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
