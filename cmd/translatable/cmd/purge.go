package cmd

import (
	"github.com/spf13/cobra"
)

func newPurgeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <model-type> <model-id>",
		Short: "Delete every translation row of a record",
		Long: `Removes the translation blobs and index rows stored for one record.
Use it after deleting records outside the model save flow.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			module, err := opts.module(ctx)
			if err != nil {
				return err
			}
			defer module.Close()

			result, err := module.Purge(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printf(cmd, "purged %s#%s: %d blobs, %d index rows\n", args[0], args[1], result.Blobs, result.Indexes)
			return nil
		},
	}
}
