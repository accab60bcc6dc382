package cmd

import (
	"github.com/spf13/cobra"
)

func newReindexCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [model-type...]",
		Short: "Rebuild index rows from stored blobs",
		Long: `Rebuilds index rows for the given model types, or for every model
declared in the config when none are named.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			module, err := opts.module(ctx)
			if err != nil {
				return err
			}
			defer module.Close()

			modelTypes := args
			if len(modelTypes) == 0 {
				modelTypes = module.Manager().Registry().Types()
			}
			if len(modelTypes) == 0 {
				printf(cmd, "no models declared\n")
				return nil
			}
			results, err := module.Reindex(ctx, modelTypes...)
			if err != nil {
				return err
			}
			for _, modelType := range modelTypes {
				result := results[modelType]
				printf(cmd, "%s: %d blobs, %d entries, %d cleared\n", modelType, result.Blobs, result.Entries, result.Cleared)
			}
			return nil
		},
	}
}
