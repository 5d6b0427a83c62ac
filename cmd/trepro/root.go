package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags globalFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "trepro",
		Short:         "Save charts that carry their own reproduction record",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override the configured log level (debug, info, success, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Override the configured log format (console, json)")

	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newShowCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))
	rootCmd.AddCommand(newRerenderCommand(ctx))
	rootCmd.AddCommand(newStripCommand(ctx))
	rootCmd.AddCommand(newProvenanceCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newCatalogCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newDoctorCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	releaseAfterRun(rootCmd, ctx)
	return rootCmd
}

// releaseAfterRun makes every runnable command log its failure, flush metrics
// and close the catalog when it returns.
func releaseAfterRun(cmd *cobra.Command, ctx *commandContext) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			err := run(c, args)
			ctx.reportFailure(c, err)
			if closeErr := ctx.close(); err == nil {
				err = closeErr
			}
			return err
		}
	}
	for _, child := range cmd.Commands() {
		releaseAfterRun(child, ctx)
	}
}
