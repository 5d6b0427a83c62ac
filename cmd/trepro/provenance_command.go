package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trepro/internal/provenance"
)

func newProvenanceCommand(ctx *commandContext) *cobra.Command {
	var diff, asJSON, asTable bool

	cmd := &cobra.Command{
		Use:   "provenance",
		Short: "Print the provenance a save would record right now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.loggerFor(cmd)
			if err != nil {
				return err
			}
			if !cfg.Provenance.Enabled {
				logger.Warn("provenance is disabled in the configuration; saves record only version keys")
			}

			record := provenance.NewFromConfig(cfg, logger).Collect(cmd.Context(), diff || cfg.Provenance.IncludeDiff)
			if wantJSON(cmd, asJSON, asTable) {
				return writeJSON(cmd, map[string]string(record))
			}
			if len(record) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No provenance available")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Value"}, metadataRows(record), []columnAlignment{alignLeft, alignLeft}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&diff, "diff", false, "Include the working tree diff")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&asTable, "table", false, "Output a table even when stdout is not a terminal")
	return cmd
}
