package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"trepro/internal/chart"
	"trepro/internal/config"
	"trepro/internal/fileutil"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var output, format string

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Write the chart definition embedded in a framed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			defFormat, err := extractFormat(format, output)
			if err != nil {
				return err
			}
			fig, _, err := loadFigure(cmd, ctx, path)
			if err != nil {
				return err
			}
			data, err := chart.EncodeDefinition(fig, defFormat)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(output)
			if target == "" || target == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
				return fmt.Errorf("write definition: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s definition to %s\n", defFormat, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "Definition format: json, yaml or toml (default from --output extension, else json)")
	return cmd
}

func extractFormat(format, output string) (chart.DefinitionFormat, error) {
	if strings.TrimSpace(format) != "" {
		return chart.ParseDefinitionFormat(format)
	}
	if ext := filepath.Ext(strings.TrimSpace(output)); ext != "" {
		return chart.ParseDefinitionFormat(ext)
	}
	return chart.DefinitionJSON, nil
}
