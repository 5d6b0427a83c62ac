package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trepro/internal/chart"
	"trepro/internal/config"
	"trepro/internal/savefig"
)

type saveFlags struct {
	output  string
	format  string
	dpi     float64
	diff    bool
	noEmbed bool
}

func (f *saveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Destination file (extension selects the format)")
	cmd.Flags().StringVar(&f.format, "format", "", "Force the output format (png, jpg, svg, pdf)")
	cmd.Flags().Float64Var(&f.dpi, "dpi", 0, "Override the figure resolution")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "Record the working tree diff in the metadata")
	cmd.Flags().BoolVar(&f.noEmbed, "no-embed", false, "Write the chart without a metadata frame")
}

func (f *saveFlags) saveOptions() ([]chart.SaveOption, error) {
	var opts []chart.SaveOption
	if value := strings.TrimSpace(f.format); value != "" {
		format, err := chart.FormatForExtension(value)
		if err != nil {
			return nil, err
		}
		opts = append(opts, chart.WithFormat(format))
	}
	if f.dpi > 0 {
		opts = append(opts, chart.WithDPI(f.dpi))
	}
	return opts, nil
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags saveFlags

	cmd := &cobra.Command{
		Use:   "render <definition>",
		Short: "Render a chart definition (JSON, YAML or TOML) and embed its record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fig, err := chart.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			destination := strings.TrimSpace(flags.output)
			if destination == "" {
				ext := ".png"
				if flags.format != "" {
					ext = "." + strings.TrimPrefix(strings.ToLower(flags.format), ".")
				}
				destination = fig.DefaultFileName(ext)
			}
			return saveFigure(cmd, ctx, fig, destination, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newRerenderCommand(ctx *commandContext) *cobra.Command {
	var flags saveFlags

	cmd := &cobra.Command{
		Use:   "rerender <file>",
		Short: "Reproduce a chart from the record embedded in a framed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			destination := strings.TrimSpace(flags.output)
			if destination == "" {
				return fmt.Errorf("rerender: --output is required")
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if dest, err := config.ExpandPath(destination); err == nil && dest == source {
				return fmt.Errorf("rerender: refusing to overwrite the source file %s", source)
			}
			fig, _, err := loadFigure(cmd, ctx, source)
			if err != nil {
				return err
			}
			return saveFigure(cmd, ctx, fig, destination, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func saveFigure(cmd *cobra.Command, ctx *commandContext, fig *chart.Figure, destination string, flags saveFlags) error {
	opts, err := flags.saveOptions()
	if err != nil {
		return err
	}
	var outcome savefig.Outcome
	record := savefig.ObserverFunc(func(_ context.Context, event savefig.SaveEvent) {
		outcome = event.Outcome
	})
	saver, err := ctx.saver(cmd, saverOptions{noEmbed: flags.noEmbed, includeDiff: flags.diff, observer: record})
	if err != nil {
		return err
	}
	result, err := saver.Save(cmd.Context(), fig, destination, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s, %d bytes, %s)\n", result.Path, result.Format, result.Bytes, outcomeNote(outcome))
	return nil
}

func outcomeNote(outcome savefig.Outcome) string {
	switch outcome {
	case savefig.OutcomeEmbedded:
		return "metadata embedded"
	case savefig.OutcomeSkipped:
		return "metadata not supported for this format"
	case savefig.OutcomeFailed:
		return "metadata could not be appended"
	default:
		return "no metadata"
	}
}
