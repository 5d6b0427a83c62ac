package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trepro/internal/chart"
	"trepro/internal/codec"
	"trepro/internal/config"
	"trepro/internal/savefig"
)

const maxTableValue = 72

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON, asTable bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the metadata embedded in a framed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			_, insp, err := loadFigure(cmd, ctx, path)
			if err != nil {
				return err
			}
			if wantJSON(cmd, asJSON, asTable) {
				return writeJSON(cmd, inspectionView(insp))
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInspection(insp))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	cmd.Flags().BoolVar(&asTable, "table", false, "Output a table even when stdout is not a terminal")
	return cmd
}

// loadFigure inspects path and counts the attempt in the load metrics.
func loadFigure(cmd *cobra.Command, ctx *commandContext, path string) (*chart.Figure, *savefig.Inspection, error) {
	logger, err := ctx.loggerFor(cmd)
	if err != nil {
		return nil, nil, err
	}
	insp, err := savefig.Inspect(cmd.Context(), path, logger)
	ctx.telemetry().ObserveLoad(err)
	if err != nil {
		return nil, nil, err
	}
	return insp.Figure, insp, nil
}

type frameView struct {
	PayloadBytes int  `json:"payload_bytes"`
	BlockBytes   int  `json:"block_bytes"`
	FrameBytes   int  `json:"frame_bytes"`
	Trailer      bool `json:"trailer"`
}

type inspectionJSON struct {
	Path     string            `json:"path"`
	Size     int64             `json:"size"`
	Frame    frameView         `json:"frame"`
	Metadata map[string]string `json:"metadata"`
	Chart    *chart.Figure     `json:"chart"`
}

func inspectionView(insp *savefig.Inspection) inspectionJSON {
	return inspectionJSON{
		Path: insp.Path,
		Size: insp.Size,
		Frame: frameView{
			PayloadBytes: insp.Frame.PayloadEnd,
			BlockBytes:   insp.Frame.BlockSize(),
			FrameBytes:   insp.Frame.FrameEnd - insp.Frame.PayloadEnd,
			Trailer:      insp.Frame.Trailer,
		},
		Metadata: insp.Metadata,
		Chart:    insp.Figure,
	}
}

func renderInspection(insp *savefig.Inspection) string {
	fig := insp.Figure
	rows := [][]string{
		{"path", insp.Path},
		{"title", fig.Title},
		{"series", strconv.Itoa(len(fig.Series))},
		{"points", strconv.Itoa(fig.PointCount())},
		{"payload bytes", strconv.Itoa(insp.Frame.PayloadEnd)},
		{"frame bytes", strconv.Itoa(insp.Frame.FrameEnd - insp.Frame.PayloadEnd)},
	}
	rows = append(rows, metadataRows(insp.Metadata)...)
	return renderTable([]string{"Key", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

// metadataRows lists the version keys first and provenance keys after them,
// alphabetically.
func metadataRows(meta map[string]string) [][]string {
	keys := make([]string, 0, len(meta))
	for key := range meta {
		if !codec.IsReserved(key) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	keys = append([]string{codec.KeySaveVersion, codec.KeyProducerVersion}, keys...)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		value, ok := meta[key]
		if !ok {
			continue
		}
		rows = append(rows, []string{key, summarizeValue(value)})
	}
	return rows
}

// summarizeValue keeps multi-line values (diffs) readable in a table cell.
func summarizeValue(value string) string {
	lines := strings.Count(value, "\n")
	if strings.HasSuffix(value, "\n") {
		lines--
	}
	first, _, _ := strings.Cut(value, "\n")
	if len(first) > maxTableValue {
		first = first[:maxTableValue-3] + "..."
	}
	if lines > 0 {
		return fmt.Sprintf("%s (+%d lines)", first, lines)
	}
	return first
}
