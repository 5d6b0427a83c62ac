package trepro

import (
	"context"
	"log/slog"

	"trepro/internal/chart"
	"trepro/internal/savefig"
)

type (
	// Figure is the chart definition stored in every frame.
	Figure = chart.Figure
	// Series is one plotted data set.
	Series = chart.Series
	// Axis names an axis and optionally pins its range.
	Axis = chart.Axis
	// Metadata is the flattened record returned by LoadSavedFigure.
	Metadata = savefig.Metadata
	// Option configures the interceptor installed by PatchSave.
	Option = savefig.Option
	// SaveOption overrides the format or resolution of one save.
	SaveOption = chart.SaveOption
	// SaveResult describes the file a save produced.
	SaveResult = chart.SaveResult
)

// Series kinds.
const (
	KindLine    = chart.KindLine
	KindScatter = chart.KindScatter
	KindTime    = chart.KindTime
)

// WithLogger routes interceptor logs to logger.
func WithLogger(logger *slog.Logger) Option { return savefig.WithLogger(logger) }

// WithExtensions replaces the set of extensions that receive metadata.
func WithExtensions(exts ...string) Option { return savefig.WithExtensions(exts...) }

// WithIncludeDiff records the working tree diff alongside the commit.
func WithIncludeDiff(include bool) Option { return savefig.WithIncludeDiff(include) }

// WithTrailer appends the length and checksum trailer after the frame.
func WithTrailer(enabled bool) Option { return savefig.WithTrailer(enabled) }

// WithoutProvenance records only the chart and version keys.
func WithoutProvenance() Option { return savefig.WithoutProvenance() }

// WithFormat forces the output format regardless of the destination suffix.
func WithFormat(format chart.Format) SaveOption { return chart.WithFormat(format) }

// WithDPI overrides the figure's resolution for one save.
func WithDPI(dpi float64) SaveOption { return chart.WithDPI(dpi) }

// PatchSave activates metadata embedding for every later SaveFigure call in
// the process. Calling it again while active returns the installed
// interceptor and ignores opts.
func PatchSave(opts ...Option) *savefig.Interceptor {
	return savefig.Patch(nil, opts...)
}

// Unpatch restores plain saves.
func Unpatch() {
	savefig.Unpatch()
}

// SaveFigure saves fig through the active saver: decorated after PatchSave,
// plain otherwise.
func SaveFigure(ctx context.Context, fig *Figure, destination string, opts ...SaveOption) (SaveResult, error) {
	return savefig.Active().Save(ctx, fig, destination, opts...)
}

// SaveAndEmbed saves fig and appends its reproduction record. It uses the
// interceptor installed by PatchSave when there is one and a default
// interceptor otherwise.
func SaveAndEmbed(ctx context.Context, fig *Figure, destination string, opts ...SaveOption) (SaveResult, error) {
	saver := savefig.Active()
	interceptor, ok := saver.(*savefig.Interceptor)
	if !ok {
		interceptor = savefig.NewInterceptor(saver)
	}
	return interceptor.Save(ctx, fig, destination, opts...)
}

// LoadSavedFigure reads a file written by SaveAndEmbed and returns the chart
// and its metadata.
func LoadSavedFigure(path string) (*Figure, Metadata, error) {
	return savefig.Load(path)
}
