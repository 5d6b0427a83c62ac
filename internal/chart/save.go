package chart

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an output encoding understood by the renderer.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatSVG  Format = "svg"
	FormatPDF  Format = "pdf"
)

// Saver writes a figure's payload bytes to a destination. It is the plain
// save operation that provenance embedding decorates.
type Saver interface {
	Save(ctx context.Context, fig *Figure, destination string, opts ...SaveOption) (SaveResult, error)
}

// SaveResult describes what a Saver wrote. Width, Height and DPI report the
// canvas the payload was drawn on; zero means the saver did not say.
type SaveResult struct {
	Path   string
	Format Format
	Bytes  int64
	Width  int
	Height int
	DPI    float64
}

// Resolved returns a copy of fig carrying the canvas reported in result, so a
// later render reproduces the same output without the saver's defaults.
func (r SaveResult) Resolved(fig *Figure) *Figure {
	if fig == nil {
		return nil
	}
	out := *fig
	if r.Width > 0 {
		out.Width = r.Width
	}
	if r.Height > 0 {
		out.Height = r.Height
	}
	if r.DPI > 0 {
		out.DPI = r.DPI
	}
	return &out
}

// SaveOptions is the resolved form of a SaveOption list.
type SaveOptions struct {
	Format Format
	DPI    float64
}

// SaveOption adjusts a single save call.
type SaveOption func(*SaveOptions)

// WithFormat forces the output format instead of inferring it from the
// destination extension.
func WithFormat(format Format) SaveOption {
	return func(o *SaveOptions) {
		o.Format = Format(strings.ToLower(strings.TrimSpace(string(format))))
	}
}

// WithDPI overrides the figure DPI for this save.
func WithDPI(dpi float64) SaveOption {
	return func(o *SaveOptions) {
		o.DPI = dpi
	}
}

// ResolveSaveOptions applies opts in order.
func ResolveSaveOptions(opts ...SaveOption) SaveOptions {
	var resolved SaveOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&resolved)
		}
	}
	return resolved
}

// Extension returns the lower-cased extension that decides how destination is
// handled. An explicit format option wins over the file name.
func Extension(destination string, opts ...SaveOption) string {
	if resolved := ResolveSaveOptions(opts...); resolved.Format != "" {
		return "." + string(resolved.Format)
	}
	return strings.ToLower(filepath.Ext(destination))
}

// FormatForExtension maps a file extension onto a renderer format.
func FormatForExtension(ext string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".") {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "svg":
		return FormatSVG, nil
	case "pdf":
		return FormatPDF, nil
	case "":
		return "", fmt.Errorf("destination has no extension")
	default:
		return "", fmt.Errorf("unsupported output format %q", ext)
	}
}
