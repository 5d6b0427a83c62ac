package chart

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"trepro/internal/faults"
)

const (
	defaultWidth  = 1024
	defaultHeight = 768
	defaultDPI    = 96
	jpegQuality   = 90
)

// pdfEpoch pins the PDF creation date so identical figures produce identical
// files.
var pdfEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Renderer is the plain Saver backed by go-chart.
type Renderer struct {
	width  int
	height int
	dpi    float64
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithDefaults sets the canvas used when a figure leaves width, height or DPI
// unset. Non-positive values keep the built-in defaults.
func WithDefaults(width, height int, dpi float64) RendererOption {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
		if height > 0 {
			r.height = height
		}
		if dpi > 0 {
			r.dpi = dpi
		}
	}
}

// NewRenderer constructs a renderer.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{width: defaultWidth, height: defaultHeight, dpi: defaultDPI}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Save renders fig and writes it to destination, replacing any existing file.
func (r *Renderer) Save(ctx context.Context, fig *Figure, destination string, opts ...SaveOption) (SaveResult, error) {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return SaveResult{}, err
		}
	}
	if strings.TrimSpace(destination) == "" {
		return SaveResult{}, fmt.Errorf("save figure: destination is empty")
	}
	format, err := FormatForExtension(Extension(destination, opts...))
	if err != nil {
		return SaveResult{}, faults.Wrap(faults.ErrValidation, "chart", "save", destination, err)
	}
	resolved := ResolveSaveOptions(opts...)

	var buf bytes.Buffer
	c, err := r.render(fig, format, resolved.DPI, &buf)
	if err != nil {
		return SaveResult{}, err
	}
	if err := os.WriteFile(destination, buf.Bytes(), 0o644); err != nil {
		return SaveResult{}, fmt.Errorf("write %s: %w", destination, err)
	}
	return SaveResult{
		Path:   destination,
		Format: format,
		Bytes:  int64(buf.Len()),
		Width:  c.width,
		Height: c.height,
		DPI:    c.dpi,
	}, nil
}

// Render writes the figure in the requested format to w.
func (r *Renderer) Render(fig *Figure, format Format, w io.Writer) error {
	_, err := r.render(fig, format, 0, w)
	return err
}

func (r *Renderer) render(fig *Figure, format Format, dpiOverride float64, w io.Writer) (canvas, error) {
	if err := fig.Validate(); err != nil {
		return canvas{}, faults.Wrap(faults.ErrValidation, "chart", "validate figure", fig.titleOrDefault(), err)
	}
	c := r.canvasFor(fig, dpiOverride)
	graph := buildGraph(fig, c)

	var err error
	switch format {
	case FormatPNG:
		err = renderRaster(graph, gochart.PNG, w)
	case FormatSVG:
		err = renderRaster(graph, gochart.SVG, w)
	case FormatJPEG:
		err = renderJPEG(graph, w)
	case FormatPDF:
		err = renderPDF(graph, c, w)
	default:
		err = faults.Wrap(faults.ErrValidation, "chart", "render", string(format), fmt.Errorf("unsupported output format"))
	}
	return c, err
}

type canvas struct {
	width  int
	height int
	dpi    float64
}

func (r *Renderer) canvasFor(fig *Figure, dpiOverride float64) canvas {
	c := canvas{width: fig.Width, height: fig.Height, dpi: fig.DPI}
	if c.width <= 0 {
		c.width = r.width
	}
	if c.height <= 0 {
		c.height = r.height
	}
	if dpiOverride > 0 {
		c.dpi = dpiOverride
	}
	if c.dpi <= 0 {
		c.dpi = r.dpi
	}
	return c
}

func (f *Figure) titleOrDefault() string {
	if f == nil || strings.TrimSpace(f.Title) == "" {
		return "untitled figure"
	}
	return f.Title
}

func buildGraph(fig *Figure, c canvas) gochart.Chart {
	graph := gochart.Chart{
		Title:  fig.Title,
		Width:  c.width,
		Height: c.height,
		DPI:    c.dpi,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 20, Left: 16, Right: 12, Bottom: 12},
		},
		XAxis: gochart.XAxis{Name: fig.XAxis.Name, Range: axisRange(fig.XAxis)},
		YAxis: gochart.YAxis{Name: fig.YAxis.Name, Range: axisRange(fig.YAxis)},
	}
	if fig.hasTimeSeries() {
		graph.XAxis.ValueFormatter = gochart.TimeValueFormatter
	}

	for i, s := range fig.Series {
		style := seriesStyle(s, i)
		switch s.Kind {
		case KindTime:
			graph.Series = append(graph.Series, gochart.TimeSeries{
				Name:    s.Name,
				XValues: s.Times,
				YValues: s.Y,
				Style:   style,
			})
		default:
			graph.Series = append(graph.Series, gochart.ContinuousSeries{
				Name:    s.Name,
				XValues: s.X,
				YValues: s.Y,
				Style:   style,
			})
		}
	}
	if fig.Legend {
		graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	}
	return graph
}

func axisRange(a Axis) gochart.Range {
	if a.Min == nil || a.Max == nil {
		return nil
	}
	return &gochart.ContinuousRange{Min: *a.Min, Max: *a.Max}
}

var palette = []drawing.Color{
	gochart.ColorBlue,
	gochart.ColorGreen,
	gochart.ColorRed,
	gochart.ColorOrange,
	gochart.ColorAlternateGray,
}

func seriesStyle(s Series, index int) gochart.Style {
	color := palette[index%len(palette)]
	if s.Color != "" {
		color = drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#"))
	}
	if s.Kind == KindScatter {
		return gochart.Style{
			StrokeWidth: gochart.Disabled,
			DotWidth:    4,
			DotColor:    color,
		}
	}
	return gochart.Style{
		StrokeColor: color,
		StrokeWidth: 2,
	}
}

func renderRaster(graph gochart.Chart, provider gochart.RendererProvider, w io.Writer) error {
	if err := graph.Render(provider, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func renderJPEG(graph gochart.Chart, w io.Writer) error {
	var buf bytes.Buffer
	if err := renderRaster(graph, gochart.PNG, &buf); err != nil {
		return err
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return fmt.Errorf("decode rendered png: %w", err)
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

func renderPDF(graph gochart.Chart, c canvas, w io.Writer) error {
	var raster bytes.Buffer
	if err := renderRaster(graph, gochart.PNG, &raster); err != nil {
		return err
	}

	// Page size in points keeps the physical size implied by the DPI.
	pageW := float64(c.width) * 72 / c.dpi
	pageH := float64(c.height) * 72 / c.dpi
	orientation := "P"
	if pageW > pageH {
		orientation = "L"
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if title := strings.TrimSpace(graph.Title); title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.SetCreator("trepro", true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("figure", opts, &raster)
	pdf.ImageOptions("figure", 0, 0, pageW, pageH, false, opts, 0, "")
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
