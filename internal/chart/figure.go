package chart

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// SeriesKind selects how a series is drawn.
type SeriesKind string

const (
	KindLine    SeriesKind = "line"
	KindScatter SeriesKind = "scatter"
	KindTime    SeriesKind = "time"
)

// Figure is the reconstructable chart object.
type Figure struct {
	Title  string   `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Width  int      `json:"width,omitempty" yaml:"width,omitempty" toml:"width,omitempty" validate:"gte=0,lte=20000"`
	Height int      `json:"height,omitempty" yaml:"height,omitempty" toml:"height,omitempty" validate:"gte=0,lte=20000"`
	DPI    float64  `json:"dpi,omitempty" yaml:"dpi,omitempty" toml:"dpi,omitempty" validate:"gte=0,lte=1200"`
	XAxis  Axis     `json:"x_axis" yaml:"x_axis" toml:"x_axis"`
	YAxis  Axis     `json:"y_axis" yaml:"y_axis" toml:"y_axis"`
	Legend bool     `json:"legend,omitempty" yaml:"legend,omitempty" toml:"legend,omitempty"`
	Series []Series `json:"series" yaml:"series" toml:"series" validate:"required,min=1,dive"`
}

// Axis names an axis and optionally pins its range.
type Axis struct {
	Name string   `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Min  *float64 `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty" validate:"required_with=Max"`
	Max  *float64 `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty" validate:"required_with=Min"`
}

// Series is one plotted data set. Time series use Times for the x values.
type Series struct {
	Name  string      `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Kind  SeriesKind  `json:"kind" yaml:"kind" toml:"kind" validate:"required,oneof=line scatter time"`
	X     []float64   `json:"x,omitempty" yaml:"x,omitempty" toml:"x,omitempty"`
	Times []time.Time `json:"times,omitempty" yaml:"times,omitempty" toml:"times,omitempty"`
	Y     []float64   `json:"y" yaml:"y" toml:"y" validate:"required,min=1"`
	Color string      `json:"color,omitempty" yaml:"color,omitempty" toml:"color,omitempty" validate:"omitempty,hexcolor"`
}

var figureValidate *validator.Validate

func init() {
	figureValidate = validator.New(validator.WithRequiredStructEnabled())
	figureValidate.RegisterStructValidation(validateSeries, Series{})
	figureValidate.RegisterStructValidation(validateAxis, Axis{})
}

func validateSeries(sl validator.StructLevel) {
	s := sl.Current().Interface().(Series)
	switch s.Kind {
	case KindTime:
		if len(s.X) > 0 {
			sl.ReportError(s.X, "X", "x", "time_series_x", "")
		}
		if len(s.Times) != len(s.Y) {
			sl.ReportError(s.Times, "Times", "times", "len_match_y", "")
		}
	case KindLine, KindScatter:
		if len(s.Times) > 0 {
			sl.ReportError(s.Times, "Times", "times", "numeric_series_times", "")
		}
		if len(s.X) != len(s.Y) {
			sl.ReportError(s.X, "X", "x", "len_match_y", "")
		}
	}
}

func validateAxis(sl validator.StructLevel) {
	a := sl.Current().Interface().(Axis)
	if a.Min != nil && a.Max != nil && *a.Max <= *a.Min {
		sl.ReportError(a.Max, "Max", "max", "gtfield", "Min")
	}
}

// Validate checks the figure structure. Figures containing time series may
// not mix them with numeric series because they need different x axes.
func (f *Figure) Validate() error {
	if f == nil {
		return errors.New("figure is nil")
	}
	if err := figureValidate.Struct(f); err != nil {
		return describeValidation(err)
	}
	if f.hasTimeSeries() && f.hasNumericSeries() {
		return errors.New("series: time series cannot be combined with line or scatter series")
	}
	return nil
}

func (f *Figure) hasTimeSeries() bool {
	for _, s := range f.Series {
		if s.Kind == KindTime {
			return true
		}
	}
	return false
}

func (f *Figure) hasNumericSeries() bool {
	for _, s := range f.Series {
		if s.Kind != KindTime {
			return true
		}
	}
	return false
}

// PointCount totals the y values across series.
func (f *Figure) PointCount() int {
	if f == nil {
		return 0
	}
	total := 0
	for _, s := range f.Series {
		total += len(s.Y)
	}
	return total
}

func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		ns := strings.TrimPrefix(fe.Namespace(), "Figure.")
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", ns, fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", ns, fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
