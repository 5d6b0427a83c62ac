package testsupport

import (
	"trepro/internal/chart"
)

// NewFigure returns a small valid line chart.
func NewFigure(title string) *chart.Figure {
	return &chart.Figure{
		Title:  title,
		Width:  320,
		Height: 240,
		DPI:    96,
		XAxis:  chart.Axis{Name: "step"},
		YAxis:  chart.Axis{Name: "loss"},
		Series: []chart.Series{
			{
				Name: "train",
				Kind: chart.KindLine,
				X:    []float64{0, 1, 2, 3},
				Y:    []float64{1.0, 0.6, 0.4, 0.3},
			},
		},
	}
}
