// Package telemetry counts saves and loads and writes them to a Prometheus
// textfile for node_exporter's textfile collector.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"trepro/internal/faults"
	"trepro/internal/savefig"
)

// Metrics holds trepro's collectors in a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	saves      *prometheus.CounterVec
	loads      *prometheus.CounterVec
	frameBytes prometheus.Histogram
	textfile   string
}

// New creates the collectors. textfile may be empty, in which case Flush is a
// no-op.
func New(textfile string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trepro",
			Name:      "saves_total",
			Help:      "Figures written, by metadata outcome and file extension.",
		}, []string{"outcome", "extension"}),
		loads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trepro",
			Name:      "loads_total",
			Help:      "Framed files read back, by result.",
		}, []string{"result"}),
		frameBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trepro",
			Name:      "frame_bytes",
			Help:      "Size of appended metadata frames.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		textfile: strings.TrimSpace(textfile),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observer returns a savefig observer feeding the save counters.
func (m *Metrics) Observer() savefig.Observer {
	return savefig.ObserverFunc(func(_ context.Context, event savefig.SaveEvent) {
		ext := strings.TrimPrefix(event.Extension, ".")
		if ext == "" {
			ext = "none"
		}
		m.saves.WithLabelValues(string(event.Outcome), ext).Inc()
		if event.Outcome == savefig.OutcomeEmbedded && event.FrameBytes > 0 {
			m.frameBytes.Observe(float64(event.FrameBytes))
		}
	})
}

// ObserveLoad counts a load attempt by its error class.
func (m *Metrics) ObserveLoad(err error) {
	m.loads.WithLabelValues(loadResult(err)).Inc()
}

func loadResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, faults.ErrNotFound):
		return "not_found"
	case errors.Is(err, faults.ErrFormat):
		return "format_error"
	case errors.Is(err, faults.ErrDecode):
		return "decode_error"
	default:
		return "error"
	}
}

// Flush writes the registry to the configured textfile atomically.
func (m *Metrics) Flush() error {
	if m == nil || m.textfile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.textfile, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
