package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"trepro/internal/faults"
	"trepro/internal/savefig"
)

func TestObserverCountsOutcomes(t *testing.T) {
	m := New("")
	obs := m.Observer()
	ctx := context.Background()

	obs.FigureSaved(ctx, savefig.SaveEvent{Extension: ".png", Outcome: savefig.OutcomeEmbedded, FrameBytes: 900})
	obs.FigureSaved(ctx, savefig.SaveEvent{Extension: ".png", Outcome: savefig.OutcomeEmbedded, FrameBytes: 1200})
	obs.FigureSaved(ctx, savefig.SaveEvent{Extension: ".svg", Outcome: savefig.OutcomeSkipped})

	if got := testutil.ToFloat64(m.saves.WithLabelValues("embedded", "png")); got != 2 {
		t.Fatalf("embedded png = %v", got)
	}
	if got := testutil.ToFloat64(m.saves.WithLabelValues("skipped", "svg")); got != 1 {
		t.Fatalf("skipped svg = %v", got)
	}
	if n := testutil.CollectAndCount(m.frameBytes); n != 1 {
		t.Fatalf("histogram series = %d", n)
	}
}

func TestObserveLoadClassifiesErrors(t *testing.T) {
	m := New("")
	m.ObserveLoad(nil)
	m.ObserveLoad(faults.Wrap(faults.ErrFormat, "frame", "locate", "", nil))
	m.ObserveLoad(faults.Wrap(faults.ErrDecode, "codec", "decode", "", nil))
	m.ObserveLoad(errors.New("permission denied"))

	for label, want := range map[string]float64{"ok": 1, "format_error": 1, "decode_error": 1, "error": 1, "not_found": 0} {
		if got := testutil.ToFloat64(m.loads.WithLabelValues(label)); got != want {
			t.Errorf("%s = %v, want %v", label, got, want)
		}
	}
}

func TestFlushWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trepro.prom")
	m := New(path)
	m.ObserveLoad(nil)
	if err := m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `trepro_loads_total{result="ok"} 1`) {
		t.Fatalf("unexpected textfile:\n%s", data)
	}

	if err := New("").Flush(); err != nil {
		t.Fatalf("Flush without textfile: %v", err)
	}
}
