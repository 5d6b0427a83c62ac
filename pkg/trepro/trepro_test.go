package trepro

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"trepro/internal/codec"
	"trepro/internal/faults"
	"trepro/internal/frame"
	"trepro/internal/logging"
)

func sampleFigure() *Figure {
	return &Figure{
		Title:  "Throughput",
		Width:  200,
		Height: 150,
		DPI:    96,
		XAxis:  Axis{Name: "batch"},
		YAxis:  Axis{Name: "items/s"},
		Series: []Series{
			{Name: "run", Kind: KindLine, X: []float64{1, 2, 3}, Y: []float64{10, 14, 13}},
		},
	}
}

func patchForTest(t *testing.T, opts ...Option) {
	t.Helper()
	Unpatch()
	base := []Option{WithLogger(logging.NewNop()), WithoutProvenance()}
	PatchSave(append(base, opts...)...)
	t.Cleanup(Unpatch)
}

func TestSaveFigureWithoutPatchWritesPlainFile(t *testing.T) {
	Unpatch()
	dest := filepath.Join(t.TempDir(), "plain.png")
	if _, err := SaveFigure(context.Background(), sampleFigure(), dest); err != nil {
		t.Fatalf("SaveFigure: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.HasFrame(data) {
		t.Fatal("unpatched save should not carry a frame")
	}
}

func TestSaveFigureToleratesNilContext(t *testing.T) {
	var ctx context.Context
	dir := t.TempDir()

	Unpatch()
	if _, err := SaveFigure(ctx, sampleFigure(), filepath.Join(dir, "plain.png")); err != nil {
		t.Fatalf("unpatched SaveFigure: %v", err)
	}

	patchForTest(t)
	dest := filepath.Join(dir, "patched.png")
	if _, err := SaveFigure(ctx, sampleFigure(), dest); err != nil {
		t.Fatalf("patched SaveFigure: %v", err)
	}
	if _, _, err := LoadSavedFigure(dest); err != nil {
		t.Fatalf("LoadSavedFigure: %v", err)
	}
}

func TestPatchSaveRoundTrip(t *testing.T) {
	patchForTest(t)
	dest := filepath.Join(t.TempDir(), "chart.png")
	fig := sampleFigure()

	if _, err := SaveFigure(context.Background(), fig, dest); err != nil {
		t.Fatalf("SaveFigure: %v", err)
	}
	loaded, meta, err := LoadSavedFigure(dest)
	if err != nil {
		t.Fatalf("LoadSavedFigure: %v", err)
	}
	if !reflect.DeepEqual(loaded, fig) {
		t.Fatalf("figure mismatch:\n got %#v\nwant %#v", loaded, fig)
	}
	if meta.SaveVersion() != codec.CurrentVersion {
		t.Fatalf("unexpected save version %q", meta.SaveVersion())
	}
	if len(meta) != 2 {
		t.Fatalf("expected only version keys without provenance, got %#v", meta)
	}
}

func TestPatchSaveTwiceDoesNotDoubleAppend(t *testing.T) {
	patchForTest(t)
	first := PatchSave(WithTrailer(true))
	second := PatchSave()
	if first != second {
		t.Fatal("expected the installed interceptor to be reused")
	}

	dest := filepath.Join(t.TempDir(), "once.pdf")
	if _, err := SaveAndEmbed(context.Background(), sampleFigure(), dest); err != nil {
		t.Fatalf("SaveAndEmbed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n := bytes.Count(data, frame.Start); n != 1 {
		t.Fatalf("expected one start sentinel, found %d", n)
	}
}

func TestSaveAndEmbedWithoutPatchStillEmbeds(t *testing.T) {
	Unpatch()
	dest := filepath.Join(t.TempDir(), "direct.jpg")
	if _, err := SaveAndEmbed(context.Background(), sampleFigure(), dest); err != nil {
		t.Fatalf("SaveAndEmbed: %v", err)
	}
	_, meta, err := LoadSavedFigure(dest)
	if err != nil {
		t.Fatalf("LoadSavedFigure: %v", err)
	}
	if meta.SaveVersion() != codec.CurrentVersion {
		t.Fatalf("unexpected save version %q", meta.SaveVersion())
	}
}

func TestSaveAndEmbedUnsupportedExtension(t *testing.T) {
	patchForTest(t)
	dest := filepath.Join(t.TempDir(), "chart.svg")
	if _, err := SaveAndEmbed(context.Background(), sampleFigure(), dest); err != nil {
		t.Fatalf("SaveAndEmbed: %v", err)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.HasFrame(data) {
		t.Fatal("svg output should not carry a frame")
	}
	if _, _, err := LoadSavedFigure(dest); !errors.Is(err, faults.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestLoadSavedFigureMissingFile(t *testing.T) {
	_, _, err := LoadSavedFigure(filepath.Join(t.TempDir(), "absent.png"))
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
