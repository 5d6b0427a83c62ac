package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsSettledFiles(t *testing.T) {
	dir := t.TempDir()
	found := make(chan string, 4)
	w, err := New(dir, func(_ context.Context, path string) { found <- path }, Options{
		Debounce:   30 * time.Millisecond,
		Extensions: []string{".png"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "Chart.PNG")
	if err := os.WriteFile(target, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("frame"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	select {
	case got := <-found:
		if got != target {
			t.Fatalf("reported %q, want %q", got, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for settled file")
	}

	select {
	case extra := <-found:
		t.Fatalf("unexpected extra report %q", extra)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestNewRejectsMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), func(context.Context, string) {}, Options{})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
