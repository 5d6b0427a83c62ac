// Package watch reports files that settle in a directory so they can be
// cataloged as soon as a save (payload plus appended frame) completes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"trepro/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is reported.
const DefaultDebounce = 250 * time.Millisecond

// Handler receives settled file paths. It runs on the watcher goroutine.
type Handler func(ctx context.Context, path string)

// Options tunes a Watcher.
type Options struct {
	Debounce   time.Duration
	Extensions []string
	Logger     *slog.Logger
}

// Watcher debounces create/write events in one directory.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	handler  Handler
	debounce time.Duration
	exts     map[string]struct{}
	logger   *slog.Logger
	pending  map[string]time.Time
}

// New starts watching dir. Only files whose extension is in opts.Extensions
// are reported; an empty list reports every file.
func New(dir string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watch: handler is nil")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	exts := make(map[string]struct{}, len(opts.Extensions))
	for _, ext := range opts.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}
	return &Watcher{
		dir:      dir,
		watcher:  fw,
		handler:  handler,
		debounce: debounce,
		exts:     exts,
		logger:   logging.NewComponentLogger(opts.Logger, "watch"),
		pending:  map[string]time.Time{},
	}, nil
}

// Run drains events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	w.logger.Info("watching directory", logging.String(logging.FieldPath, w.dir))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.track(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may have been missed"),
				logging.String(logging.FieldErrorHint, "run trepro catalog rebuild"),
			)
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *Watcher) track(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if w.accepts(event.Name) {
			w.pending[event.Name] = time.Now()
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	}
}

func (w *Watcher) flush(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		delete(w.pending, path)
		w.logger.Debug("file settled", logging.String(logging.FieldPath, path))
		w.handler(ctx, path)
	}
}

func (w *Watcher) accepts(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	_, ok := w.exts[strings.ToLower(filepath.Ext(path))]
	return ok
}
