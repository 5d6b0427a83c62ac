package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"trepro/internal/faults"
	"trepro/internal/logging"
	"trepro/internal/savefig"
)

// ErrRebuildInProgress is returned when another process holds the rebuild lock.
var ErrRebuildInProgress = errors.New("catalog rebuild already in progress")

// RebuildResult summarizes a rebuild.
type RebuildResult struct {
	Scanned  int
	Recorded int
	Removed  int
	Skipped  int
}

// RebuildOptions tunes a rebuild.
type RebuildOptions struct {
	Recursive bool
	Logger    *slog.Logger
}

// Rebuild rescans dir, recording every framed file and dropping entries under
// dir whose files are gone or no longer framed.
func (s *Store) Rebuild(ctx context.Context, dir string, opts RebuildOptions) (RebuildResult, error) {
	logger := logging.NewComponentLogger(opts.Logger, "catalog")
	root, err := filepath.Abs(dir)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("resolve %s: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return RebuildResult{}, fmt.Errorf("%s is not a directory", root)
	}

	lock := flock.New(s.path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return RebuildResult{}, fmt.Errorf("acquire rebuild lock: %w", err)
	}
	if !ok {
		return RebuildResult{}, ErrRebuildInProgress
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release rebuild lock", logging.Error(err))
		}
	}()

	var result RebuildResult
	seen := map[string]struct{}{}
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != root && !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		result.Scanned++
		recorded, err := s.RecordFile(ctx, path, logger)
		if err != nil {
			return err
		}
		if recorded {
			result.Recorded++
			seen[path] = struct{}{}
		} else {
			result.Skipped++
		}
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("scan %s: %w", root, walkErr)
	}

	entries, err := s.List(ctx)
	if err != nil {
		return result, err
	}
	prefix := root + string(filepath.Separator)
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		if !opts.Recursive && filepath.Dir(entry.Path) != root {
			continue
		}
		if _, ok := seen[entry.Path]; ok {
			continue
		}
		if _, err := s.Forget(ctx, entry.Path); err != nil {
			return result, err
		}
		result.Removed++
	}

	logger.Info("catalog rebuilt",
		logging.String(logging.FieldPath, root),
		logging.Int("scanned", result.Scanned),
		logging.Int("recorded", result.Recorded),
		logging.Int("removed", result.Removed),
	)
	return result, nil
}

// RecordFile catalogs path when it holds a readable frame. Files without a
// frame or with a damaged record are skipped and reported as not recorded.
func (s *Store) RecordFile(ctx context.Context, path string, logger *slog.Logger) (bool, error) {
	insp, err := savefig.Inspect(ctx, path, logging.NewNop())
	if err != nil {
		if faults.IsLoadFailure(err) {
			if logger != nil && !errors.Is(err, faults.ErrFormat) {
				logger.Debug("skipping unreadable frame", logging.String(logging.FieldPath, path), logging.Error(err))
			}
			return false, nil
		}
		return false, err
	}
	entry := NewEntry(path, insp.Figure.Title, insp.Metadata)
	entry.PayloadBytes = int64(insp.Frame.PayloadEnd)
	entry.FileBytes = insp.Size
	if _, err := s.Record(ctx, entry); err != nil {
		return false, err
	}
	return true, nil
}
