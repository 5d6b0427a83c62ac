package savefig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"trepro/internal/chart"
	"trepro/internal/codec"
	"trepro/internal/faults"
	"trepro/internal/frame"
	"trepro/internal/logging"
)

// Metadata is the flattened record returned by Load: save_version,
// producer_version and every provenance key.
type Metadata map[string]string

// SaveVersion returns the codec version the file was written with.
func (m Metadata) SaveVersion() string {
	return m[codec.KeySaveVersion]
}

// Inspection is everything trepro can learn about a framed file.
type Inspection struct {
	Path     string
	Size     int64
	Figure   *chart.Figure
	Metadata Metadata
	Frame    frame.Info
}

// Load reads a framed file and returns the embedded figure and metadata.
func Load(path string) (*chart.Figure, Metadata, error) {
	insp, err := inspect(context.Background(), path, loadLogger())
	if err != nil {
		return nil, nil, err
	}
	return insp.Figure, insp.Metadata, nil
}

// Inspect is Load plus the frame position and file size.
func Inspect(ctx context.Context, path string, logger *slog.Logger) (*Inspection, error) {
	if logger == nil {
		logger = loadLogger()
	} else {
		logger = logging.NewComponentLogger(logger, "savefig")
	}
	return inspect(ctx, path, logger)
}

func inspect(ctx context.Context, path string, logger *slog.Logger) (*Inspection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, "savefig", "load", path, err)
		}
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	block, info, err := frame.Locate(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	rec, err := codec.Decode(block)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	logging.Success(ctx, logger, "reloaded figure",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldSaveVersion, rec.SaveVersion),
	)
	return &Inspection{
		Path:     path,
		Size:     int64(len(data)),
		Figure:   rec.Chart,
		Metadata: Metadata(rec.Metadata()),
		Frame:    info,
	}, nil
}

func loadLogger() *slog.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if active != nil {
		return active.logger
	}
	return logging.NewComponentLogger(nil, "savefig")
}
