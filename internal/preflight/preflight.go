package preflight

import (
	"context"
	"path/filepath"

	"trepro/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.Provenance.Enabled {
		if cfg.Provenance.WorkDir != "" {
			results = append(results, CheckDirectoryAccess("Provenance work dir", cfg.Provenance.WorkDir))
		}
		results = append(results, CheckGitWorkTree(ctx, cfg))
	}

	if cfg.Catalog.Enabled && cfg.Catalog.Path != "" {
		results = append(results, CheckDirectoryAccess("Catalog directory", filepath.Dir(cfg.Catalog.Path)))
	}

	if cfg.Metrics.Textfile != "" {
		results = append(results, CheckDirectoryAccess("Metrics directory", filepath.Dir(cfg.Metrics.Textfile)))
	}

	if cfg.Logging.File != "" {
		results = append(results, CheckDirectoryAccess("Log directory", filepath.Dir(cfg.Logging.File)))
	}

	return results
}
