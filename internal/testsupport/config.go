package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"trepro/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Provenance runs in an empty work directory so results never depend on the
// repository the tests execute in.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	workDir := filepath.Join(base, "work")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir work dir: %v", err)
	}

	cfgVal := config.Default()
	cfgVal.Provenance.WorkDir = workDir
	cfgVal.Catalog.Path = filepath.Join(base, "data", "catalog.db")
	cfgVal.Logging.Format = "json"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalog enables the SQLite catalog.
func WithCatalog() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Enabled = true
	}
}

// WithMetricsTextfile points the metrics export at a file under the base dir.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.Textfile = filepath.Join(b.baseDir, "metrics", "trepro.prom")
	}
}

// WithoutProvenance disables git and environment capture.
func WithoutProvenance() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provenance.Enabled = false
	}
}

// WithStubbedGit writes a fake git executable that answers the collector's
// queries with the given commit hash and remote, and configures it as the
// provenance git binary. Any other subcommand exits non-zero.
func WithStubbedGit(hash, remote string) ConfigOption {
	return func(b *configBuilder) {
		script := fmt.Sprintf("#!/bin/sh\n"+
			"case \"$1\" in\n"+
			"log) echo '%s || 2026-01-02 03:04:05 +0000 || Test Author' ;;\n"+
			"remote) echo '%s' ;;\n"+
			"*) exit 1 ;;\n"+
			"esac\n", hash, remote)
		b.cfg.Provenance.GitBinary = writeStub(b, "git", script)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, git is stubbed as a binary that
// always fails so provenance degrades deterministically.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		script := "#!/bin/sh\nexit 0\n"
		if len(names) == 0 {
			names = []string{"git"}
			script = "#!/bin/sh\nexit 1\n"
		}
		for _, name := range names {
			writeStub(b, name, script)
		}
		binDir := filepath.Join(b.baseDir, "bin")
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

func writeStub(b *configBuilder, name, script string) string {
	binDir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	target := filepath.Join(binDir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		b.t.Fatalf("write stub %s: %v", name, err)
	}
	return target
}

// WriteConfig marshals cfg as TOML to path so CLI tests can pass --config.
func WriteConfig(t testing.TB, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Provenance.WorkDir)
}
