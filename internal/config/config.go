package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Save contains configuration for the save interceptor.
type Save struct {
	// EmbedExtensions lists destination extensions that receive a metadata
	// frame. Everything else is saved plainly with a warning.
	EmbedExtensions []string `toml:"embed_extensions"`
	// Trailer appends the length/checksum trailer after the end sentinel.
	Trailer bool `toml:"trailer"`
}

// Provenance contains configuration for environment and git capture.
type Provenance struct {
	Enabled             bool   `toml:"enabled"`
	IncludeDiff         bool   `toml:"include_diff"`
	GitBinary           string `toml:"git_binary"`
	Remote              string `toml:"remote"`
	WorkDir             string `toml:"work_dir"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds"`
}

// Render contains defaults applied to chart definitions that omit them.
type Render struct {
	Width  int     `toml:"width"`
	Height int     `toml:"height"`
	DPI    float64 `toml:"dpi"`
}

// Catalog contains configuration for the SQLite catalog of framed files.
type Catalog struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics contains configuration for the Prometheus textfile export.
type Metrics struct {
	Textfile string `toml:"textfile"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for trepro.
//
// Configuration sections by subsystem:
//   - Save: which extensions get a metadata frame and how it is written
//   - Provenance: git and environment capture
//   - Render: chart definition defaults
//   - Catalog: SQLite ledger of framed files
//   - Metrics: Prometheus textfile export
//   - Logging: log format, level, and optional file sink
type Config struct {
	Save       Save       `toml:"save"`
	Provenance Provenance `toml:"provenance"`
	Render     Render     `toml:"render"`
	Catalog    Catalog    `toml:"catalog"`
	Metrics    Metrics    `toml:"metrics"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/trepro/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("trepro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories backing optional file sinks.
func (c *Config) EnsureDirectories() error {
	targets := make([]string, 0, 3)
	if c.Catalog.Enabled && c.Catalog.Path != "" {
		targets = append(targets, filepath.Dir(c.Catalog.Path))
	}
	if c.Metrics.Textfile != "" {
		targets = append(targets, filepath.Dir(c.Metrics.Textfile))
	}
	if c.Logging.File != "" {
		targets = append(targets, filepath.Dir(c.Logging.File))
	}
	for _, dir := range targets {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueryTimeout returns the per-query provenance timeout, or zero when queries
// inherit the caller's context without an explicit bound.
func (c *Config) QueryTimeout() time.Duration {
	if c.Provenance.QueryTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Provenance.QueryTimeoutSeconds) * time.Second
}

// EmbedsExtension reports whether ext (with or without the leading dot) is in
// the embed set.
func (c *Config) EmbedsExtension(ext string) bool {
	ext = canonicalExtension(ext)
	for _, candidate := range c.Save.EmbedExtensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCatalogPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "trepro", "catalog.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.local/share/trepro/catalog.db"
	}
	return filepath.Join(home, ".local", "share", "trepro", "catalog.db")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
