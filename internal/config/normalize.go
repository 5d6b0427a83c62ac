package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeSave()
	if err := c.normalizeProvenance(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSave() {
	seen := make(map[string]struct{}, len(c.Save.EmbedExtensions))
	exts := make([]string, 0, len(c.Save.EmbedExtensions))
	for _, ext := range c.Save.EmbedExtensions {
		ext = canonicalExtension(ext)
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Save.EmbedExtensions = exts
}

func (c *Config) normalizeProvenance() error {
	if value, ok := os.LookupEnv("TREPRO_GIT_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Provenance.GitBinary = value
	}
	c.Provenance.GitBinary = strings.TrimSpace(c.Provenance.GitBinary)
	if c.Provenance.GitBinary == "" {
		c.Provenance.GitBinary = DefaultGitBinary
	}
	c.Provenance.Remote = strings.TrimSpace(c.Provenance.Remote)
	if c.Provenance.Remote == "" {
		c.Provenance.Remote = DefaultGitRemote
	}
	if strings.TrimSpace(c.Provenance.WorkDir) != "" {
		var err error
		if c.Provenance.WorkDir, err = expandPath(c.Provenance.WorkDir); err != nil {
			return fmt.Errorf("provenance.work_dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Catalog.Path) == "" {
		c.Catalog.Path = defaultCatalogPath()
	}
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	if strings.TrimSpace(c.Metrics.Textfile) != "" {
		if c.Metrics.Textfile, err = expandPath(c.Metrics.Textfile); err != nil {
			return fmt.Errorf("metrics.textfile: %w", err)
		}
	}
	if strings.TrimSpace(c.Logging.File) != "" {
		if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("TREPRO_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}

func canonicalExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
