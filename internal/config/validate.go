package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSave(); err != nil {
		return err
	}
	if err := c.validateProvenance(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSave() error {
	for _, ext := range c.Save.EmbedExtensions {
		if len(ext) < 2 {
			return fmt.Errorf("save.embed_extensions: invalid extension %q", ext)
		}
	}
	return nil
}

func (c *Config) validateProvenance() error {
	if c.Provenance.QueryTimeoutSeconds < 0 {
		return errors.New("provenance.query_timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return errors.New("render.width and render.height must be positive")
	}
	if c.Render.DPI <= 0 {
		return errors.New("render.dpi must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "success", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
