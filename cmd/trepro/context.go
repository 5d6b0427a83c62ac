package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"trepro/internal/catalog"
	"trepro/internal/chart"
	"trepro/internal/config"
	"trepro/internal/logging"
	"trepro/internal/savefig"
	"trepro/internal/telemetry"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

type commandContext struct {
	flags *globalFlags

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
	logCloser  io.Closer

	metrics *telemetry.Metrics
	catalog *catalog.Store
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.flags != nil {
			path = strings.TrimSpace(c.flags.config)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.flags != nil {
			if level := strings.TrimSpace(c.flags.logLevel); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
			if format := strings.TrimSpace(c.flags.logFormat); format != "" {
				cfg.Logging.Format = strings.ToLower(format)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configExists = exists
	})
	return c.config, c.configErr
}

// loggerFor builds the process logger on first use. Logs go to the command's
// error stream and, when configured, the log file.
func (c *commandContext) loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.logCloser, c.loggerErr = logging.NewFromConfig(cfg, cmd.ErrOrStderr())
	})
	return c.logger, c.loggerErr
}

// reportFailure records a failed command in the log when a logger was built,
// so the log file keeps the error the terminal shows.
func (c *commandContext) reportFailure(cmd *cobra.Command, err error) {
	if err == nil || c.logger == nil || errors.Is(err, context.Canceled) {
		return
	}
	logging.ErrorWithContext(c.logger, "command failed", "command_failed",
		logging.String("command", cmd.CommandPath()),
		logging.Error(err),
	)
}

func (c *commandContext) telemetry() *telemetry.Metrics {
	if c.metrics == nil {
		textfile := ""
		if c.config != nil {
			textfile = c.config.Metrics.Textfile
		}
		c.metrics = telemetry.New(textfile)
	}
	return c.metrics
}

func (c *commandContext) catalogStore() (*catalog.Store, error) {
	if c.catalog != nil {
		return c.catalog, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.OpenFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	c.catalog = store
	return store, nil
}

func (c *commandContext) renderer() *chart.Renderer {
	cfg := c.config
	if cfg == nil {
		return chart.NewRenderer()
	}
	return chart.NewRenderer(chart.WithDefaults(cfg.Render.Width, cfg.Render.Height, cfg.Render.DPI))
}

type saverOptions struct {
	noEmbed     bool
	includeDiff bool
	observer    savefig.Observer
}

// saver returns the renderer wrapped in a metadata interceptor that reports
// to the metrics and, when enabled, the catalog.
func (c *commandContext) saver(cmd *cobra.Command, opts saverOptions) (chart.Saver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	renderer := c.renderer()
	if opts.noEmbed {
		return renderer, nil
	}
	logger, err := c.loggerFor(cmd)
	if err != nil {
		return nil, err
	}

	interceptorOpts := savefig.OptionsFromConfig(cfg, logger)
	if opts.includeDiff {
		interceptorOpts = append(interceptorOpts, savefig.WithIncludeDiff(true))
	}
	observers := []savefig.Observer{c.telemetry().Observer()}
	if opts.observer != nil {
		observers = append(observers, opts.observer)
	}
	if cfg.Catalog.Enabled {
		store, err := c.catalogStore()
		if err != nil {
			logging.WarnWithContext(logger, "catalog unavailable", "catalog_open_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "saved figures will not be cataloged"),
				logging.String(logging.FieldErrorHint, "check catalog.path or run trepro doctor"),
			)
		} else {
			observers = append(observers, store.Observer(logger))
		}
	}
	interceptorOpts = append(interceptorOpts, savefig.WithObservers(observers...))
	return savefig.NewInterceptor(renderer, interceptorOpts...), nil
}

// close flushes metrics and releases the catalog and log file.
func (c *commandContext) close() error {
	var errs []error
	if c.metrics != nil {
		errs = append(errs, c.metrics.Flush())
		c.metrics = nil
	}
	if c.catalog != nil {
		errs = append(errs, c.catalog.Close())
		c.catalog = nil
	}
	if c.logCloser != nil {
		errs = append(errs, c.logCloser.Close())
		c.logCloser = nil
	}
	return errors.Join(errs...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
