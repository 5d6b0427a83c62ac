package provenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"trepro/internal/config"
	"trepro/internal/faults"
	"trepro/internal/logging"
)

// Record keys.
const (
	KeyCwd       = "cwd"
	KeyOS        = "os"
	KeyGitHash   = "git-hash"
	KeyGitDate   = "git-date"
	KeyGitAuthor = "git-author"
	KeyGitRemote = "git-remote"
	KeyGitDiff   = "git-diff"
	KeyDiffStat  = "git-diff-stat"
)

const logSeparator = " || "

// Record is a partial set of provenance facts. A missing key means the fact
// was unavailable.
type Record map[string]string

// Executor abstracts command execution for testability. It returns the
// command's standard output.
type Executor interface {
	Run(ctx context.Context, dir, binary string, args []string) ([]byte, error)
}

// Option configures the collector.
type Option func(*Collector)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Collector) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger used for debug output about failed sources.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logging.NewComponentLogger(logger, "provenance")
	}
}

// WithGitBinary overrides the git executable.
func WithGitBinary(binary string) Option {
	return func(c *Collector) {
		if binary = strings.TrimSpace(binary); binary != "" {
			c.gitBinary = binary
		}
	}
}

// WithRemote selects the remote whose URL is recorded.
func WithRemote(remote string) Option {
	return func(c *Collector) {
		if remote = strings.TrimSpace(remote); remote != "" {
			c.remote = remote
		}
	}
}

// WithWorkDir runs git queries in dir instead of the process directory.
func WithWorkDir(dir string) Option {
	return func(c *Collector) {
		c.workDir = strings.TrimSpace(dir)
	}
}

// WithQueryTimeout bounds each git query. Zero leaves queries unbounded.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *Collector) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// Collector queries provenance sources.
type Collector struct {
	gitBinary string
	remote    string
	workDir   string
	timeout   time.Duration
	exec      Executor
	logger    *slog.Logger
	getwd     func() (string, error)
	platform  func() (string, error)
}

// New constructs a collector with git defaults.
func New(opts ...Option) *Collector {
	c := &Collector{
		gitBinary: config.DefaultGitBinary,
		remote:    config.DefaultGitRemote,
		exec:      commandExecutor{},
		logger:    logging.NewNop(),
		getwd:     os.Getwd,
		platform:  platformName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig applies the [provenance] section before opts.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) *Collector {
	base := []Option{WithLogger(logger)}
	if cfg != nil {
		base = append(base,
			WithGitBinary(cfg.Provenance.GitBinary),
			WithRemote(cfg.Provenance.Remote),
			WithWorkDir(cfg.Provenance.WorkDir),
			WithQueryTimeout(cfg.QueryTimeout()),
		)
	}
	return New(append(base, opts...)...)
}

// Collect gathers every available fact. The git diff is only captured when
// includeDiff is set.
func (c *Collector) Collect(ctx context.Context, includeDiff bool) Record {
	if ctx == nil {
		ctx = context.Background()
	}
	rec := Record{}

	if cwd, err := c.getwd(); err == nil {
		rec[KeyCwd] = cwd
	} else {
		c.debug(ctx, KeyCwd, err)
	}
	if name, err := c.platform(); err == nil && name != "" {
		rec[KeyOS] = name
	} else if err != nil {
		c.debug(ctx, KeyOS, err)
	}

	if out, err := c.git(ctx, "log", "-1", "--date=iso8601", "--format=%H"+logSeparator+"%ad"+logSeparator+"%an"); err == nil {
		parseLog(out, rec)
	} else {
		c.debug(ctx, "git-log", err)
	}

	if out, err := c.git(ctx, "remote", "get-url", c.remote); err == nil {
		if remote := strings.TrimSpace(string(out)); remote != "" {
			rec[KeyGitRemote] = remote
		}
	} else {
		c.debug(ctx, "git-remote", err)
	}

	if includeDiff {
		if out, err := c.git(ctx, "diff"); err == nil {
			c.addDiff(ctx, out, rec)
		} else {
			c.debug(ctx, "git-diff", err)
		}
	}

	return rec
}

func (c *Collector) addDiff(ctx context.Context, out []byte, rec Record) {
	if len(bytes.TrimSpace(out)) == 0 {
		return
	}
	rec[KeyGitDiff] = string(out)
	stat, err := DiffStat(out)
	if err != nil {
		c.debug(ctx, KeyDiffStat, err)
		return
	}
	rec[KeyDiffStat] = stat.String()
}

func parseLog(out []byte, rec Record) {
	line := strings.TrimSpace(string(out))
	if line == "" {
		return
	}
	keys := []string{KeyGitHash, KeyGitDate, KeyGitAuthor}
	parts := strings.SplitN(line, logSeparator, len(keys))
	for i, part := range parts {
		if value := strings.TrimSpace(part); value != "" {
			rec[keys[i]] = value
		}
	}
}

func (c *Collector) git(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	out, err := c.exec.Run(ctx, c.workDir, c.gitBinary, args)
	if err != nil {
		return nil, faults.Wrap(faults.ErrExternalTool, "provenance", c.gitBinary+" "+args[0], "", err)
	}
	return out, nil
}

func (c *Collector) debug(ctx context.Context, source string, err error) {
	c.logger.DebugContext(ctx, "provenance source unavailable",
		logging.String(logging.FieldSource, source),
		logging.Error(err),
	)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("%w: %s", err, msg)
			}
		}
		return nil, err
	}
	return out, nil
}
