// Package logging assembles structured slog loggers and formatting helpers used
// across trepro components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and adds a SUCCESS level between INFO and WARN so completed saves
// and reloads stand out. Component loggers tag every line with the emitting
// package, and WarnWithContext enforces the cause/impact/next-step shape for
// warnings. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
package logging
