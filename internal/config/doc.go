// Package config loads, normalizes, and validates trepro configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TREPRO_LOG_LEVEL and TREPRO_GIT_BINARY. The Config type centralizes every
// knob the save interceptor, provenance collector, catalog and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extensions and clear validation errors.
package config
