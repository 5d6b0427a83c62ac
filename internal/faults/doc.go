// Package faults defines the error markers shared by trepro components.
//
// Components wrap failures with Wrap so callers can classify them with
// errors.Is while the message still carries component and operation context.
// Load-path failures (ErrNotFound, ErrFormat, ErrDecode) are surfaced to
// callers; save-path decoration failures are logged and never returned.
package faults
