package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a load target that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrFormat marks a file that lacks a valid metadata frame.
	ErrFormat = errors.New("format error")
	// ErrDecode marks an embedded block that is not a valid record.
	ErrDecode = errors.New("decode error")
	// ErrValidation marks an invalid chart definition.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool marks a failed subprocess such as git.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above; a nil marker defaults to ErrExternalTool.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsLoadFailure reports whether err is one of the definitional load errors.
func IsLoadFailure(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrFormat) || errors.Is(err, ErrDecode)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "trepro failure"
	}
	return strings.Join(parts, ": ")
}
