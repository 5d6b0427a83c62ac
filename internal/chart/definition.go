package chart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"trepro/internal/faults"
)

// DefinitionFormat is the text encoding of a chart definition file.
type DefinitionFormat string

const (
	DefinitionJSON DefinitionFormat = "json"
	DefinitionYAML DefinitionFormat = "yaml"
	DefinitionTOML DefinitionFormat = "toml"
)

// ParseDefinitionFormat normalizes a user supplied format name.
func ParseDefinitionFormat(value string) (DefinitionFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".") {
	case "json":
		return DefinitionJSON, nil
	case "yaml", "yml":
		return DefinitionYAML, nil
	case "toml":
		return DefinitionTOML, nil
	default:
		return "", fmt.Errorf("unsupported definition format %q (want json, yaml or toml)", value)
	}
}

// LoadDefinition reads a chart definition file, picking the decoder from its
// extension, and validates the result.
func LoadDefinition(path string) (*Figure, error) {
	format, err := ParseDefinitionFormat(filepath.Ext(path))
	if err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "chart", "load definition", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, faults.Wrap(faults.ErrNotFound, "chart", "load definition", path, err)
		}
		return nil, fmt.Errorf("read definition %s: %w", path, err)
	}
	fig, err := DecodeDefinition(data, format)
	if err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "chart", "load definition", path, err)
	}
	return fig, nil
}

// DecodeDefinition parses and validates a definition in the given format.
func DecodeDefinition(data []byte, format DefinitionFormat) (*Figure, error) {
	var fig Figure
	switch format {
	case DefinitionJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fig); err != nil {
			return nil, fmt.Errorf("parse json definition: %w", err)
		}
	case DefinitionYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fig); err != nil {
			return nil, fmt.Errorf("parse yaml definition: %w", err)
		}
	case DefinitionTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&fig); err != nil {
			return nil, fmt.Errorf("parse toml definition: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
	if err := fig.Validate(); err != nil {
		return nil, err
	}
	return &fig, nil
}

// EncodeDefinition renders fig as a definition file body.
func EncodeDefinition(fig *Figure, format DefinitionFormat) ([]byte, error) {
	if fig == nil {
		return nil, errors.New("figure is nil")
	}
	switch format {
	case DefinitionJSON:
		data, err := json.MarshalIndent(fig, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json definition: %w", err)
		}
		return append(data, '\n'), nil
	case DefinitionYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(fig); err != nil {
			return nil, fmt.Errorf("encode yaml definition: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml definition: %w", err)
		}
		return buf.Bytes(), nil
	case DefinitionTOML:
		data, err := toml.Marshal(fig)
		if err != nil {
			return nil, fmt.Errorf("encode toml definition: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
}
