package mftool

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Format selects how Render serializes a result.
type Format string

const (
	FormatNone Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat reads a format name; "" and "none" mean no serialization.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FormatNone, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatNone, fmt.Errorf("unknown output format %q", s)
	}
}

// Render returns v unchanged for FormatNone, otherwise its serialized text.
func Render(v any, format Format) (any, error) {
	switch format {
	case FormatNone:
		return v, nil
	case FormatJSON:
		return RenderJSON(v)
	case FormatYAML:
		b, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("render yaml: %w", err)
		}
		return string(b), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// RenderJSON serializes v as JSON text.
func RenderJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render json: %w", err)
	}
	return string(b), nil
}
