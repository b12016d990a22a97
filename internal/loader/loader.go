// Package loader reads JSON and YAML documents into the data model used by
// the form engine: map[string]any objects, []any arrays and JSON scalars.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrNotObject is returned when a document's root is not an object.
var ErrNotObject = errors.New("loader: document root is not an object")

// Format names a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the format from a file extension; anything that is not
// .yaml or .yml is treated as JSON.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// JSON decodes a JSON object.
func JSON(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("loader: decode json: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return m, nil
}

// YAML decodes the first document of a YAML stream as an object. Integers
// become float64 so YAML and JSON inputs produce the same values.
func YAML(data []byte) (map[string]any, error) {
	var v any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("loader: decode yaml: %w", err)
	}
	m := yamlAnyToStringMap(v)
	if m == nil {
		return nil, ErrNotObject
	}
	return m, nil
}

// Bytes decodes data in the given format.
func Bytes(data []byte, f Format) (map[string]any, error) {
	if f == FormatYAML {
		return YAML(data)
	}
	return JSON(data)
}

// File reads and decodes the object stored at name.
func File(name string) (map[string]any, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Bytes(data, FormatOf(name))
}

// DecodeFile decodes the document at name into out, a pointer to a Go value
// with json and yaml tags.
func DecodeFile(name string, out any) error {
	data, err := os.ReadFile(name)
	if err != nil {
		return err
	}
	if FormatOf(name) == FormatYAML {
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("loader: decode yaml: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("loader: decode json: %w", err)
	}
	return nil
}

// yamlAnyToStringMap converts YAML-decoded values (which may contain map[any]any)
// into JSON-like map[string]any recursively. Non-map roots return nil.
func yamlAnyToStringMap(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = yamlNormalizeValue(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = yamlNormalizeValue(vv)
		}
		return out
	default:
		return nil
	}
}

// Normalize converts a YAML-decoded value into the JSON data model.
func Normalize(v any) any { return yamlNormalizeValue(v) }

func yamlNormalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any, map[any]any:
		return yamlAnyToStringMap(t)
	case []any:
		arr := make([]any, len(t))
		for i := range t {
			arr[i] = yamlNormalizeValue(t[i])
		}
		return arr
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	default:
		return v
	}
}
