package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/mitchellh/mapstructure"

	js "github.com/reoring/goskemaform/jsonschema"
)

// ErrUnsupported reports a JSON Schema construct the importer cannot express.
var ErrUnsupported = errors.New("schema: unsupported JSON Schema")

// FromDocument decodes a JSON Schema document (as produced by the loader) and
// imports it.
func FromDocument(doc map[string]any) (*Schema, error) {
	var s js.Schema
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &s,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("schema: decode document: %w", err)
	}
	return FromJSONSchema(&s)
}

// FromJSONSchema builds a Schema from s. The root must be an object.
func FromJSONSchema(s *js.Schema) (*Schema, error) {
	if s == nil || s.Type != "object" {
		return nil, fmt.Errorf("%w: root must be an object", ErrUnsupported)
	}
	n, err := nodeFrom(s, "")
	if err != nil {
		return nil, err
	}
	return New(n), nil
}

func nodeFrom(s *js.Schema, at string) (Node, error) {
	if s == nil {
		return Any(), nil
	}
	switch s.Type {
	case "":
		return Any(), nil
	case "object":
		b := Object()
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ps := s.Properties[name]
			child, err := nodeFrom(ps, at+"/"+name)
			if err != nil {
				return nil, err
			}
			step := b.Field(name, child)
			if ps != nil && ps.Default != nil {
				step.Default(ps.Default)
			}
		}
		for _, r := range s.Required {
			if _, ok := b.fields[r]; !ok {
				b.Field(r, Any())
			}
		}
		b.Require(s.Required...)
		return b, nil
	case "string":
		b := &stringBuilder{min: s.MinLength, max: s.MaxLength}
		if s.Pattern != "" {
			re, err := regexp.Compile(s.Pattern)
			if err != nil {
				return nil, fmt.Errorf("schema: pattern at %q: %w", at, err)
			}
			b.pattern = re
		}
		if s.Format == "email" {
			b.format = "email"
		}
		return b, nil
	case "number", "integer":
		return &numberBuilder{min: s.Minimum, max: s.Maximum, integer: s.Type == "integer"}, nil
	case "boolean":
		return Bool(), nil
	case "array":
		elem, err := nodeFrom(s.Items, at+"/0")
		if err != nil {
			return nil, err
		}
		return &arrayBuilder{elem: elem, min: s.MinItems, max: s.MaxItems}, nil
	}
	return nil, fmt.Errorf("%w: type %q at %q", ErrUnsupported, s.Type, at)
}
