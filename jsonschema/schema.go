package jsonschema

// Schema is a minimal JSON Schema representation used for import, export and
// input constraint derivation.
type Schema struct {
	// Core
	Type        string `json:"type,omitempty"`
	Format      string `json:"format,omitempty"`
	Default     any    `json:"default,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items    *Schema `json:"items,omitempty"`
	MinItems *int    `json:"minItems,omitempty"`
	MaxItems *int    `json:"maxItems,omitempty"`
}

// IsRequired reports whether name is listed in Required.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Child returns the schema addressed by one path segment: a property of an
// object, or the item schema of an array for an ordinal segment.
func (s *Schema) Child(seg string, ordinal bool) *Schema {
	if s == nil {
		return nil
	}
	switch s.Type {
	case "object":
		return s.Properties[seg]
	case "array":
		if ordinal {
			return s.Items
		}
	}
	return nil
}

// Int returns a pointer to n, for the optional bounds.
func Int(n int) *int { return &n }

// Float returns a pointer to x, for the optional bounds.
func Float(x float64) *float64 { return &x }
