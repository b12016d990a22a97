// Package path parses and compiles dotted data-tree paths such as
// "items.0.name". A segment made only of ASCII digits addresses an array
// ordinal; every other segment addresses an object key.
package path

import (
	"errors"
	"strconv"
	"strings"
)

// ErrMalformedPath is returned for empty paths and paths with empty segments.
var ErrMalformedPath = errors.New("path: malformed path")

// Segment is one element of a parsed path.
type Segment struct {
	Key     string // Raw segment text (also set for ordinals).
	Index   int    // Ordinal value when Ordinal is true.
	Ordinal bool
}

// String renders the segment back to its dotted form.
func (s Segment) String() string { return s.Key }

// IsOrdinal reports whether seg is written as a numeral.
func IsOrdinal(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

// Parse splits raw into segments. Parsing is idempotent: the same input always
// yields the same decomposition.
func Parse(raw string) ([]Segment, error) {
	if raw == "" {
		return nil, ErrMalformedPath
	}
	parts := strings.Split(raw, ".")
	segs := make([]Segment, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, ErrMalformedPath
		}
		if IsOrdinal(p) {
			n, err := strconv.Atoi(p)
			if err != nil {
				// numerals beyond int range cannot address a slice
				return nil, ErrMalformedPath
			}
			segs = append(segs, Segment{Key: p, Index: n, Ordinal: true})
			continue
		}
		segs = append(segs, Segment{Key: p})
	}
	return segs, nil
}

// Normalize replaces every ordinal segment with "0". Malformed paths are
// returned unchanged.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}
	parts := strings.Split(raw, ".")
	for i, p := range parts {
		if IsOrdinal(p) {
			parts[i] = "0"
		}
	}
	return strings.Join(parts, ".")
}

// Join appends segments to base, skipping an empty base.
func Join(base string, segs ...string) string {
	b := &strings.Builder{}
	b.WriteString(base)
	for _, s := range segs {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}

// JoinIndex appends an ordinal segment to base.
func JoinIndex(base string, i int) string { return Join(base, strconv.Itoa(i)) }

// Parent returns the path without its last segment ("" for single-segment paths).
func Parent(raw string) string {
	if i := strings.LastIndexByte(raw, '.'); i >= 0 {
		return raw[:i]
	}
	return ""
}

// Last returns the final segment of raw.
func Last(raw string) string {
	if i := strings.LastIndexByte(raw, '.'); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

// HasPrefix reports whether raw equals prefix or lies below it.
func HasPrefix(raw, prefix string) bool {
	if prefix == "" {
		return true
	}
	if !strings.HasPrefix(raw, prefix) {
		return false
	}
	return len(raw) == len(prefix) || raw[len(prefix)] == '.'
}

// FromPointer converts an RFC 6901 JSON Pointer ("/items/0/name") into a
// dotted path ("items.0.name"). The root pointer maps to "".
func FromPointer(ptr string) string {
	if ptr == "" || ptr == "/" {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~1", "/"), "~0", "~")
	}
	return strings.Join(parts, ".")
}

// toPointer converts a dotted path into a JSON Pointer.
func toPointer(raw string) string {
	if raw == "" {
		return "/"
	}
	parts := strings.Split(raw, ".")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(strings.ReplaceAll(p, "~", "~0"), "/", "~1")
	}
	return "/" + strings.Join(parts, "/")
}
