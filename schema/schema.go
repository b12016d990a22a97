// Package schema provides a small builder-style validator for data trees.
//
// A Schema satisfies goskemaform.Validator together with the optional
// DefaultsResolver, PathLister, AttributeProvider and AsyncValidator
// interfaces, so a Form gets defaults, the declared path set and input
// constraints from one value.
package schema

import (
	"context"
	"sort"
	"sync"

	"github.com/mohae/deepcopy"

	form "github.com/reoring/goskemaform"
	"github.com/reoring/goskemaform/internal/path"
	js "github.com/reoring/goskemaform/jsonschema"
)

// MaxPathDepth bounds the number of segments Paths enumerates.
const MaxPathDepth = 8

// Schema validates whole trees against a root Node.
type Schema struct {
	root Node

	once  sync.Once
	proj  *js.Schema
	paths []string
}

var (
	_ form.Validator         = (*Schema)(nil)
	_ form.AsyncValidator    = (*Schema)(nil)
	_ form.DefaultsResolver  = (*Schema)(nil)
	_ form.PathLister        = (*Schema)(nil)
	_ form.AttributeProvider = (*Schema)(nil)
)

// New wraps root. root is normally an Object builder.
func New(root Node) *Schema {
	return &Schema{root: root}
}

func (s *Schema) projection() *js.Schema {
	s.once.Do(func() {
		s.proj = s.root.JSONSchema()
		var out []string
		collectPaths(s.proj, "", 0, &out)
		sort.Strings(out)
		s.paths = out
	})
	return s.proj
}

// Parse applies defaults to a copy of data and validates it. Invalid trees
// yield form.Issues.
func (s *Schema) Parse(ctx context.Context, data map[string]any) (map[string]any, error) {
	out := copyTree(data)
	applyDefaults(s.root, out)
	var iss form.Issues
	s.root.check(ctx, out, path.Root(), &iss)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(iss) > 0 {
		return nil, iss
	}
	return out, nil
}

// SafeParse is Parse with the outcome folded into a Result.
func (s *Schema) SafeParse(ctx context.Context, data map[string]any) form.Result {
	out, err := s.Parse(ctx, data)
	r := form.ResultFromError(err)
	if r.Success {
		r.Data = out
	}
	return r
}

// SafeParseAsync runs SafeParse on its own goroutine.
func (s *Schema) SafeParseAsync(ctx context.Context, data map[string]any) <-chan form.Result {
	ch := make(chan form.Result, 1)
	go func() {
		ch <- s.SafeParse(ctx, data)
	}()
	return ch
}

// ResolveDefaults returns a copy of partial with every missing field that
// declares a default filled in.
func (s *Schema) ResolveDefaults(ctx context.Context, partial map[string]any) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := copyTree(partial)
	applyDefaults(s.root, out)
	return out, nil
}

// Paths lists every declared path in sorted order, with "0" standing for
// array elements.
func (s *Schema) Paths() []string {
	s.projection()
	return append([]string(nil), s.paths...)
}

// JSONSchema returns a fresh JSON Schema projection.
func (s *Schema) JSONSchema() *js.Schema {
	return s.root.JSONSchema()
}

// InputAttributes derives HTML-style input constraints for a normalized path.
// Unknown paths yield nil.
func (s *Schema) InputAttributes(p string) map[string]any {
	segs, err := path.Parse(p)
	if err != nil || len(segs) == 0 {
		return nil
	}
	var parent *js.Schema
	cur := s.projection()
	for _, seg := range segs {
		parent = cur
		cur = cur.Child(seg.Key, path.IsOrdinal(seg.Key))
		if cur == nil {
			return nil
		}
	}

	attrs := map[string]any{}
	last := segs[len(segs)-1].Key
	if parent.Type == "object" && parent.IsRequired(last) {
		attrs["required"] = true
	}
	switch cur.Type {
	case "string":
		attrs["type"] = "text"
		if cur.Format == "email" {
			attrs["type"] = "email"
		}
		if cur.MinLength != nil {
			attrs["minlength"] = *cur.MinLength
		}
		if cur.MaxLength != nil {
			attrs["maxlength"] = *cur.MaxLength
		}
		if cur.Pattern != "" {
			attrs["pattern"] = cur.Pattern
		}
	case "number", "integer":
		attrs["type"] = "number"
		if cur.Minimum != nil {
			attrs["min"] = *cur.Minimum
		}
		if cur.Maximum != nil {
			attrs["max"] = *cur.Maximum
		}
		attrs["step"] = "any"
		if cur.Type == "integer" {
			attrs["step"] = "1"
		}
	case "boolean":
		attrs["type"] = "checkbox"
	}
	return attrs
}

func collectPaths(s *js.Schema, prefix string, depth int, out *[]string) {
	if s == nil || depth >= MaxPathDepth {
		return
	}
	switch s.Type {
	case "object":
		for name, ps := range s.Properties {
			p := path.Join(prefix, name)
			*out = append(*out, p)
			collectPaths(ps, p, depth+1, out)
		}
	case "array":
		p := path.Join(prefix, "0")
		*out = append(*out, p)
		collectPaths(s.Items, p, depth+1, out)
	}
}

func copyTree(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return deepcopy.Copy(m).(map[string]any)
}
