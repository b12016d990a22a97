package schema

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/mohae/deepcopy"

	form "github.com/reoring/goskemaform"
	"github.com/reoring/goskemaform/i18n"
	"github.com/reoring/goskemaform/internal/path"
	js "github.com/reoring/goskemaform/jsonschema"
)

// Node is one schema node. Nodes are built with Object, String, Number, Bool,
// Array and Any.
type Node interface {
	// JSONSchema projects the node into a JSON Schema representation.
	JSONSchema() *js.Schema
	check(ctx context.Context, v any, at path.Builder, iss *form.Issues)
}

func report(iss *form.Issues, at path.Builder, code string, params map[string]any) {
	data := make(map[string]string, len(params))
	for k, v := range params {
		switch x := v.(type) {
		case string:
			data[k] = x
		case int:
			data[k] = strconv.Itoa(x)
		case float64:
			data[k] = strconv.FormatFloat(x, 'f', -1, 64)
		}
	}
	*iss = form.AppendIssues(*iss, form.Issue{
		Path:    at.Pointer(),
		Code:    code,
		Message: i18n.T(code, data),
		Params:  params,
	})
}

// ---- object ----

type objectBuilder struct {
	names    []string
	fields   map[string]Node
	required map[string]struct{}
	defaults map[string]any
}

type fieldStep struct {
	b    *objectBuilder
	name string
}

// Object creates a new object builder. Keys without a field are ignored.
func Object() *objectBuilder {
	return &objectBuilder{
		fields:   map[string]Node{},
		required: map[string]struct{}{},
		defaults: map[string]any{},
	}
}

// Field registers a field with its schema.
func (b *objectBuilder) Field(name string, n Node) *fieldStep {
	if _, ok := b.fields[name]; !ok {
		b.names = append(b.names, name)
	}
	b.fields[name] = n
	return &fieldStep{b: b, name: name}
}

// Require marks one or more fields as required.
func (b *objectBuilder) Require(names ...string) *objectBuilder {
	for _, n := range names {
		b.required[n] = struct{}{}
	}
	return b
}

// Required marks the field as required and returns the builder.
func (f *fieldStep) Required() *objectBuilder {
	f.b.required[f.name] = struct{}{}
	return f.b
}

// Optional marks the field as optional (default) and returns the builder.
func (f *fieldStep) Optional() *objectBuilder {
	delete(f.b.required, f.name)
	return f.b
}

// Default sets a default for the current field, applied by ResolveDefaults
// and Parse when the field is missing, and exported to JSON Schema.
func (f *fieldStep) Default(v any) *objectBuilder {
	f.b.defaults[f.name] = v
	return f.b
}

func (f *fieldStep) Field(name string, n Node) *fieldStep   { return f.b.Field(name, n) }
func (f *fieldStep) Require(names ...string) *objectBuilder { return f.b.Require(names...) }
func (f *fieldStep) JSONSchema() *js.Schema                 { return f.b.JSONSchema() }
func (f *fieldStep) check(ctx context.Context, v any, at path.Builder, iss *form.Issues) {
	f.b.check(ctx, v, at, iss)
}

func (b *objectBuilder) JSONSchema() *js.Schema {
	s := &js.Schema{Type: "object", Properties: map[string]*js.Schema{}}
	for _, name := range b.names {
		ps := b.fields[name].JSONSchema()
		if d, ok := b.defaults[name]; ok {
			ps.Default = d
		}
		s.Properties[name] = ps
	}
	for name := range b.required {
		s.Required = append(s.Required, name)
	}
	sort.Strings(s.Required)
	return s
}

func (b *objectBuilder) check(ctx context.Context, v any, at path.Builder, iss *form.Issues) {
	m, ok := v.(map[string]any)
	if !ok {
		report(iss, at, form.CodeInvalidType, map[string]any{"expected": "object"})
		return
	}
	for _, name := range b.names {
		fv, present := m[name]
		if !present || fv == nil {
			if _, req := b.required[name]; req {
				report(iss, at.Field(name), form.CodeRequired, nil)
			}
			continue
		}
		b.fields[name].check(ctx, fv, at.Field(name), iss)
	}
}

// applyDefaults fills missing fields of m in place and descends into present
// objects and arrays.
func (b *objectBuilder) applyDefaults(m map[string]any) {
	for _, name := range b.names {
		v, present := m[name]
		if (!present || v == nil) && b.defaults[name] != nil {
			m[name] = normalizeDefault(b.defaults[name])
			v = m[name]
		}
		applyDefaults(b.fields[name], v)
	}
}

func applyDefaults(n Node, v any) {
	switch x := n.(type) {
	case *fieldStep:
		applyDefaults(x.b, v)
	case *objectBuilder:
		if m, ok := v.(map[string]any); ok {
			x.applyDefaults(m)
		}
	case *arrayBuilder:
		if s, ok := v.([]any); ok {
			for _, el := range s {
				applyDefaults(x.elem, el)
			}
		}
	}
}

// normalizeDefault copies a default into the tree's value model so it is
// never shared between trees.
func normalizeDefault(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		return deepcopy.Copy(v)
	}
	// typed containers and structs go through their JSON form
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

// ---- string ----

type stringBuilder struct {
	min, max *int
	pattern  *regexp.Regexp
	format   string
}

var emailRE = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// String returns a string schema.
func String() *stringBuilder { return &stringBuilder{} }

// Min sets the minimum length in characters.
func (s *stringBuilder) Min(n int) *stringBuilder { s.min = &n; return s }

// Max sets the maximum length in characters.
func (s *stringBuilder) Max(n int) *stringBuilder { s.max = &n; return s }

// Pattern requires a match of re. It panics if re does not compile.
func (s *stringBuilder) Pattern(re string) *stringBuilder {
	s.pattern = regexp.MustCompile(re)
	return s
}

// Email requires an e-mail address.
func (s *stringBuilder) Email() *stringBuilder { s.format = "email"; return s }

func (s *stringBuilder) JSONSchema() *js.Schema {
	out := &js.Schema{Type: "string", Format: s.format, MinLength: s.min, MaxLength: s.max}
	if s.pattern != nil {
		out.Pattern = s.pattern.String()
	}
	return out
}

func (s *stringBuilder) check(_ context.Context, v any, at path.Builder, iss *form.Issues) {
	str, ok := v.(string)
	if !ok {
		report(iss, at, form.CodeInvalidType, map[string]any{"expected": "string"})
		return
	}
	n := utf8.RuneCountInString(str)
	if s.min != nil && n < *s.min {
		report(iss, at, form.CodeTooShort, map[string]any{"min": *s.min, "got": n})
	}
	if s.max != nil && n > *s.max {
		report(iss, at, form.CodeTooLong, map[string]any{"max": *s.max, "got": n})
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		report(iss, at, form.CodePattern, map[string]any{"pattern": s.pattern.String()})
	}
	if s.format == "email" && !emailRE.MatchString(str) {
		report(iss, at, form.CodeInvalidFormat, map[string]any{"format": "email"})
	}
}

// ---- number ----

type numberBuilder struct {
	min, max *float64
	integer  bool
}

// Number returns a number schema. int, int64, float64 and json.Number values
// are accepted.
func Number() *numberBuilder { return &numberBuilder{} }

// Min sets the inclusive minimum.
func (n *numberBuilder) Min(x float64) *numberBuilder { n.min = &x; return n }

// Max sets the inclusive maximum.
func (n *numberBuilder) Max(x float64) *numberBuilder { n.max = &x; return n }

// Int requires an integral value.
func (n *numberBuilder) Int() *numberBuilder { n.integer = true; return n }

func (n *numberBuilder) JSONSchema() *js.Schema {
	t := "number"
	if n.integer {
		t = "integer"
	}
	return &js.Schema{Type: t, Minimum: n.min, Maximum: n.max}
}

func (n *numberBuilder) check(_ context.Context, v any, at path.Builder, iss *form.Issues) {
	x, ok := toFloat(v)
	if !ok {
		report(iss, at, form.CodeInvalidType, map[string]any{"expected": "number"})
		return
	}
	if n.integer && x != math.Trunc(x) {
		report(iss, at, form.CodeNotInteger, map[string]any{"got": x})
	}
	if n.min != nil && x < *n.min {
		report(iss, at, form.CodeTooSmall, map[string]any{"min": *n.min, "got": x})
	}
	if n.max != nil && x > *n.max {
		report(iss, at, form.CodeTooBig, map[string]any{"max": *n.max, "got": x})
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// ---- bool ----

type boolBuilder struct{}

// Bool returns a boolean schema.
func Bool() *boolBuilder { return &boolBuilder{} }

func (*boolBuilder) JSONSchema() *js.Schema { return &js.Schema{Type: "boolean"} }

func (*boolBuilder) check(_ context.Context, v any, at path.Builder, iss *form.Issues) {
	if _, ok := v.(bool); !ok {
		report(iss, at, form.CodeInvalidType, map[string]any{"expected": "boolean"})
	}
}

// ---- array ----

type arrayBuilder struct {
	elem     Node
	min, max *int
}

// Array returns an array schema whose elements follow elem.
func Array(elem Node) *arrayBuilder { return &arrayBuilder{elem: elem} }

// Min sets the minimum number of elements.
func (a *arrayBuilder) Min(n int) *arrayBuilder { a.min = &n; return a }

// Max sets the maximum number of elements.
func (a *arrayBuilder) Max(n int) *arrayBuilder { a.max = &n; return a }

func (a *arrayBuilder) JSONSchema() *js.Schema {
	return &js.Schema{Type: "array", Items: a.elem.JSONSchema(), MinItems: a.min, MaxItems: a.max}
}

func (a *arrayBuilder) check(ctx context.Context, v any, at path.Builder, iss *form.Issues) {
	s, ok := v.([]any)
	if !ok {
		report(iss, at, form.CodeInvalidType, map[string]any{"expected": "array"})
		return
	}
	if a.min != nil && len(s) < *a.min {
		report(iss, at, form.CodeTooSmall, map[string]any{"min": *a.min, "got": len(s)})
	}
	if a.max != nil && len(s) > *a.max {
		report(iss, at, form.CodeTooBig, map[string]any{"max": *a.max, "got": len(s)})
	}
	for i, el := range s {
		if ctx.Err() != nil {
			return
		}
		a.elem.check(ctx, el, at.Index(i), iss)
	}
}

// ---- any ----

type anyNode struct{}

// Any accepts every value.
func Any() Node { return anyNode{} }

func (anyNode) JSONSchema() *js.Schema                                 { return &js.Schema{} }
func (anyNode) check(context.Context, any, path.Builder, *form.Issues) {}
