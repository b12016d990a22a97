package reactive

import (
	"encoding"
	"reflect"
	"strings"

	"github.com/mohae/deepcopy"
)

// normalizeLocked converts v into the tree's value model: map[string]any for
// objects, []any for arrays, everything else a leaf. Wrappers are unwrapped
// into copies so a wrapper never ends up stored inside the tree.
func (t *Tree) normalizeLocked(v any) any {
	switch x := v.(type) {
	case *Object:
		if x.t != t {
			return x.Snapshot()
		}
		cp, _ := deepcopy.Copy(x.raw).(map[string]any)
		return cp
	case *Array:
		var s []any
		if x.t == t {
			s = x.sliceLocked()
		} else {
			s = x.Values()
		}
		cp, _ := deepcopy.Copy(s).([]any)
		if cp == nil {
			cp = []any{}
		}
		return cp
	}
	return normalize(v)
}

func (t *Tree) normalizeAllLocked(items []any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = t.normalizeLocked(it)
	}
	return out
}

// normalizeInPlace normalizes every value of m, rewriting m's entries.
func normalizeInPlace(m map[string]any) {
	for k, v := range m {
		m[k] = normalize(v)
	}
}

// normalize returns v in the tree's value model. Containers always come back
// freshly allocated, so the tree never shares a map or slice with its caller
// or with another position of itself.
func normalize(v any) any {
	switch x := v.(type) {
	case nil, string, bool, float64, int, int64:
		return v
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case encoding.TextMarshaler:
		return v
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	case reflect.Struct:
		return normalizeStruct(rv)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			// byte slices are leaves
			if rv.Kind() == reflect.Array {
				return v
			}
			cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
			reflect.Copy(cp, rv)
			return cp.Interface()
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		if rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	}
	return v
}

// normalizeStruct converts a struct to an object keyed like encoding/json:
// json tag name first, then the field name; "-" skips the field and
// untagged embedded structs are flattened.
func normalizeStruct(rv reflect.Value) map[string]any {
	out := map[string]any{}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		name, omitEmpty := structKey(sf)
		if name == "-" {
			continue
		}
		if sf.Anonymous && sf.IsExported() && sf.Tag.Get("json") == "" {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				for k, v := range normalizeStruct(fv) {
					if _, ok := out[k]; !ok {
						out[k] = v
					}
				}
				continue
			}
		}
		if !sf.IsExported() || (omitEmpty && fv.IsZero()) {
			continue
		}
		out[name] = normalize(fv.Interface())
	}
	return out
}

func structKey(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return "-", false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, strings.Contains(opts, "omitempty")
}

// sameValue reports whether a write of b over a changes nothing. Containers
// compare by identity, leaves by equality when their type allows it.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		return ok && sameMap(x, y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		if len(x) == 0 {
			return cap(x) == cap(y) && reflect.ValueOf(x).UnsafePointer() == reflect.ValueOf(y).UnsafePointer()
		}
		return &x[0] == &y[0]
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
