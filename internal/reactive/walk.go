package reactive

import (
	"sort"

	"github.com/reoring/goskemaform/internal/path"
)

// walk visits every value below v in depth-first order, keys sorted, calling
// fn with the dotted path of each object entry and array element.
func walk(v any, prefix string, fn func(p string, v any)) {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			p := path.Join(prefix, k)
			fn(p, x[k])
			walk(x[k], p, fn)
		}
	case []any:
		for i, el := range x {
			p := path.JoinIndex(prefix, i)
			fn(p, el)
			walk(el, p, fn)
		}
	}
}

// locate returns the path of the map m below v, found by identity.
func locate(v any, prefix string, m map[string]any) (string, bool) {
	switch x := v.(type) {
	case map[string]any:
		if sameMap(x, m) {
			return prefix, true
		}
		for k, child := range x {
			if p, ok := locate(child, path.Join(prefix, k), m); ok {
				return p, true
			}
		}
	case []any:
		for i, el := range x {
			if p, ok := locate(el, path.JoinIndex(prefix, i), m); ok {
				return p, true
			}
		}
	}
	return "", false
}
