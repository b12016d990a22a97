package reactive

import (
	"reflect"
	"unsafe"

	"github.com/reoring/goskemaform/internal/path"
)

type arrayKey struct {
	owner *Object
	key   string
}

// rebindLocked re-attaches wrappers taken from under p to the positions their
// containers occupy after a structural mutation. Wrappers whose container
// left the array are detached.
func (t *Tree) rebindLocked(p string, stale []wrapper) {
	if len(stale) == 0 {
		return
	}
	objs := make(map[unsafe.Pointer]*Object, len(stale))
	arrs := make(map[arrayKey]*Array)
	for _, w := range stale {
		switch x := w.(type) {
		case *Object:
			if x.gen == t.gen && !x.detached {
				objs[mapPointer(x.raw)] = x
			}
		case *Array:
			if x.owner != nil && x.gen == t.gen {
				arrs[arrayKey{owner: x.owner, key: x.key}] = x
			} else {
				x.dead = true
			}
		}
	}
	c, err := t.compileLocked(p)
	if err == nil {
		s, _ := c.Get(t.root).([]any)
		for i, el := range s {
			t.rebindValueLocked(el, path.JoinIndex(p, i), objs, arrs)
		}
	}
	for _, o := range objs {
		o.detached = true
	}
	for _, a := range arrs {
		a.dead = true
	}
}

func (t *Tree) rebindValueLocked(v any, p string, objs map[unsafe.Pointer]*Object, arrs map[arrayKey]*Array) {
	switch x := v.(type) {
	case map[string]any:
		ptr := mapPointer(x)
		o, ok := objs[ptr]
		if ok {
			delete(objs, ptr)
			o.path = p
			t.idents.Set(p, o)
		}
		for k, child := range x {
			cp := path.Join(p, k)
			if _, isArr := child.([]any); isArr && o != nil {
				ak := arrayKey{owner: o, key: k}
				if a, ok := arrs[ak]; ok {
					delete(arrs, ak)
					t.idents.Set(cp, a)
				}
			}
			t.rebindValueLocked(child, cp, objs, arrs)
		}
	case []any:
		for i, el := range x {
			t.rebindValueLocked(el, path.JoinIndex(p, i), objs, arrs)
		}
	}
}

func mapPointer(m map[string]any) unsafe.Pointer {
	return reflect.ValueOf(m).UnsafePointer()
}

func sameMap(a, b map[string]any) bool {
	return mapPointer(a) == mapPointer(b)
}
