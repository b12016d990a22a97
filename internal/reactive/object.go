package reactive

import (
	"sort"

	"github.com/mohae/deepcopy"

	"github.com/reoring/goskemaform/internal/path"
)

// Object is the wrapper of a map[string]any inside the tree.
type Object struct {
	t        *Tree
	raw      map[string]any
	path     string
	gen      uint64
	detached bool
}

func (o *Object) generation() uint64 { return o.gen }

// boundLocked reports whether o's map still belongs to the current tree and
// brings o.path up to date. An object whose identity entry is gone (evicted
// by the cache bound) is located again by map identity; one no longer found
// in the tree is detached.
func (o *Object) boundLocked() bool {
	t := o.t
	if o.detached || o.gen != t.gen {
		return false
	}
	if w, ok := t.idents.Get(o.path); ok && w == wrapper(o) {
		return true
	}
	if m, ok := t.lookupLocked(o.path).(map[string]any); ok && sameMap(m, o.raw) {
		return true
	}
	if p, ok := locate(t.root, "", o.raw); ok {
		o.path = p
		if _, taken := t.idents.Get(p); !taken {
			t.idents.Set(p, o)
		}
		return true
	}
	o.detached = true
	return false
}

// Path returns the object's current path ("" for the root). It follows the
// object across array shifts.
func (o *Object) Path() string {
	o.t.Lock()
	defer o.t.Unlock()
	o.boundLocked()
	return o.path
}

// Detached reports whether the object was removed from the tree.
func (o *Object) Detached() bool {
	o.t.Lock()
	defer o.t.Unlock()
	return !o.boundLocked()
}

// Get returns the value under key, wrapping containers. Containers below a
// detached object come back detached as well.
func (o *Object) Get(key string) any {
	o.t.Lock()
	defer o.t.Unlock()
	bound := o.boundLocked()
	v, ok := o.raw[key]
	if !ok {
		return nil
	}
	return o.t.wrapLocked(v, path.Join(o.path, key), o, key, bound)
}

// Lookup reads a dotted path relative to o.
func (o *Object) Lookup(rel string) any {
	o.t.Lock()
	defer o.t.Unlock()
	c, err := path.Compile(rel)
	if err != nil {
		return nil
	}
	bound := o.boundLocked()
	v := c.Get(o.raw)
	if len(c.Segments) == 1 {
		return o.t.wrapLocked(v, path.Join(o.path, rel), o, rel, bound)
	}
	return o.t.wrapLocked(v, path.Join(o.path, rel), nil, "", bound)
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	o.t.Lock()
	defer o.t.Unlock()
	_, ok := o.raw[key]
	return ok
}

// Keys returns the keys in sorted order.
func (o *Object) Keys() []string {
	o.t.Lock()
	defer o.t.Unlock()
	keys := make([]string, 0, len(o.raw))
	for k := range o.raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (o *Object) Len() int {
	o.t.Lock()
	defer o.t.Unlock()
	return len(o.raw)
}

// Set writes v under key. Writing a value identical to the current one is a
// no-op; otherwise the full path is reported as written. A detached object
// keeps working on its own map without reporting.
func (o *Object) Set(key string, v any) bool {
	o.t.Lock()
	defer o.t.Unlock()
	bound := o.boundLocked()
	old, had := o.raw[key]
	nv := o.t.normalizeLocked(v)
	if had && sameValue(old, nv) {
		return false
	}
	o.raw[key] = nv
	if !bound {
		return true
	}
	full := path.Join(o.path, key)
	o.t.replacedLocked(full, old)
	if o.t.hooks.Write != nil {
		o.t.hooks.Write(full)
	}
	return true
}

// Delete removes key. Deleting a missing key is a no-op.
func (o *Object) Delete(key string) bool {
	o.t.Lock()
	defer o.t.Unlock()
	bound := o.boundLocked()
	old, had := o.raw[key]
	if !had {
		return false
	}
	delete(o.raw, key)
	if !bound {
		return true
	}
	full := path.Join(o.path, key)
	o.t.replacedLocked(full, old)
	if o.t.hooks.Write != nil {
		o.t.hooks.Write(full)
	}
	return true
}

// Snapshot returns a deep copy of the object's contents.
func (o *Object) Snapshot() map[string]any {
	o.t.Lock()
	defer o.t.Unlock()
	cp, _ := deepcopy.Copy(o.raw).(map[string]any)
	return cp
}
