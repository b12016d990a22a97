// Package reactive wraps a nested data tree in explicit, interceptable views.
//
// Objects (map[string]any) and arrays ([]any) are exposed through *Object and
// *Array wrappers. Reads of containers return memoized wrappers; writes and
// array operations go through the Tree, which compares values, reports writes
// and structural mutations through Hooks, and keeps its caches consistent.
//
// All state is guarded by the Tree's mutex. Hooks run with the mutex held and
// must not call back into the Tree; Hooks.Unlocked runs after release.
package reactive

import (
	"sync"

	"github.com/mohae/deepcopy"

	"github.com/reoring/goskemaform/internal/cache"
	"github.com/reoring/goskemaform/internal/path"
	"github.com/reoring/goskemaform/internal/remap"
)

// Hooks receives notifications from the Tree.
type Hooks struct {
	// Write is called after a value write that changed the tree.
	Write func(p string)
	// Structural is called after an array operation with the descriptors it
	// produced, in application order (possibly none, e.g. for push).
	Structural func(p string, muts []remap.Mutation)
	// Unlocked is called after the Tree mutex is released.
	Unlocked func()
}

// Options sizes the Tree caches.
type Options struct {
	PathCacheSize     int
	IdentityCacheSize int
	MethodCacheSize   int
	// OnEvict observes entries dropped by a size bound.
	OnEvict func(cacheName, key string)
}

// wrapper is implemented by *Object and *Array.
type wrapper interface {
	generation() uint64
}

// Tree owns the data tree and its wrappers.
type Tree struct {
	mu    sync.Mutex
	root  map[string]any
	hooks Hooks
	gen   uint64

	paths   *cache.FIFO[*path.Compiled]
	idents  *cache.FIFO[wrapper]
	methods *cache.FIFO[Method]
	caches  *cache.Group
}

// New wraps root. A nil root starts an empty tree. Values in root are
// normalized in place.
func New(root map[string]any, hooks Hooks, opt Options) *Tree {
	if root == nil {
		root = map[string]any{}
	}
	normalizeInPlace(root)
	t := &Tree{
		root:    root,
		hooks:   hooks,
		paths:   cache.NewFIFO[*path.Compiled]("paths", opt.PathCacheSize),
		idents:  cache.NewFIFO[wrapper]("identities", opt.IdentityCacheSize),
		methods: cache.NewFIFO[Method]("methods", opt.MethodCacheSize),
	}
	if opt.OnEvict != nil {
		t.paths.OnEvict(opt.OnEvict)
		t.idents.OnEvict(opt.OnEvict)
		t.methods.OnEvict(opt.OnEvict)
	}
	t.caches = cache.NewGroup(t.paths, t.idents, t.methods)
	return t
}

// Lock acquires the tree mutex. Callers sharing the mutex for their own
// bookkeeping must not call other Tree methods while holding it.
func (t *Tree) Lock() { t.mu.Lock() }

// Unlock releases the tree mutex and then runs Hooks.Unlocked.
func (t *Tree) Unlock() {
	t.mu.Unlock()
	if t.hooks.Unlocked != nil {
		t.hooks.Unlocked()
	}
}

// Caches returns the invalidation group. Callers may add their own per-path
// caches so they are invalidated by structural mutations.
func (t *Tree) Caches() *cache.Group { return t.caches }

// Root returns the wrapper for the whole tree.
func (t *Tree) Root() *Object {
	t.Lock()
	defer t.Unlock()
	return t.rootLocked()
}

func (t *Tree) rootLocked() *Object {
	return t.wrapObjectLocked(t.root, "")
}

func (t *Tree) compileLocked(p string) (*path.Compiled, error) {
	if c, ok := t.paths.Get(p); ok {
		return c, nil
	}
	c, err := path.Compile(p)
	if err != nil {
		return nil, err
	}
	t.paths.Set(p, c)
	return c, nil
}

// Get returns the value at p: wrappers for containers, raw scalars otherwise.
// Missing or malformed paths yield nil.
func (t *Tree) Get(p string) any {
	t.Lock()
	defer t.Unlock()
	c, err := t.compileLocked(p)
	if err != nil {
		return nil
	}
	return t.wrapLocked(c.Get(t.root), p, nil, "", true)
}

// lookupLocked returns the raw value at p; "" is the root.
func (t *Tree) lookupLocked(p string) any {
	if p == "" {
		return t.root
	}
	c, err := t.compileLocked(p)
	if err != nil {
		return nil
	}
	return c.Get(t.root)
}

// Raw returns the unwrapped value at p. Containers are returned as-is; callers
// must treat them as read-only.
func (t *Tree) Raw(p string) any {
	t.Lock()
	defer t.Unlock()
	c, err := t.compileLocked(p)
	if err != nil {
		return nil
	}
	return c.Get(t.root)
}

// Set writes v at p through the same discipline as wrapper writes. It reports
// whether the tree changed. Malformed paths are a no-op.
func (t *Tree) Set(p string, v any) bool {
	t.Lock()
	defer t.Unlock()
	c, err := t.compileLocked(p)
	if err != nil {
		return false
	}
	old, had := c.Lookup(t.root)
	nv := t.normalizeLocked(v)
	if had && sameValue(old, nv) {
		return false
	}
	if !c.Set(t.root, nv) {
		return false
	}
	t.replacedLocked(p, old)
	if t.hooks.Write != nil {
		t.hooks.Write(p)
	}
	return true
}

// Object returns the object wrapper at p, or nil when p does not hold an object.
func (t *Tree) Object(p string) *Object {
	o, _ := t.Get(p).(*Object)
	return o
}

// Array returns the array wrapper at p. A missing value yields a wrapper whose
// first mutation creates the array.
func (t *Tree) Array(p string) *Array {
	t.Lock()
	defer t.Unlock()
	c, err := t.compileLocked(p)
	if err != nil {
		return nil
	}
	v, _ := c.Lookup(t.root)
	switch v.(type) {
	case []any, nil:
	default:
		return nil
	}
	if a, ok := t.cachedArrayLocked(p); ok {
		return a
	}
	owner, key := t.ownerLocked(p)
	a := &Array{t: t, owner: owner, key: key, fixed: p, gen: t.gen}
	t.idents.Set(p, a)
	return a
}

// ownerLocked finds the object wrapper that directly holds p, if any.
func (t *Tree) ownerLocked(p string) (*Object, string) {
	parent, key := path.Parent(p), path.Last(p)
	if parent == "" {
		return t.rootLocked(), key
	}
	c, err := t.compileLocked(parent)
	if err != nil {
		return nil, ""
	}
	if m, ok := c.Get(t.root).(map[string]any); ok {
		return t.wrapObjectLocked(m, parent), key
	}
	return nil, ""
}

// Snapshot returns a deep copy of the tree.
func (t *Tree) Snapshot() map[string]any {
	t.Lock()
	defer t.Unlock()
	return t.snapshotLocked()
}

// SnapshotLocked is Snapshot for callers already holding the lock.
func (t *Tree) SnapshotLocked() map[string]any { return t.snapshotLocked() }

func (t *Tree) snapshotLocked() map[string]any {
	cp, _ := deepcopy.Copy(t.root).(map[string]any)
	if cp == nil {
		cp = map[string]any{}
	}
	return cp
}

// Paths returns every path present in the tree (containers and leaves).
func (t *Tree) Paths() []string {
	t.Lock()
	defer t.Unlock()
	return t.PathsLocked()
}

// PathsLocked is Paths for callers already holding the lock.
func (t *Tree) PathsLocked() []string {
	var out []string
	walk(t.root, "", func(p string, _ any) { out = append(out, p) })
	return out
}

// Replace swaps in a new root without reporting writes, clears every cache
// and retires all existing wrappers. also runs under the same lock.
func (t *Tree) Replace(root map[string]any, also func()) {
	t.Lock()
	defer t.Unlock()
	if root == nil {
		root = map[string]any{}
	}
	normalizeInPlace(root)
	t.root = root
	t.gen++
	t.caches.Clear()
	if also != nil {
		also()
	}
}

// replacedLocked retires wrappers bound below p after its value was replaced.
func (t *Tree) replacedLocked(p string, old any) {
	switch old.(type) {
	case map[string]any, []any:
	default:
		return
	}
	for _, w := range t.idents.TakePrefix(p + ".") {
		detach(w)
	}
	if w, ok := t.idents.Get(p); ok {
		// arrays held by an object resolve through it and stay valid
		if a, isArr := w.(*Array); !isArr || a.owner == nil {
			detach(w)
			t.idents.Delete(p)
		}
	}
	t.caches.InvalidateUnder(p)
}

func detach(w wrapper) {
	switch x := w.(type) {
	case *Object:
		x.detached = true
	case *Array:
		x.dead = true
	}
}

func (t *Tree) cachedArrayLocked(p string) (*Array, bool) {
	w, ok := t.idents.Get(p)
	if !ok || w.generation() != t.gen {
		return nil, false
	}
	a, ok := w.(*Array)
	if !ok || !a.boundLocked() || a.pathLocked() != p {
		return nil, false
	}
	return a, true
}

// wrapLocked wraps v found at p. owner/key identify the holding object for
// arrays; nil owner means p is resolved from the root on every access. When
// the container holding v is no longer bound, v gets an uncached detached
// wrapper instead.
func (t *Tree) wrapLocked(v any, p string, owner *Object, key string, bound bool) any {
	if !bound {
		switch x := v.(type) {
		case map[string]any:
			return &Object{t: t, raw: x, path: p, gen: t.gen, detached: true}
		case []any:
			return &Array{t: t, owner: owner, key: key, fixed: p, gen: t.gen, dead: owner == nil}
		}
		return v
	}
	switch x := v.(type) {
	case map[string]any:
		return t.wrapObjectLocked(x, p)
	case []any:
		if a, ok := t.cachedArrayLocked(p); ok {
			return a
		}
		if owner == nil && p != "" {
			owner, key = t.ownerLocked(p)
		}
		a := &Array{t: t, owner: owner, key: key, fixed: p, gen: t.gen}
		t.idents.Set(p, a)
		return a
	default:
		return v
	}
}

func (t *Tree) wrapObjectLocked(m map[string]any, p string) *Object {
	if w, ok := t.idents.Get(p); ok && w.generation() == t.gen {
		if o, ok := w.(*Object); ok && sameMap(o.raw, m) {
			return o
		}
	}
	o := &Object{t: t, raw: m, path: p, gen: t.gen}
	t.idents.Set(p, o)
	return o
}
