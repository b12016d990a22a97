package reactive

import (
	"sort"

	"github.com/mohae/deepcopy"

	"github.com/reoring/goskemaform/internal/path"
	"github.com/reoring/goskemaform/internal/remap"
)

// ToEnd as a Splice deleteCount removes every element from start onwards.
const ToEnd = -1

// Array is the wrapper of a []any inside the tree. Arrays held by an object
// follow that object across shifts and, once it leaves the tree, keep
// working on its map without reporting. Arrays nested directly in arrays are
// addressed by their path at creation; they retire when a structural change
// above them or the cache bound drops their identity entry, and a retired
// one reads empty and ignores writes.
type Array struct {
	t     *Tree
	owner *Object
	key   string
	fixed string
	gen   uint64
	dead  bool
}

func (a *Array) generation() uint64 { return a.gen }

// boundLocked reports whether a addresses a slot of the current tree.
func (a *Array) boundLocked() bool {
	if a.gen != a.t.gen {
		return false
	}
	if a.owner != nil {
		return a.owner.boundLocked()
	}
	if a.dead {
		return false
	}
	if w, ok := a.t.idents.Get(a.fixed); !ok || w != wrapper(a) {
		a.dead = true
		return false
	}
	return true
}

// writableLocked reports whether a has any container to work on: a slot of
// the tree or the map of its detached owner.
func (a *Array) writableLocked() bool {
	return a.owner != nil || a.boundLocked()
}

func (a *Array) pathLocked() string {
	if a.owner != nil {
		a.owner.boundLocked()
		return path.Join(a.owner.path, a.key)
	}
	return a.fixed
}

// Path returns the array's current path.
func (a *Array) Path() string {
	a.t.Lock()
	defer a.t.Unlock()
	return a.pathLocked()
}

func (a *Array) sliceLocked() []any {
	if a.owner != nil {
		s, _ := a.owner.raw[a.key].([]any)
		return s
	}
	if !a.boundLocked() {
		return nil
	}
	s, _ := a.t.lookupLocked(a.fixed).([]any)
	return s
}

func (a *Array) storeLocked(s []any) {
	if s == nil {
		s = []any{}
	}
	if a.owner != nil {
		a.owner.raw[a.key] = s
		return
	}
	if !a.boundLocked() {
		return
	}
	if c, err := a.t.compileLocked(a.fixed); err == nil {
		c.Set(a.t.root, s)
	}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	a.t.Lock()
	defer a.t.Unlock()
	return len(a.sliceLocked())
}

// At returns element i, wrapping containers. Out of range yields nil.
func (a *Array) At(i int) any {
	a.t.Lock()
	defer a.t.Unlock()
	bound := a.boundLocked()
	s := a.sliceLocked()
	if i < 0 || i >= len(s) {
		return nil
	}
	return a.t.wrapLocked(s[i], path.JoinIndex(a.pathLocked(), i), nil, "", bound)
}

// Values returns a deep copy of the elements.
func (a *Array) Values() []any {
	a.t.Lock()
	defer a.t.Unlock()
	cp, _ := deepcopy.Copy(a.sliceLocked()).([]any)
	return cp
}

// Set writes element i. It is a value write, not a structural mutation.
// i may address an existing element or the slot right after the last one;
// anything further is a no-op.
func (a *Array) Set(i int, v any) bool {
	if i < 0 {
		return false
	}
	a.t.Lock()
	defer a.t.Unlock()
	if !a.writableLocked() {
		return false
	}
	bound := a.boundLocked()
	s := a.sliceLocked()
	if i > len(s) {
		return false
	}
	nv := a.t.normalizeLocked(v)
	var old any
	if i < len(s) {
		old = s[i]
		if sameValue(old, nv) {
			return false
		}
		s[i] = nv
	} else {
		s = append(s, nv)
	}
	a.storeLocked(s)
	if !bound {
		return true
	}
	p := path.JoinIndex(a.pathLocked(), i)
	a.t.replacedLocked(p, old)
	if a.t.hooks.Write != nil {
		a.t.hooks.Write(p)
	}
	return true
}

// mutate applies op to the slice, stores the result and, while a is bound,
// runs the structural bookkeeping for the descriptors op returns.
func (a *Array) mutate(op func(s []any) ([]any, []remap.Mutation)) {
	a.t.Lock()
	defer a.t.Unlock()
	if !a.writableLocked() {
		return
	}
	bound := a.boundLocked()
	next, muts := op(a.sliceLocked())
	a.storeLocked(next)
	if !bound {
		return
	}
	a.t.structuralLocked(a.pathLocked(), muts)
}

// Push appends items and returns the new length.
func (a *Array) Push(items ...any) int {
	n := 0
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		s = append(s, a.t.normalizeAllLocked(items)...)
		n = len(s)
		return s, nil
	})
	return n
}

// Pop removes and returns the last element.
func (a *Array) Pop() any {
	var out any
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		prev := len(s)
		if prev == 0 {
			return s, nil
		}
		out = s[prev-1]
		return s[:prev-1:prev-1], []remap.Mutation{{Kind: remap.Remove, Start: prev - 1, Count: 1}}
	})
	return out
}

// Shift removes and returns the first element.
func (a *Array) Shift() any {
	var out any
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		if len(s) == 0 {
			return s, nil
		}
		out = s[0]
		return append([]any{}, s[1:]...), []remap.Mutation{{Kind: remap.Remove, Start: 0, Count: 1}}
	})
	return out
}

// Unshift prepends items and returns the new length.
func (a *Array) Unshift(items ...any) int {
	n := 0
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		next := append(a.t.normalizeAllLocked(items), s...)
		n = len(next)
		if len(items) == 0 {
			return next, nil
		}
		return next, []remap.Mutation{{Kind: remap.Insert, Start: 0, Count: len(items)}}
	})
	return n
}

// Splice removes deleteCount elements at start, inserts items there and
// returns the removed elements. A negative start counts from the end;
// deleteCount ToEnd (or any negative value) removes through the end.
func (a *Array) Splice(start, deleteCount int, items ...any) []any {
	var removed []any
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		n := len(s)
		start := clampStart(start, n)
		if deleteCount < 0 || start+deleteCount > n {
			deleteCount = n - start
		}
		removed = append([]any{}, s[start:start+deleteCount]...)
		next := make([]any, 0, n-deleteCount+len(items))
		next = append(next, s[:start]...)
		next = append(next, a.t.normalizeAllLocked(items)...)
		next = append(next, s[start+deleteCount:]...)
		var muts []remap.Mutation
		if deleteCount > 0 {
			muts = append(muts, remap.Mutation{Kind: remap.Remove, Start: start, Count: deleteCount})
		}
		if len(items) > 0 {
			muts = append(muts, remap.Mutation{Kind: remap.Insert, Start: start, Count: len(items)})
		}
		return next, muts
	})
	return removed
}

// Insert inserts items before index i.
func (a *Array) Insert(i int, items ...any) {
	a.Splice(i, 0, items...)
}

// Remove removes and returns element i. Out of range is a no-op.
func (a *Array) Remove(i int) any {
	if i < 0 || i >= a.Len() {
		return nil
	}
	removed := a.Splice(i, 1)
	if len(removed) == 0 {
		return nil
	}
	return removed[0]
}

// Swap exchanges elements i and j. Out of range indexes are a no-op.
func (a *Array) Swap(i, j int) {
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		if i < 0 || j < 0 || i >= len(s) || j >= len(s) || i == j {
			return s, nil
		}
		s[i], s[j] = s[j], s[i]
		return s, []remap.Mutation{{Kind: remap.Swap, I: i, J: j}}
	})
}

// Reverse reverses the elements in place.
func (a *Array) Reverse() {
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		n := len(s)
		if n < 2 {
			return s, nil
		}
		order := make([]int, n)
		for i := range order {
			order[i] = n - 1 - i
		}
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			s[i], s[j] = s[j], s[i]
		}
		return s, []remap.Mutation{{Kind: remap.Permute, Order: order}}
	})
}

// Sort stably sorts the elements with less. Element bookkeeping follows the
// elements to their new positions.
func (a *Array) Sort(less func(x, y any) bool) {
	if less == nil {
		return
	}
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		order := make([]int, len(s))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(x, y int) bool { return less(s[order[x]], s[order[y]]) })
		next := make([]any, len(s))
		for n, o := range order {
			next[n] = s[o]
		}
		return next, []remap.Mutation{{Kind: remap.Permute, Order: order}}
	})
}

// Fill writes v to every element in [start, end). Negative bounds count from
// the end; end past the length is clamped.
func (a *Array) Fill(v any, start, end int) {
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		n := len(s)
		start := clampStart(start, n)
		end := clampStart(end, n)
		if end <= start {
			return s, nil
		}
		nv := a.t.normalizeLocked(v)
		for i := start; i < end; i++ {
			s[i] = deepcopy.Copy(nv)
		}
		return s, []remap.Mutation{{Kind: remap.Replace, Start: start, Count: end - start}}
	})
}

// Replace swaps the whole content for items.
func (a *Array) Replace(items []any) {
	a.mutate(func(s []any) ([]any, []remap.Mutation) {
		next := a.t.normalizeAllLocked(items)
		if len(s) == 0 {
			return next, nil
		}
		return next, []remap.Mutation{{Kind: remap.Replace, Start: 0, Count: len(s)}}
	})
}

func clampStart(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return i
}

// structuralLocked runs after an array at p changed shape: it stamps the
// descriptors with p, drops stale per-element cache entries, re-binds the
// surviving element wrappers and reports the mutation.
func (t *Tree) structuralLocked(p string, muts []remap.Mutation) {
	for i := range muts {
		muts[i].Path = p
	}
	if len(muts) > 0 {
		stale := t.idents.TakePrefix(p + ".")
		t.caches.InvalidateUnder(p)
		t.rebindLocked(p, stale)
	}
	if t.hooks.Structural != nil {
		t.hooks.Structural(p, muts)
	}
}
