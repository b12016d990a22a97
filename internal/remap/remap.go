// Package remap rewrites path-keyed bookkeeping after an array changes shape.
//
// Keys are dotted paths. For a mutation on the array at path P only keys of the
// form P.<ordinal>[.rest] are affected; P itself, keys outside P and
// non-ordinal children of P are left alone.
package remap

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates structural mutation kinds.
type Kind int

const (
	Insert  Kind = iota // Count new elements at Start; later ordinals shift up.
	Remove              // Count elements removed at Start; later ordinals shift down.
	Swap                // Elements I and J exchange places.
	Permute             // Elements reordered; Order[new] = old.
	Replace             // Elements in [Start, Start+Count) replaced in place.
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Remove:
		return "remove"
	case Swap:
		return "swap"
	case Permute:
		return "permute"
	case Replace:
		return "replace"
	default:
		return "unknown"
	}
}

// Mutation describes one structural change to the array at Path.
type Mutation struct {
	Kind  Kind
	Path  string
	Start int
	Count int
	I, J  int
	Order []int
}

func (m Mutation) String() string {
	switch m.Kind {
	case Swap:
		return fmt.Sprintf("swap(%s, %d, %d)", m.Path, m.I, m.J)
	case Permute:
		return fmt.Sprintf("permute(%s, %v)", m.Path, m.Order)
	default:
		return fmt.Sprintf("%s(%s, %d, %d)", m.Kind, m.Path, m.Start, m.Count)
	}
}

// Noop reports whether applying m cannot change any key.
func (m Mutation) Noop() bool {
	switch m.Kind {
	case Insert, Remove, Replace:
		return m.Count <= 0
	case Swap:
		return m.I == m.J
	case Permute:
		for i, o := range m.Order {
			if i != o {
				return false
			}
		}
		return true
	}
	return true
}

// Split breaks key into its ordinal under p and the remaining suffix
// (including the leading dot, or "" when key is exactly p.<idx>).
func Split(key, p string) (idx int, rest string, ok bool) {
	if !strings.HasPrefix(key, p+".") {
		return 0, "", false
	}
	tail := key[len(p)+1:]
	seg, rest := tail, ""
	if i := strings.IndexByte(tail, '.'); i >= 0 {
		seg, rest = tail[:i], tail[i:]
	}
	if seg == "" {
		return 0, "", false
	}
	for j := 0; j < len(seg); j++ {
		if seg[j] < '0' || seg[j] > '9' {
			return 0, "", false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, "", false
	}
	return n, rest, true
}

func keyAt(p string, idx int, rest string) string {
	return p + "." + strconv.Itoa(idx) + rest
}

type staged[V any] struct {
	key string
	val V
}

// Apply rewrites the keys of m affected by mut and returns how many keys were
// moved or deleted. Every affected entry is read and deleted before any is
// written back, so no live key is overwritten by another's bookkeeping.
func Apply[V any](m map[string]V, mut Mutation) int {
	if len(m) == 0 || mut.Noop() {
		return 0
	}
	target := targetFunc(mut)
	var moves []staged[V]
	changed := 0
	for k, v := range m {
		idx, rest, ok := Split(k, mut.Path)
		if !ok {
			continue
		}
		nidx, keep := target(idx)
		if keep && nidx == idx {
			continue
		}
		changed++
		if keep {
			moves = append(moves, staged[V]{key: keyAt(mut.Path, nidx, rest), val: v})
		}
	}
	if changed == 0 {
		return 0
	}
	for k := range m {
		idx, _, ok := Split(k, mut.Path)
		if !ok {
			continue
		}
		if nidx, keep := target(idx); !keep || nidx != idx {
			delete(m, k)
		}
	}
	for _, s := range moves {
		m[s.key] = s.val
	}
	return changed
}

// targetFunc maps an old ordinal to its new ordinal, or keep=false when the
// element's bookkeeping must be dropped.
func targetFunc(mut Mutation) func(int) (int, bool) {
	switch mut.Kind {
	case Remove:
		end := mut.Start + mut.Count
		return func(i int) (int, bool) {
			switch {
			case i < mut.Start:
				return i, true
			case i < end:
				return 0, false
			default:
				return i - mut.Count, true
			}
		}
	case Insert:
		return func(i int) (int, bool) {
			if i >= mut.Start {
				return i + mut.Count, true
			}
			return i, true
		}
	case Swap:
		return func(i int) (int, bool) {
			switch i {
			case mut.I:
				return mut.J, true
			case mut.J:
				return mut.I, true
			default:
				return i, true
			}
		}
	case Permute:
		inv := make(map[int]int, len(mut.Order))
		for n, o := range mut.Order {
			inv[o] = n
		}
		return func(i int) (int, bool) {
			if n, ok := inv[i]; ok {
				return n, true
			}
			return i, true
		}
	case Replace:
		end := mut.Start + mut.Count
		return func(i int) (int, bool) {
			if i >= mut.Start && i < end {
				return 0, false
			}
			return i, true
		}
	default:
		return func(i int) (int, bool) { return i, true }
	}
}
