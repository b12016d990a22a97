// Package cache provides the size-bounded caches owned by one engine instance.
//
// Eviction is insertion-ordered (FIFO): when an insertion exceeds the bound,
// the oldest inserted entry is dropped. Reads never refresh an entry.
package cache

import (
	"strings"

	"cogentcore.org/core/base/keylist"
)

// Invalidator is the part of a cache a Group needs for structural invalidation.
type Invalidator interface {
	DropPrefix(prefix string) int
	Clear()
}

// FIFO is a size-bounded, insertion-ordered cache keyed by path strings.
// It is not safe for concurrent use; callers hold the engine lock.
type FIFO[V any] struct {
	name    string
	max     int
	list    *keylist.List[string, V]
	onEvict func(name, key string)
}

// NewFIFO returns a cache bounded to max entries. A non-positive max disables
// the bound.
func NewFIFO[V any](name string, max int) *FIFO[V] {
	return &FIFO[V]{name: name, max: max, list: keylist.New[string, V]()}
}

// OnEvict registers a callback invoked for entries dropped by the size bound.
func (c *FIFO[V]) OnEvict(fn func(name, key string)) { c.onEvict = fn }

// Name returns the cache label used in logs and metrics.
func (c *FIFO[V]) Name() string { return c.name }

// Len returns the number of live entries.
func (c *FIFO[V]) Len() int { return c.list.Len() }

// Get returns the cached value for key.
func (c *FIFO[V]) Get(key string) (V, bool) { return c.list.AtTry(key) }

// Set stores val under key. Replacing an existing key keeps its original
// insertion slot; a new key past the bound evicts the oldest entry.
func (c *FIFO[V]) Set(key string, val V) {
	if _, ok := c.list.AtTry(key); ok {
		c.list.Set(key, val)
		return
	}
	c.list.Set(key, val)
	for c.max > 0 && c.list.Len() > c.max {
		oldest := c.list.Keys[0]
		c.list.DeleteByIndex(0, 1)
		if c.onEvict != nil {
			c.onEvict(c.name, oldest)
		}
	}
}

// Delete removes key, reporting whether it was present.
func (c *FIFO[V]) Delete(key string) bool { return c.list.DeleteByKey(key) }

// Keys returns the live keys in insertion order.
func (c *FIFO[V]) Keys() []string { return append([]string(nil), c.list.Keys...) }

// DropPrefix removes every entry whose key starts with prefix and returns how
// many were removed.
func (c *FIFO[V]) DropPrefix(prefix string) int {
	_, n := c.takePrefix(prefix, false)
	return n
}

// TakePrefix removes and returns every entry whose key starts with prefix,
// in insertion order.
func (c *FIFO[V]) TakePrefix(prefix string) []V {
	vals, _ := c.takePrefix(prefix, true)
	return vals
}

func (c *FIFO[V]) takePrefix(prefix string, collect bool) ([]V, int) {
	hit := false
	for _, k := range c.list.Keys {
		if strings.HasPrefix(k, prefix) {
			hit = true
			break
		}
	}
	if !hit {
		return nil, 0
	}
	keys, vals := c.list.Keys, c.list.Values
	var taken []V
	n := 0
	next := keylist.New[string, V]()
	for i, k := range keys {
		if strings.HasPrefix(k, prefix) {
			n++
			if collect {
				taken = append(taken, vals[i])
			}
			continue
		}
		next.Set(k, vals[i])
	}
	c.list = next
	return taken, n
}

// Clear removes every entry.
func (c *FIFO[V]) Clear() { c.list.Reset() }
