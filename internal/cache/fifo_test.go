package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFIFO_EvictsOldestInserted(t *testing.T) {
	c := NewFIFO[int]("paths", 3)
	var evicted []string
	c.OnEvict(func(name, key string) {
		assert.Equal(t, "paths", name)
		evicted = append(evicted, key)
	})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// reads and replacements do not refresh insertion order
	_, _ = c.Get("a")
	c.Set("a", 10)
	c.Set("d", 4)

	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, []string{"b", "c", "d"}, c.Keys())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestFIFO_Unbounded(t *testing.T) {
	c := NewFIFO[int]("x", 0)
	for i := 0; i < 100; i++ {
		c.Set(string(rune('a'+i%26))+string(rune('a'+i/26)), i)
	}
	assert.Equal(t, 100, c.Len())
}

func TestFIFO_DropAndTakePrefix(t *testing.T) {
	c := NewFIFO[string]("ids", 10)
	c.Set("items", "arr")
	c.Set("items.0", "e0")
	c.Set("items.1.name", "e1n")
	c.Set("itemsX", "other")

	taken := c.TakePrefix("items.")
	assert.Equal(t, []string{"e0", "e1n"}, taken)
	assert.Equal(t, []string{"items", "itemsX"}, c.Keys())

	assert.Equal(t, 0, c.DropPrefix("nothing."))
	assert.Equal(t, 1, c.DropPrefix("itemsX"))
	require.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestGroup_InvalidateUnderKeepsParent(t *testing.T) {
	paths := NewFIFO[int]("paths", 10)
	fields := NewFIFO[int]("fields", 10)
	g := NewGroup(paths)
	g.Add(fields)

	for _, k := range []string{"items", "items.0", "items.0.name", "title"} {
		paths.Set(k, 1)
		fields.Set(k, 1)
	}
	assert.Equal(t, 4, g.InvalidateUnder("items"))
	assert.Equal(t, []string{"items", "title"}, paths.Keys())
	assert.Equal(t, []string{"items", "title"}, fields.Keys())

	g.InvalidateUnder("")
	assert.Equal(t, 0, paths.Len())
	assert.Equal(t, 0, fields.Len())
}
