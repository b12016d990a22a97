package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(raw string) *Compiled {
	c, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func TestParse(t *testing.T) {
	segs, err := Parse("items.12.name")
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, Segment{Key: "items"}, segs[0])
	assert.Equal(t, Segment{Key: "12", Index: 12, Ordinal: true}, segs[1])
	assert.False(t, segs[2].Ordinal)

	again, err := Parse("items.12.name")
	require.NoError(t, err)
	assert.Equal(t, segs, again)
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"", ".", "a..b", ".a", "a."} {
		_, err := Parse(raw)
		assert.ErrorIs(t, err, ErrMalformedPath, raw)
	}
}

func TestCompiled_RoundTrip(t *testing.T) {
	tree := map[string]any{
		"name":  "x",
		"items": []any{map[string]any{"sku": "a"}},
	}
	for _, raw := range []string{"name", "items.0.sku", "items.1.sku", "deep.er.0.key", "items.0"} {
		c := mustCompile(raw)
		_ = c.Get(tree)
		require.True(t, c.Set(tree, "v"), raw)
		assert.Equal(t, "v", c.Get(tree), raw)
	}
}

func TestCompiled_GetMissingNeverPanics(t *testing.T) {
	tree := map[string]any{"a": "scalar", "list": []any{1}}
	assert.Nil(t, mustCompile("a.b.c").Get(tree))
	assert.Nil(t, mustCompile("list.5").Get(tree))
	assert.Nil(t, mustCompile("list.x").Get(tree))
	assert.Nil(t, mustCompile("nope").Get(tree))
	assert.Nil(t, mustCompile("nope").Get(nil))
	_, ok := mustCompile("list.0").Lookup(tree)
	assert.True(t, ok)
}

func TestCompiled_SetVivifiesByNextSegment(t *testing.T) {
	tree := map[string]any{}
	require.True(t, mustCompile("users.0.tags.0").Set(tree, "admin"))

	users, ok := tree["users"].([]any)
	require.True(t, ok, "ordinal next segment must create a slice")
	require.Len(t, users, 1)
	user, ok := users[0].(map[string]any)
	require.True(t, ok, "key next segment must create a map")
	assert.Equal(t, []any{"admin"}, user["tags"])
}

func TestCompiled_SetKeyOnSliceIsNoop(t *testing.T) {
	tree := map[string]any{"list": []any{1, 2}}
	assert.False(t, mustCompile("list.name").Set(tree, "x"))
	assert.Equal(t, []any{1, 2}, tree["list"])
}

func TestCompiled_SetGrowsByOneOnly(t *testing.T) {
	tree := map[string]any{"list": []any{1, 2}}
	assert.True(t, mustCompile("list.2").Set(tree, 3))
	assert.Equal(t, []any{1, 2, 3}, tree["list"])

	assert.False(t, mustCompile("list.50000000").Set(tree, 4))
	assert.False(t, mustCompile("list.9.name").Set(tree, "x"))
	assert.Len(t, tree["list"], 3)

	// an ordinal into a freshly created slice must be 0
	assert.False(t, mustCompile("fresh.3").Set(tree, 1))
	assert.False(t, mustCompile("obj.rows.1.x").Set(tree, 1))
	_, created := tree["fresh"]
	assert.False(t, created)
	_, created = tree["obj"]
	assert.False(t, created)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "items.0.tags.0", Normalize("items.7.tags.12"))
	assert.Equal(t, "name", Normalize("name"))
}

func TestPointerConversion(t *testing.T) {
	assert.Equal(t, "items.0.name", FromPointer("/items/0/name"))
	assert.Equal(t, "a/b.c~d", FromPointer("/a~1b/c~0d"))
	assert.Equal(t, "", FromPointer("/"))
	assert.Equal(t, "/items/0/name", toPointer("items.0.name"))
	assert.Equal(t, "/", toPointer(""))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "a.b", Join("a", "b"))
	assert.Equal(t, "b", Join("", "b"))
	assert.Equal(t, "a.3", JoinIndex("a", 3))
	assert.Equal(t, "a.b", Parent("a.b.c"))
	assert.Equal(t, "", Parent("a"))
	assert.Equal(t, "c", Last("a.b.c"))
	assert.True(t, HasPrefix("items.0", "items"))
	assert.True(t, HasPrefix("items", "items"))
	assert.False(t, HasPrefix("itemsX", "items"))
}

func TestBuilder_ChainSafe(t *testing.T) {
	base := Root().Field("items")
	a := base.Index(0).Field("name")
	b := base.Index(1)
	assert.Equal(t, "items.0.name", a.String())
	assert.Equal(t, "items.1", b.String())
	assert.Equal(t, "/items/0/name", a.Pointer())
	assert.Equal(t, 3, At("x.1.y").Depth())
}
