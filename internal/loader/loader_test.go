package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON(t *testing.T) {
	m, err := JSON([]byte(`{"user":{"age":3,"tags":["a"]}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": map[string]any{"age": float64(3), "tags": []any{"a"}}}, m)

	_, err = JSON([]byte(`[1,2]`))
	assert.ErrorIs(t, err, ErrNotObject)
	_, err = JSON([]byte(`{`))
	assert.Error(t, err)
}

func TestYAML_MatchesJSONModel(t *testing.T) {
	y, err := YAML([]byte("user:\n  age: 3\n  tags: [a]\n  ok: true\n"))
	require.NoError(t, err)
	j, err := JSON([]byte(`{"user":{"age":3,"tags":["a"],"ok":true}}`))
	require.NoError(t, err)
	assert.Equal(t, j, y)

	_, err = YAML([]byte("- 1\n- 2\n"))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestFile_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "data.yml")
	require.NoError(t, os.WriteFile(yml, []byte("name: x\n"), 0o600))
	js := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"name":"x"}`), 0o600))

	a, err := File(yml)
	require.NoError(t, err)
	b, err := File(js)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = File(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestDecodeFile(t *testing.T) {
	type step struct {
		Op   string `json:"op" yaml:"op"`
		Path string `json:"path" yaml:"path"`
	}
	dir := t.TempDir()
	name := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(name, []byte("- op: set\n  path: a.b\n"), 0o600))

	var steps []step
	require.NoError(t, DecodeFile(name, &steps))
	assert.Equal(t, []step{{Op: "set", Path: "a.b"}}, steps)
}
