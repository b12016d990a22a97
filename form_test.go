package goskemaform_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	form "github.com/reoring/goskemaform"
	"github.com/reoring/goskemaform/schema"
)

func userSchema() *schema.Schema {
	return schema.New(schema.Object().
		Field("name", schema.String().Min(2)).Required().
		Field("role", schema.String()).Default("member").
		Field("items", schema.Array(schema.Object().
			Field("name", schema.String().Min(1)).Required())).Optional())
}

func newForm(t *testing.T, v form.Validator, data map[string]any, opts ...form.Options) *form.Form {
	t.Helper()
	if len(opts) == 0 {
		opts = []form.Options{{Debounce: 5 * time.Millisecond}}
	}
	f, err := form.New(context.Background(), v, data, opts...)
	require.NoError(t, err)
	t.Cleanup(f.Dispose)
	return f
}

func wait(t *testing.T, f *form.Form) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, f.Wait(ctx))
}

func items(names ...string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = map[string]any{"name": n}
	}
	return out
}

func TestNew_NoValidator(t *testing.T) {
	_, err := form.New(context.Background(), nil, nil)
	assert.ErrorIs(t, err, form.ErrNoValidator)
}

func TestNew_DefaultsMergedUnderInitial(t *testing.T) {
	in := map[string]any{"name": "Al"}
	f := newForm(t, userSchema(), in)
	assert.Equal(t, "member", f.Value("role"))
	assert.Equal(t, "Al", f.Value("name"))

	in["name"] = "changed"
	assert.Equal(t, "Al", f.Value("name"))

	f2 := newForm(t, userSchema(), map[string]any{"role": "admin"})
	assert.Equal(t, "admin", f2.Value("role"))
}

func TestNew_ValidateOnInit(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": ""}, form.Options{ValidateOnInit: true})
	assert.Equal(t, form.Invalid, f.Validity())
	assert.Equal(t, []string{"must be at least 2 characters"}, f.FieldErrors("name"))
	assert.Empty(t, f.Touched())
}

func TestScenario_NameMinLength(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": ""})
	assert.Equal(t, form.Unknown, f.Validity())

	assert.True(t, f.SetValue("name", "A"))
	wait(t, f)
	assert.False(t, f.IsValid())
	assert.Equal(t, "must be at least 2 characters", f.Field("name").Error())
	assert.True(t, f.IsTouched("name"))

	f.SetValue("name", "Al")
	wait(t, f)
	assert.True(t, f.IsValid())
	assert.Empty(t, f.Errors())
}

func TestSetValue_UnchangedIsSilent(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al"})
	assert.False(t, f.SetValue("name", "Al"))
	assert.Empty(t, f.Touched())
	assert.False(t, f.SetValue("a..b", 1))
	assert.Nil(t, f.Value("a..b"))
}

func TestScenario_SwapMovesErrorsAndTouched(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a", "b")})
	f.SetValue("items.1.name", "")
	wait(t, f)
	require.Equal(t, []string{"items.1.name"}, f.SchemaErrors().Paths())
	f.SetCustomError("items.0.name", "first")

	f.Swap("items", 0, 1)
	assert.Equal(t, []string{"items.0.name"}, f.SchemaErrors().Paths())
	assert.Equal(t, "first", f.CustomErrors().First("items.1.name"))
	assert.True(t, f.IsTouched("items.0.name"))
	assert.False(t, f.IsTouched("items.1.name"))
	assert.Equal(t, "", f.Value("items.0.name"))

	wait(t, f)
	assert.Equal(t, []string{"items.0.name"}, f.SchemaErrors().Paths())
}

func TestScenario_SwapThreeElements(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("", "b", "")},
		form.Options{Debounce: time.Hour})
	_, err := f.ValidateSchema(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"items.0.name", "items.2.name"}, f.SchemaErrors().Paths())

	f.Swap("items", 0, 1)
	assert.Equal(t, []string{"items.1.name", "items.2.name"}, f.SchemaErrors().Paths())
	assert.Equal(t, "b", f.Value("items.0.name"))
}

func TestReset_HeldArrayDoesNotWrite(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a")},
		form.Options{Debounce: time.Hour})
	xs := f.Array("items")
	f.Reset()

	xs.Push(map[string]any{"name": "ghost"})
	assert.Equal(t, items("a"), f.Snapshot()["items"])
	assert.Empty(t, f.Touched())
}

func TestSetValue_CopiesCallerContainers(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al"}, form.Options{Debounce: time.Hour})
	m := map[string]any{"name": "a"}
	f.SetValue("profile", m)
	m["name"] = "mutated outside"
	assert.Equal(t, "a", f.Value("profile.name"))

	assert.False(t, f.SetValue("items.50000000", 1))
	assert.Nil(t, f.Value("items"))
}

func TestScenario_RemoveShiftsTouched(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a", "b", "c")})
	f.SetValue("items.0.name", "A")
	f.SetValue("items.2.name", "C")
	f.SetCustomError("items.1.name", "gone")
	f.SetCustomError("items.2.name", "kept")

	removed := f.Remove("items", 1)
	assert.Equal(t, map[string]any{"name": "b"}, removed)
	assert.Equal(t, map[string]bool{
		"items":        true,
		"items.0.name": true,
		"items.1.name": true,
	}, f.Touched())
	assert.Equal(t, form.ErrorMap{"items.1.name": {"kept"}}, f.CustomErrors())
	assert.Equal(t, "C", f.Value("items.1.name"))
}

func TestScenario_CustomErrorsPersist(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al"})
	f.SetCustomError("name", "taken")

	ok, err := f.ValidateSchema(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"taken"}, f.FieldErrors("name"))

	f.SetValue("name", "A")
	ok, err = f.ValidateSchema(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"must be at least 2 characters", "taken"}, f.FieldErrors("name"))
	assert.Equal(t, "must be at least 2 characters", f.Field("name").Error())

	f.SetCustomError("name", "")
	assert.Empty(t, f.CustomErrors())
	f.SetCustomErrors("role", []string{"x", "y"})
	f.ClearCustomErrors()
	assert.Empty(t, f.CustomErrors())
}

func TestScenario_DebounceCoalesces(t *testing.T) {
	var calls atomic.Int32
	v := form.ValidatorFunc(func(ctx context.Context, data map[string]any) (map[string]any, error) {
		calls.Add(1)
		return data, nil
	})
	f := newForm(t, v, nil, form.Options{Debounce: 50 * time.Millisecond})
	for i := 0; i < 5; i++ {
		f.SetValue("n", i+1)
	}
	wait(t, f)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, f.IsValid())
}

func TestScenario_ArrayBurstSharesPass(t *testing.T) {
	var calls atomic.Int32
	v := form.ValidatorFunc(func(ctx context.Context, data map[string]any) (map[string]any, error) {
		calls.Add(1)
		return data, nil
	})
	f := newForm(t, v, map[string]any{"items": items("a", "b")}, form.Options{Debounce: 30 * time.Millisecond})
	f.Push("items", map[string]any{"name": "c"})
	f.Swap("items", 0, 2)
	f.SetValue("items.0.name", "z")
	f.Remove("items", 1)
	assert.Equal(t, int32(0), calls.Load())
	wait(t, f)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScenario_ResetIsIdempotent(t *testing.T) {
	initial := map[string]any{"name": "Al", "items": items("a")}
	f := newForm(t, userSchema(), initial, form.Options{Debounce: time.Hour})
	want := f.Snapshot()

	f.SetValue("name", "X")
	f.Push("items", map[string]any{"name": "b"})
	f.SetCustomError("name", "bad")
	_, _ = f.ValidateSchema(context.Background())
	require.NotEmpty(t, f.Errors())

	for i := 0; i < 2; i++ {
		f.Reset()
		assert.Equal(t, want, f.Snapshot())
		assert.Empty(t, f.Touched())
		assert.Empty(t, f.Errors())
		assert.Equal(t, form.Unknown, f.Validity())
	}

	// Reset cancels an armed pass
	f.SetValue("name", "Y")
	f.Reset()
	wait(t, f)
	assert.Equal(t, form.Unknown, f.Validity())
}

func TestTouchAPI(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a", "b")})
	f.MarkTouched("items.1.name")
	assert.True(t, f.IsTouched("items"))
	assert.True(t, f.IsTouched("items.1"))
	assert.False(t, f.IsTouched("items.0"))
	f.MarkTouched("bad..path")
	assert.Len(t, f.Touched(), 1)

	f.MarkFieldAsPristine("items")
	assert.Empty(t, f.Touched())

	f.MarkAllTouched()
	for _, p := range []string{"name", "role", "items", "items.0", "items.0.name", "items.1.name"} {
		assert.True(t, f.Touched()[p], p)
	}
	f.MarkAllAsPristine()
	assert.Empty(t, f.Touched())
}

func TestArrayOps(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al"}, form.Options{Debounce: time.Hour})
	assert.Equal(t, 1, f.Push("items", map[string]any{"name": "a"}))
	f.Insert("items", 0, map[string]any{"name": "z"})

	removed := f.Splice("items", 1, 1, map[string]any{"name": "b"}, map[string]any{"name": "c"})
	assert.Equal(t, []any{map[string]any{"name": "a"}}, removed)
	assert.Equal(t, items("z", "b", "c"), f.Snapshot()["items"])

	out, err := f.Call("items", "reverse")
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, items("c", "b", "z"), f.Snapshot()["items"])

	out, err = f.Call("items", "pop")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "z"}, out)

	_, err = f.Call("items", "explode")
	assert.True(t, errors.Is(err, form.ErrUnknownMethod))

	assert.Equal(t, 0, f.Push("name", 1))
	assert.Nil(t, f.Array("name"))
	assert.Equal(t, 2, f.Array("items").Len())
}

type profile struct {
	Name    string    `json:"name"`
	Role    string    `json:"role"`
	Created time.Time `json:"created"`
	Items   []struct {
		Name string `json:"name"`
	} `json:"items"`
}

func TestDecodeAndMarshal(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{
		"name":    "Al",
		"created": "2024-01-02T03:04:05Z",
		"items":   items("a"),
	})
	var p profile
	require.NoError(t, f.Decode(&p))
	assert.Equal(t, "Al", p.Name)
	assert.Equal(t, "member", p.Role)
	assert.Equal(t, 2024, p.Created.Year())
	require.Len(t, p.Items, 1)
	assert.Equal(t, "a", p.Items[0].Name)

	b, err := f.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Al","role":"member","created":"2024-01-02T03:04:05Z","items":[{"name":"a"}]}`, string(b))
}

func TestSetValue_Struct(t *testing.T) {
	f := newForm(t, userSchema(), nil, form.Options{Debounce: time.Hour})
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f.SetValue("profile", profile{Name: "Al", Created: when})
	assert.Equal(t, "Al", f.Value("profile.name"))
	assert.Equal(t, when, f.Value("profile.created"))
}

func TestDispose(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al"})
	f.Dispose()
	f.Dispose()

	assert.True(t, f.SetValue("name", "Bo"))
	assert.Equal(t, "Bo", f.Value("name"))
	assert.Empty(t, f.Touched())
	wait(t, f)
	assert.Equal(t, form.Unknown, f.Validity())

	_, err := f.ValidateSchema(context.Background())
	assert.ErrorIs(t, err, form.ErrDisposed)
}

func TestPaths(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a")})
	assert.Equal(t, []string{"items", "items.0", "items.0.name", "name", "role"}, f.Paths())
}
