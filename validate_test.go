package goskemaform_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	form "github.com/reoring/goskemaform"
)

// gated resolves its first call only when release is closed, with an error
// map; later calls succeed at once.
type gated struct {
	calls   atomic.Int32
	release chan struct{}
}

func (g *gated) Parse(ctx context.Context, data map[string]any) (map[string]any, error) {
	return data, nil
}

func (g *gated) SafeParse(ctx context.Context, data map[string]any) form.Result {
	return form.Result{Success: true, Data: data}
}

func (g *gated) SafeParseAsync(ctx context.Context, data map[string]any) <-chan form.Result {
	ch := make(chan form.Result, 1)
	n := g.calls.Add(1)
	go func() {
		if n == 1 {
			<-g.release
			ch <- form.Result{Errors: form.ErrorMap{"name": {"stale"}}}
			return
		}
		ch <- form.Result{Success: true, Data: data}
	}()
	return ch
}

func TestValidate_StaleResultDiscarded(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := &gated{release: make(chan struct{})}
	f := newForm(t, g, map[string]any{"name": "Al"}, form.Options{
		Debounce: time.Hour,
		Metrics:  form.NewMetrics(reg),
	})

	type outcome struct {
		ok  bool
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		ok, err := f.ValidateSchema(context.Background())
		first <- outcome{ok, err}
	}()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 && f.IsValidating() },
		time.Second, time.Millisecond)

	ok, err := f.ValidateSchema(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	close(g.release)
	res := <-first
	require.NoError(t, res.err)
	assert.True(t, res.ok)
	assert.True(t, f.IsValid())
	assert.Empty(t, f.Errors())
	assert.False(t, f.IsValidating())

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP goskemaform_validation_stale_total Validation results discarded because a later pass was issued
# TYPE goskemaform_validation_stale_total counter
goskemaform_validation_stale_total 1
# HELP goskemaform_validation_passes_total Validation passes applied, by result
# TYPE goskemaform_validation_passes_total counter
goskemaform_validation_passes_total{result="valid"} 1
`), "goskemaform_validation_stale_total", "goskemaform_validation_passes_total"))
}

func TestValidate_ResetDiscardsInFlight(t *testing.T) {
	g := &gated{release: make(chan struct{})}
	f := newForm(t, g, map[string]any{"name": "Al"}, form.Options{Debounce: time.Hour})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.ValidateSchema(context.Background())
	}()
	require.Eventually(t, func() bool { return g.calls.Load() == 1 }, time.Second, time.Millisecond)

	f.Reset()
	close(g.release)
	<-done
	assert.Equal(t, form.Unknown, f.Validity())
	assert.Empty(t, f.SchemaErrors())
}

func TestValidate_PanicFailsClosed(t *testing.T) {
	reg := prometheus.NewRegistry()
	v := form.ValidatorFunc(func(context.Context, map[string]any) (map[string]any, error) {
		panic("boom")
	})
	f := newForm(t, v, map[string]any{"name": "Al"}, form.Options{Metrics: form.NewMetrics(reg)})

	ok, err := f.ValidateSchema(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.False(t, ok)
	assert.Equal(t, form.Invalid, f.Validity())
	assert.Empty(t, f.SchemaErrors())
	assert.False(t, f.IsValidating())

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP goskemaform_validation_passes_total Validation passes applied, by result
# TYPE goskemaform_validation_passes_total counter
goskemaform_validation_passes_total{result="failed"} 1
`), "goskemaform_validation_passes_total"))
}

func TestValidate_InvocationErrorFailsClosed(t *testing.T) {
	boom := errors.New("backend down")
	calls := 0
	v := form.ValidatorFunc(func(context.Context, map[string]any) (map[string]any, error) {
		calls++
		if calls == 1 {
			return nil, form.Issues{{Path: "/name", Code: form.CodeRequired, Message: "required"}}
		}
		return nil, boom
	})
	f := newForm(t, v, nil, form.Options{Debounce: time.Hour})

	_, err := f.ValidateSchema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, form.ErrorMap{"name": {"required"}}, f.SchemaErrors())

	_, err = f.ValidateSchema(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, form.Invalid, f.Validity())
	assert.Empty(t, f.SchemaErrors())
}

type closing struct{ form.ValidatorFunc }

func (closing) SafeParseAsync(context.Context, map[string]any) <-chan form.Result {
	ch := make(chan form.Result)
	close(ch)
	return ch
}

func TestValidate_AsyncClosedChannel(t *testing.T) {
	f := newForm(t, closing{}, nil)
	_, err := f.ValidateSchema(context.Background())
	assert.ErrorIs(t, err, form.ErrValidatorClosed)
	assert.Equal(t, form.Invalid, f.Validity())
}

func TestValidate_CancelledContextAbandonsPass(t *testing.T) {
	g := &gated{release: make(chan struct{})}
	defer close(g.release)
	f := newForm(t, g, nil, form.Options{Debounce: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.ValidateSchema(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, form.Unknown, f.Validity())
}

func TestSubmit(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "A"}, form.Options{Debounce: time.Hour})

	var failed form.ErrorMap
	require.NoError(t, f.Submit(context.Background(),
		func(map[string]any) { t.Fatal("unexpected success") },
		func(em form.ErrorMap) { failed = em }))
	assert.Equal(t, []string{"name"}, failed.Paths())

	f.SetValue("name", "Al")
	var got map[string]any
	require.NoError(t, f.Submit(context.Background(), func(data map[string]any) { got = data }, nil))
	assert.Equal(t, "Al", got["name"])
	assert.Equal(t, "member", got["role"])

	f.Dispose()
	assert.ErrorIs(t, f.Submit(context.Background(), nil, nil), form.ErrDisposed)
}

func TestMetrics_StructuralAndEvictions(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a", "b", "c")}, form.Options{
		Debounce:      time.Hour,
		PathCacheSize: 2,
		Metrics:       form.NewMetrics(reg),
	})
	f.Swap("items", 0, 2)
	f.Remove("items", 0)
	for _, p := range []string{"name", "role", "items.0.name", "items.1.name"} {
		f.Value(p)
	}

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP goskemaform_structural_mutations_total Array structural mutation descriptors applied, by kind
# TYPE goskemaform_structural_mutations_total counter
goskemaform_structural_mutations_total{kind="remove"} 1
goskemaform_structural_mutations_total{kind="swap"} 1
`), "goskemaform_structural_mutations_total"))

	n, err := testutil.GatherAndCount(reg, "goskemaform_cache_evictions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	f := newForm(t, userSchema(), map[string]any{"name": "Al", "items": items("a", "b")})
	f.Swap("items", 0, 1)
	_, err := f.ValidateSchema(context.Background())
	require.NoError(t, err)
}
