package goskemaform

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/mitchellh/mapstructure"
	"github.com/mohae/deepcopy"

	"github.com/reoring/goskemaform/internal/cache"
	"github.com/reoring/goskemaform/internal/debounce"
	"github.com/reoring/goskemaform/internal/path"
	"github.com/reoring/goskemaform/internal/reactive"
	"github.com/reoring/goskemaform/internal/remap"
)

// Object is the wrapper of an object inside a Form's tree.
type Object = reactive.Object

// Array is the wrapper of an array inside a Form's tree.
type Array = reactive.Array

// Mutation describes one structural change of an array.
type Mutation = remap.Mutation

// Method is an array operation bound to a path (see Form.Call).
type Method = reactive.Method

// ToEnd as a Splice deleteCount removes every element from start onwards.
const ToEnd = reactive.ToEnd

// Validity is the outcome of the latest applied validation pass.
type Validity int

const (
	Unknown Validity = iota
	Valid
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Form binds a data tree to a validator, keeping touched flags and error
// maps aligned with the tree as it changes.
type Form struct {
	v       Validator
	opt     Options
	log     *slog.Logger
	metrics *Metrics

	tree     *reactive.Tree
	fields   *cache.FIFO[*FieldView]
	sched    *debounce.Scheduler
	pristine map[string]any
	declared map[string]bool // normalized validator paths; nil allows every path

	// guarded by the tree lock
	touched    map[string]bool
	schemaErrs ErrorMap
	customErrs ErrorMap
	validity   Validity
	validating int
	issued     uint64
	applied    uint64
	floor      uint64
	disposed   bool

	evMu      sync.Mutex
	events    []Event
	deliverMu sync.Mutex
	subMu     sync.Mutex
	subs      map[int]func(Event)
	subOrder  []int
	nextSub   int
}

// New builds a Form over initial (which is copied, not retained). When v
// resolves defaults they are merged under initial, so caller data wins.
func New(ctx context.Context, v Validator, initial map[string]any, opts ...Options) (*Form, error) {
	if v == nil {
		return nil, ErrNoValidator
	}
	opt := normalizeOptions(opts)
	f := &Form{
		v:          v,
		opt:        opt,
		log:        opt.Logger,
		metrics:    opt.Metrics,
		touched:    map[string]bool{},
		schemaErrs: ErrorMap{},
		customErrs: ErrorMap{},
	}

	data, _ := deepcopy.Copy(initial).(map[string]any)
	if dr, ok := v.(DefaultsResolver); ok {
		resolved, err := dr.ResolveDefaults(ctx, deepcopyMap(data))
		if err != nil {
			f.log.Warn("resolve defaults failed", "error", err)
		} else {
			data = mergeTrees(resolved, data)
		}
	}

	f.tree = reactive.New(data, reactive.Hooks{
		Write:      f.onWrite,
		Structural: f.onStructural,
		Unlocked:   f.flush,
	}, reactive.Options{
		PathCacheSize:     opt.PathCacheSize,
		IdentityCacheSize: opt.IdentityCacheSize,
		MethodCacheSize:   opt.MethodCacheSize,
		OnEvict:           f.onEvict,
	})
	f.fields = cache.NewFIFO[*FieldView]("fields", opt.FieldCacheSize)
	f.fields.OnEvict(f.onEvict)
	f.tree.Caches().Add(f.fields)
	f.pristine = f.tree.Snapshot()

	if pl, ok := v.(PathLister); ok {
		f.declared = map[string]bool{}
		for _, p := range pl.Paths() {
			f.declared[path.Normalize(p)] = true
		}
	}
	f.sched = debounce.New(opt.Debounce, f.runScheduled)

	if opt.ValidateOnInit {
		if _, err := f.ValidateSchema(ctx); err != nil {
			f.log.Warn("initial validation failed", "error", err)
		}
	}
	return f, nil
}

func deepcopyMap(m map[string]any) map[string]any {
	cp, _ := deepcopy.Copy(m).(map[string]any)
	if cp == nil {
		cp = map[string]any{}
	}
	return cp
}

// mergeTrees overlays over onto base: objects merge key by key, any other
// value in over replaces base.
func mergeTrees(base, over map[string]any) map[string]any {
	if base == nil {
		return over
	}
	for k, ov := range over {
		bm, bok := base[k].(map[string]any)
		om, ook := ov.(map[string]any)
		if bok && ook {
			base[k] = mergeTrees(bm, om)
			continue
		}
		base[k] = ov
	}
	return base
}

func (f *Form) onWrite(p string) {
	if f.disposed {
		return
	}
	f.touched[p] = true
	f.emitLocked(Event{Kind: EventWrite, Path: p})
	f.sched.Schedule()
}

func (f *Form) onStructural(p string, muts []Mutation) {
	if f.disposed {
		return
	}
	f.touched[p] = true
	for _, m := range muts {
		n := remap.Apply(f.touched, m)
		n += remap.Apply(f.schemaErrs, m)
		n += remap.Apply(f.customErrs, m)
		f.metrics.incStructural(m.Kind.String())
		f.log.Debug("structural mutation", "op", m.String(), "rekeyed", n)
	}
	f.emitLocked(Event{Kind: EventStructural, Path: p, Mutations: append([]Mutation(nil), muts...)})
	f.sched.Batch()
}

func (f *Form) onEvict(cacheName, key string) {
	f.metrics.incEviction(cacheName)
	f.log.Debug("cache eviction", "cache", cacheName, "key", key)
}

// Data returns the wrapper of the whole tree.
func (f *Form) Data() *Object { return f.tree.Root() }

// Value returns the value at p: *Object or *Array for containers, the raw
// value otherwise, nil when missing or malformed.
func (f *Form) Value(p string) any { return f.tree.Get(p) }

// SetValue writes v at p, creating missing containers. It reports whether the
// tree changed; a change marks p touched and schedules validation.
func (f *Form) SetValue(p string, v any) bool { return f.tree.Set(p, v) }

// Array returns the array wrapper at p, or nil when p holds something else.
func (f *Form) Array(p string) *Array { return f.tree.Array(p) }

// Snapshot returns a deep copy of the tree.
func (f *Form) Snapshot() map[string]any { return f.tree.Snapshot() }

// MarshalJSON encodes the current tree.
func (f *Form) MarshalJSON() ([]byte, error) { return json.Marshal(f.tree.Snapshot()) }

// Decode copies the tree into out, a pointer to a struct or map, matching
// struct fields by their json tags.
func (f *Form) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(f.tree.Snapshot())
}

// ---- touched ----

// Touched returns a copy of the touched map.
func (f *Form) Touched() map[string]bool {
	f.tree.Lock()
	defer f.tree.Unlock()
	out := make(map[string]bool, len(f.touched))
	for k, v := range f.touched {
		out[k] = v
	}
	return out
}

// IsTouched reports whether p or anything below it was modified since the
// last reset.
func (f *Form) IsTouched(p string) bool {
	f.tree.Lock()
	defer f.tree.Unlock()
	return f.isTouchedLocked(p)
}

func (f *Form) isTouchedLocked(p string) bool {
	if f.touched[p] {
		return true
	}
	for k := range f.touched {
		if path.HasPrefix(k, p) {
			return true
		}
	}
	return false
}

// MarkTouched marks p touched without scheduling validation.
func (f *Form) MarkTouched(p string) {
	if _, err := path.Parse(p); err != nil {
		return
	}
	f.tree.Lock()
	defer f.tree.Unlock()
	f.touched[p] = true
}

// MarkFieldAsPristine clears the touched flags of p and everything below it.
func (f *Form) MarkFieldAsPristine(p string) {
	f.tree.Lock()
	defer f.tree.Unlock()
	for k := range f.touched {
		if path.HasPrefix(k, p) {
			delete(f.touched, k)
		}
	}
}

// MarkAllTouched marks every path present in the tree.
func (f *Form) MarkAllTouched() {
	f.tree.Lock()
	defer f.tree.Unlock()
	for _, p := range f.tree.PathsLocked() {
		f.touched[p] = true
	}
}

// MarkAllAsPristine clears the touched map.
func (f *Form) MarkAllAsPristine() {
	f.tree.Lock()
	defer f.tree.Unlock()
	clear(f.touched)
}

// ---- errors ----

// Errors returns the effective error map: for every path, schema errors
// followed by custom errors.
func (f *Form) Errors() ErrorMap {
	f.tree.Lock()
	defer f.tree.Unlock()
	out := f.schemaErrs.Clone()
	for p, l := range f.customErrs {
		out[p] = append(out[p], l...)
	}
	return out
}

// SchemaErrors returns a copy of the errors from the latest applied pass.
func (f *Form) SchemaErrors() ErrorMap {
	f.tree.Lock()
	defer f.tree.Unlock()
	return f.schemaErrs.Clone()
}

// CustomErrors returns a copy of the caller-set errors.
func (f *Form) CustomErrors() ErrorMap {
	f.tree.Lock()
	defer f.tree.Unlock()
	return f.customErrs.Clone()
}

// FieldErrors returns the effective error list of p.
func (f *Form) FieldErrors(p string) []string {
	f.tree.Lock()
	defer f.tree.Unlock()
	return f.fieldErrorsLocked(p)
}

func (f *Form) fieldErrorsLocked(p string) []string {
	s, c := f.schemaErrs[p], f.customErrs[p]
	if len(s)+len(c) == 0 {
		return nil
	}
	out := make([]string, 0, len(s)+len(c))
	out = append(out, s...)
	return append(out, c...)
}

// SetCustomError sets the single custom error of p; an empty msg clears it.
// Custom errors survive validation passes.
func (f *Form) SetCustomError(p, msg string) {
	if msg == "" {
		f.SetCustomErrors(p, nil)
		return
	}
	f.SetCustomErrors(p, []string{msg})
}

// SetCustomErrors replaces the custom errors of p; an empty list clears them.
func (f *Form) SetCustomErrors(p string, msgs []string) {
	f.tree.Lock()
	defer f.tree.Unlock()
	if len(msgs) == 0 {
		if _, ok := f.customErrs[p]; !ok {
			return
		}
		delete(f.customErrs, p)
	} else {
		f.customErrs[p] = append([]string(nil), msgs...)
	}
	f.emitLocked(Event{Kind: EventErrors, Path: p})
}

// ClearCustomErrors removes every custom error.
func (f *Form) ClearCustomErrors() {
	f.tree.Lock()
	defer f.tree.Unlock()
	if len(f.customErrs) == 0 {
		return
	}
	clear(f.customErrs)
	f.emitLocked(Event{Kind: EventErrors})
}

// ---- status ----

// IsValid reports whether the latest applied pass succeeded.
func (f *Form) IsValid() bool { return f.Validity() == Valid }

// Validity returns the outcome of the latest applied pass; Unknown before the
// first pass and after Reset.
func (f *Form) Validity() Validity {
	f.tree.Lock()
	defer f.tree.Unlock()
	return f.validity
}

// IsValidating reports whether a validator call is in flight.
func (f *Form) IsValidating() bool {
	f.tree.Lock()
	defer f.tree.Unlock()
	return f.validating > 0
}

// ---- arrays ----

// Push appends items to the array at p and returns its new length.
func (f *Form) Push(p string, items ...any) int {
	a := f.tree.Array(p)
	if a == nil {
		return 0
	}
	return a.Push(items...)
}

// Insert inserts items before index i of the array at p.
func (f *Form) Insert(p string, i int, items ...any) {
	if a := f.tree.Array(p); a != nil {
		a.Insert(i, items...)
	}
}

// Remove removes and returns element i of the array at p.
func (f *Form) Remove(p string, i int) any {
	a := f.tree.Array(p)
	if a == nil {
		return nil
	}
	return a.Remove(i)
}

// Swap exchanges elements i and j of the array at p, together with their
// touched flags and errors.
func (f *Form) Swap(p string, i, j int) {
	if a := f.tree.Array(p); a != nil {
		a.Swap(i, j)
	}
}

// Splice removes deleteCount elements at start of the array at p, inserts
// items there and returns the removed elements.
func (f *Form) Splice(p string, start, deleteCount int, items ...any) []any {
	a := f.tree.Array(p)
	if a == nil {
		return nil
	}
	return a.Splice(start, deleteCount, items...)
}

// Call invokes the array method name ("push", "splice", "swap", ...) on the
// array at p with dynamic arguments.
func (f *Form) Call(p, name string, args ...any) (any, error) {
	m, err := f.tree.Method(p, name)
	if err != nil {
		return nil, err
	}
	return m(args...)
}

// ---- lifecycle ----

// Reset restores the tree to its initial state and clears touched flags,
// both error maps and every cache. A pending validation is cancelled and the
// results of passes in flight are discarded. Calling Reset twice is the same
// as calling it once.
func (f *Form) Reset() {
	f.sched.Cancel()
	f.tree.Replace(deepcopyMap(f.pristine), func() {
		clear(f.touched)
		clear(f.schemaErrs)
		clear(f.customErrs)
		f.validity = Unknown
		f.floor = f.issued
		f.emitLocked(Event{Kind: EventReset})
	})
}

// Wait blocks until no validation is pending or in flight.
func (f *Form) Wait(ctx context.Context) error { return f.sched.Wait(ctx) }

// Dispose stops validation and clears caches and bookkeeping. The tree stays
// readable and writable but no longer schedules validation. Dispose is
// idempotent.
func (f *Form) Dispose() {
	f.tree.Lock()
	if f.disposed {
		f.tree.Unlock()
		return
	}
	f.disposed = true
	clear(f.touched)
	clear(f.schemaErrs)
	clear(f.customErrs)
	f.tree.Caches().Clear()
	f.tree.Unlock()

	f.sched.Stop()
	f.subMu.Lock()
	f.subs = nil
	f.subOrder = nil
	f.subMu.Unlock()
}

// Paths returns the paths present in the tree, sorted.
func (f *Form) Paths() []string {
	ps := f.tree.Paths()
	sort.Strings(ps)
	return ps
}
