package goskemaform

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrValidatorClosed is reported when an async validator closes its channel
// without a result.
var ErrValidatorClosed = errors.New("goskemaform: validator closed result channel")

func (f *Form) runScheduled(ctx context.Context) {
	if _, err := f.runValidation(ctx); err != nil && !errors.Is(err, ErrDisposed) {
		f.log.Warn("validation pass failed", "error", err)
	}
}

// ValidateSchema cancels any pending debounced pass and validates the current
// tree on the calling goroutine. It reports whether the tree is valid. The
// error is non-nil when the Form is disposed, ctx ended, or the validator
// could not run; in the last case the Form is marked invalid.
func (f *Form) ValidateSchema(ctx context.Context) (bool, error) {
	var (
		valid bool
		err   = ErrDisposed
	)
	f.sched.Exec(ctx, func(ctx context.Context) {
		valid, err = f.runValidation(ctx)
	})
	return valid, err
}

// runValidation validates a snapshot outside the lock and applies the result
// unless a later-issued pass was applied first or Reset intervened.
func (f *Form) runValidation(ctx context.Context) (bool, error) {
	f.tree.Lock()
	if f.disposed {
		f.tree.Unlock()
		return false, ErrDisposed
	}
	f.issued++
	seq := f.issued
	f.validating++
	snap := f.tree.SnapshotLocked()
	f.tree.Unlock()

	start := time.Now()
	res := f.invoke(ctx, snap)
	took := time.Since(start)

	f.tree.Lock()
	defer f.tree.Unlock()
	f.validating--
	if f.disposed {
		return false, ErrDisposed
	}
	if ctx.Err() != nil && res.Err != nil && errors.Is(res.Err, ctx.Err()) {
		f.log.Debug("validation pass abandoned", "seq", seq, "error", res.Err)
		return f.validity == Valid, ctx.Err()
	}
	if seq < f.applied || seq <= f.floor {
		f.metrics.incStale()
		f.log.Debug("stale validation result discarded", "seq", seq, "applied", f.applied)
		return f.validity == Valid, nil
	}
	f.applied = seq

	var err error
	switch {
	case res.Err != nil:
		// fail closed: invalid without a partial error map
		clear(f.schemaErrs)
		f.validity = Invalid
		f.metrics.observePass(resultFailed, took)
		err = fmt.Errorf("goskemaform: validator: %w", res.Err)
	case res.Success:
		clear(f.schemaErrs)
		f.validity = Valid
		f.metrics.observePass(resultValid, took)
	default:
		f.schemaErrs = res.Errors.Clone()
		f.validity = Invalid
		f.metrics.observePass(resultInvalid, took)
	}
	f.log.Debug("validation pass applied", "seq", seq, "validity", f.validity, "errors", len(f.schemaErrs), "took", took)
	f.emitLocked(Event{Kind: EventValidated, Valid: f.validity == Valid})
	return f.validity == Valid, err
}

// invoke calls the validator, preferring the async form. A panic is
// recovered into an invocation failure.
func (f *Form) invoke(ctx context.Context, data map[string]any) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("validator panic: %v", r)}
		}
	}()
	if av, ok := f.v.(AsyncValidator); ok {
		select {
		case r, ok := <-av.SafeParseAsync(ctx, data):
			if !ok {
				return Result{Err: ErrValidatorClosed}
			}
			return r
		case <-ctx.Done():
			return Result{Err: ctx.Err()}
		}
	}
	return f.v.SafeParse(ctx, data)
}

// Submit validates the tree and calls onSuccess with a snapshot of it, or
// onFailure with the effective error map. Either callback may be nil. The
// error is that of ValidateSchema; no callback runs when it is non-nil.
func (f *Form) Submit(ctx context.Context, onSuccess func(map[string]any), onFailure func(ErrorMap)) error {
	valid, err := f.ValidateSchema(ctx)
	if err != nil {
		return err
	}
	if valid {
		if onSuccess != nil {
			onSuccess(f.Snapshot())
		}
		return nil
	}
	if onFailure != nil {
		onFailure(f.Errors())
	}
	return nil
}
