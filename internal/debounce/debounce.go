// Package debounce coalesces bursts of requests into a single delayed run.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs a function once a quiet window has passed since the last
// Schedule call. A newer request always supersedes an armed one; a run that
// already started is not interrupted.
type Scheduler struct {
	window time.Duration
	run    func(ctx context.Context)

	mu         sync.Mutex
	timer      *time.Timer
	gen        uint64
	pending    bool
	running    int
	stopped    bool
	idle       chan struct{}
	idleClosed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New returns a Scheduler invoking run after window. run receives a context
// cancelled by Stop.
func New(window time.Duration, run func(ctx context.Context)) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	return &Scheduler{
		window:     window,
		run:        run,
		idle:       idle,
		idleClosed: true,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Schedule (re)arms the timer for the full window.
func (s *Scheduler) Schedule() { s.arm(s.window) }

// Batch joins an armed run, or arms one for the full window when none is.
// Unlike Schedule it never pushes an armed run further out, so a burst of
// Batch calls fires one window after the first.
func (s *Scheduler) Batch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pending {
		return
	}
	s.armLocked(s.window)
}

func (s *Scheduler) arm(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.armLocked(d)
}

func (s *Scheduler) armLocked(d time.Duration) {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	g := s.gen
	s.pending = true
	s.busyLocked()
	s.timer = time.AfterFunc(d, func() { s.fire(g) })
}

func (s *Scheduler) fire(g uint64) {
	s.mu.Lock()
	if g != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.pending = false
	s.running++
	ctx := s.ctx
	s.mu.Unlock()

	s.exec(ctx, s.run)
}

// Exec cancels any armed run and runs fn synchronously on the caller's
// goroutine with ctx. fn counts as a run for Wait. It reports false when the
// scheduler is stopped and fn did not run.
func (s *Scheduler) Exec(ctx context.Context, fn func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false
	}
	s.disarmLocked()
	s.running++
	s.busyLocked()
	s.mu.Unlock()

	s.exec(ctx, fn)
	return true
}

func (s *Scheduler) exec(ctx context.Context, fn func(ctx context.Context)) {
	defer func() {
		s.mu.Lock()
		s.running--
		s.settleLocked()
		s.mu.Unlock()
	}()
	fn(ctx)
}

// Cancel drops an armed run. A run in progress completes.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	s.settleLocked()
}

// Stop cancels any armed run and the context of a run in progress. Later
// calls to Schedule, Batch and Exec are ignored. Stop is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	s.disarmLocked()
	s.cancel()
	s.settleLocked()
}

// Pending reports whether a run is armed.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// executing reports whether a run is in progress.
func (s *Scheduler) executing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running > 0
}

// Wait blocks until nothing is armed or running, or ctx is done. Runs armed
// while waiting are waited for as well.
func (s *Scheduler) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		if !s.pending && s.running == 0 {
			s.mu.Unlock()
			return nil
		}
		ch := s.idle
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Scheduler) disarmLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
	s.pending = false
}

func (s *Scheduler) busyLocked() {
	if s.idleClosed {
		s.idle = make(chan struct{})
		s.idleClosed = false
	}
}

func (s *Scheduler) settleLocked() {
	if !s.pending && s.running == 0 && !s.idleClosed {
		close(s.idle)
		s.idleClosed = true
	}
}
