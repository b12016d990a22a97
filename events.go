package goskemaform

import "fmt"

// EventKind classifies an Event.
type EventKind int

const (
	// EventWrite reports a value write at Path.
	EventWrite EventKind = iota + 1
	// EventStructural reports an array operation at Path with its Mutations.
	EventStructural
	// EventValidated reports an applied validation pass; Valid carries its outcome.
	EventValidated
	// EventErrors reports a change of the custom errors at Path ("" for all).
	EventErrors
	// EventReset reports Reset.
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventWrite:
		return "write"
	case EventStructural:
		return "structural"
	case EventValidated:
		return "validated"
	case EventErrors:
		return "errors"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to subscribers after the engine lock is released, in
// the order the changes happened.
type Event struct {
	Kind      EventKind
	Path      string
	Mutations []Mutation
	Valid     bool
}

// Subscribe registers fn for every subsequent Event and returns a function
// removing it. fn may call back into the Form.
func (f *Form) Subscribe(fn func(Event)) (cancel func()) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	id := f.nextSub
	f.nextSub++
	if f.subs == nil {
		f.subs = map[int]func(Event){}
	}
	f.subs[id] = fn
	f.subOrder = append(f.subOrder, id)
	return func() {
		f.subMu.Lock()
		defer f.subMu.Unlock()
		delete(f.subs, id)
	}
}

// emitLocked queues ev; the caller holds the engine lock.
func (f *Form) emitLocked(ev Event) {
	f.evMu.Lock()
	f.events = append(f.events, ev)
	f.evMu.Unlock()
}

func (f *Form) takeEvents() []Event {
	f.evMu.Lock()
	defer f.evMu.Unlock()
	evs := f.events
	f.events = nil
	return evs
}

func (f *Form) subscribers() []func(Event) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	out := make([]func(Event), 0, len(f.subs))
	live := f.subOrder[:0]
	for _, id := range f.subOrder {
		if fn, ok := f.subs[id]; ok {
			out = append(out, fn)
			live = append(live, id)
		}
	}
	f.subOrder = live
	return out
}

// flush delivers queued events. It runs after every release of the engine
// lock; a delivery already in progress on another frame picks up new events,
// so subscribers calling back into the Form do not recurse.
func (f *Form) flush() {
	for {
		if !f.deliverMu.TryLock() {
			return
		}
		evs := f.takeEvents()
		if len(evs) > 0 {
			subs := f.subscribers()
			for _, ev := range evs {
				for _, fn := range subs {
					fn(ev)
				}
			}
		}
		f.deliverMu.Unlock()

		f.evMu.Lock()
		more := len(f.events) > 0
		f.evMu.Unlock()
		if !more {
			return
		}
	}
}
