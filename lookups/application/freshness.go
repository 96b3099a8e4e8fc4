package application

import (
	"sync"
	"time"
)

// FreshnessState is either Stale (disk loads allowed) or Fresh (an in-memory
// snapshot from the remote must not be overwritten by a disk load).
type FreshnessState int

const (
	Stale FreshnessState = iota
	Fresh
)

func (s FreshnessState) String() string {
	if s == Fresh {
		return "fresh"
	}
	return "stale"
}

type freshnessEvent int

const (
	eventRefreshed freshnessEvent = iota
	eventExpired
	eventInvalidated
)

// nextFreshness is the only place the state changes.
func nextFreshness(_ FreshnessState, e freshnessEvent) FreshnessState {
	switch e {
	case eventRefreshed:
		return Fresh
	default:
		return Stale
	}
}

// Freshness tracks whether the in-memory snapshot came from a remote refresh
// recently enough that disk loads should be skipped.
type Freshness struct {
	mu         sync.Mutex
	state      FreshnessState
	generation uint64
	window     time.Duration
	timer      *time.Timer
}

// NewFreshness creates a tracker whose Fresh state decays after window.
// A zero window means Fresh lasts until Clear.
func NewFreshness(window time.Duration) *Freshness {
	return &Freshness{window: window}
}

func (f *Freshness) MarkFresh() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apply(eventRefreshed)
	if f.window > 0 {
		f.schedule(f.window, eventExpired, nil)
	}
}

func (f *Freshness) IsFresh() bool {
	return f.State() == Fresh
}

func (f *Freshness) State() FreshnessState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Freshness) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apply(eventInvalidated)
}

// ClearAfter marks the tracker stale after delay and then calls then, when
// non-nil. A MarkFresh or Clear in the meantime cancels both.
func (f *Freshness) ClearAfter(delay time.Duration, then func()) {
	if delay <= 0 {
		f.Clear()
		if then != nil {
			then()
		}
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedule(delay, eventInvalidated, then)
}

// Stop cancels any pending transition.
func (f *Freshness) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// apply must be called with mu held.
func (f *Freshness) apply(e freshnessEvent) {
	f.state = nextFreshness(f.state, e)
	if e == eventRefreshed {
		f.generation++
	}
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// schedule must be called with mu held. then runs outside the lock.
func (f *Freshness) schedule(after time.Duration, e freshnessEvent, then func()) {
	if f.timer != nil {
		f.timer.Stop()
	}
	gen := f.generation
	f.timer = time.AfterFunc(after, func() {
		f.mu.Lock()
		if f.generation != gen {
			f.mu.Unlock()
			return
		}
		f.state = nextFreshness(f.state, e)
		f.timer = nil
		f.mu.Unlock()

		if then != nil {
			then()
		}
	})
}
