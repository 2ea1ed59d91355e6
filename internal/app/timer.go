package app

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled callback.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules fn after d. time.AfterFunc is the production implementation.
type AfterFunc func(d time.Duration, fn func()) Stopper

// DelayTimer is a single-slot cancellable delay.
// Scheduling a new callback cancels the pending one, and a superseded callback never runs
// even if its underlying timer already fired.
type DelayTimer struct {
	mu      sync.Mutex
	after   AfterFunc
	pending Stopper
	seq     uint64
}

// NewDelayTimer constructs a timer slot. A nil after uses time.AfterFunc.
func NewDelayTimer(after AfterFunc) *DelayTimer {
	if after == nil {
		after = func(d time.Duration, fn func()) Stopper {
			return time.AfterFunc(d, fn)
		}
	}
	return &DelayTimer{after: after}
}

// Schedule runs fn after d, replacing any pending callback.
func (t *DelayTimer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.seq++
	seq := t.seq
	t.pending = t.after(d, func() {
		t.mu.Lock()
		if t.seq != seq || t.pending == nil {
			t.mu.Unlock()
			return
		}
		t.pending = nil
		t.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending callback and reports whether one was pending.
func (t *DelayTimer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	return t.stopLocked()
}

// Pending reports whether a callback is scheduled.
func (t *DelayTimer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil
}

func (t *DelayTimer) stopLocked() bool {
	if t.pending == nil {
		return false
	}
	t.pending.Stop()
	t.pending = nil
	return true
}
