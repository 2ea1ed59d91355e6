package app

import (
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (f *fakeTimer) Stop() bool {
	active := !f.stopped && !f.fired
	f.stopped = true
	return active
}

// fire runs the callback even when stopped, mimicking a timer that fired
// just before Stop was called.
func (f *fakeTimer) fire() {
	f.fired = true
	f.fn()
}

type fakeClockTimers struct {
	mu        sync.Mutex
	scheduled []*fakeTimer
}

func (f *fakeClockTimers) after(d time.Duration, fn func()) Stopper {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{d: d, fn: fn}
	f.scheduled = append(f.scheduled, t)
	return t
}

func (f *fakeClockTimers) last(t *testing.T) *fakeTimer {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scheduled) == 0 {
		t.Fatal("expected a scheduled timer")
	}
	return f.scheduled[len(f.scheduled)-1]
}

func TestDelayTimerRunsScheduledCallback(t *testing.T) {
	timers := &fakeClockTimers{}
	dt := NewDelayTimer(timers.after)
	ran := 0
	dt.Schedule(4*time.Second, func() { ran++ })
	if !dt.Pending() {
		t.Fatal("expected pending callback")
	}
	pending := timers.last(t)
	if pending.d != 4*time.Second {
		t.Fatalf("unexpected delay %s", pending.d)
	}
	pending.fire()
	if ran != 1 {
		t.Fatalf("expected callback to run once, ran %d", ran)
	}
	if dt.Pending() {
		t.Fatal("expected slot to be empty after firing")
	}
	pending.fire()
	if ran != 1 {
		t.Fatalf("expected a fired slot to ignore repeats, ran %d", ran)
	}
}

func TestDelayTimerSupersedesPendingCallback(t *testing.T) {
	timers := &fakeClockTimers{}
	dt := NewDelayTimer(timers.after)
	var got []string
	dt.Schedule(time.Second, func() { got = append(got, "first") })
	first := timers.last(t)
	dt.Schedule(time.Second, func() { got = append(got, "second") })
	second := timers.last(t)

	if !first.stopped {
		t.Fatal("expected superseded timer to be stopped")
	}
	first.fire()
	if len(got) != 0 {
		t.Fatalf("superseded callback ran: %#v", got)
	}
	second.fire()
	if len(got) != 1 || got[0] != "second" {
		t.Fatalf("unexpected callbacks %#v", got)
	}
}

func TestDelayTimerCancel(t *testing.T) {
	timers := &fakeClockTimers{}
	dt := NewDelayTimer(timers.after)
	ran := false
	dt.Schedule(time.Second, func() { ran = true })
	pending := timers.last(t)
	if !dt.Cancel() {
		t.Fatal("Cancel() expected to report a pending callback")
	}
	if dt.Cancel() {
		t.Fatal("second Cancel() expected false")
	}
	pending.fire()
	if ran {
		t.Fatal("canceled callback ran")
	}
}

func TestDelayTimerWithRealClock(t *testing.T) {
	dt := NewDelayTimer(nil)
	done := make(chan struct{})
	dt.Schedule(time.Millisecond, func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for real timer")
	}
}
