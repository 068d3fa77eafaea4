package loom

import (
	"sync"
	"time"

	"github.com/loomui/loom/sched"
)

// StartTransition runs fn as a low-priority batch. State updates made inside
// fn are scheduled at sched.Low, so urgent work such as keystroke handling
// is never starved by the transition.
func StartTransition(s *sched.Scheduler, fn func()) *sched.Task {
	return s.Schedule(func(sched.Frame) sched.Result {
		fn()
		return sched.Done()
	}, sched.Low)
}

// Deferred mirrors a value but trails it: reads return the last committed
// input, and a new input becomes visible only after a quiet period, through
// a low-priority commit. Once inputs stop arriving within the timeout, the
// deferred value converges to the latest one.
type Deferred[T any] struct {
	s       *sched.Scheduler
	timeout time.Duration

	mu     sync.Mutex
	value  T
	latest T
	dirty  bool
	gen    uint64
}

func NewDeferred[T any](s *sched.Scheduler, initial T, timeout time.Duration) *Deferred[T] {
	return &Deferred[T]{
		s:       s,
		timeout: timeout,
		value:   initial,
		latest:  initial,
	}
}

// Get returns the committed value.
func (d *Deferred[T]) Get() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Settled reports whether the committed value has caught up with the latest
// input.
func (d *Deferred[T]) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.dirty
}

// Set records a new input. The commit is never synchronous: it is scheduled
// low-priority after the quiet period, and rapid calls coalesce so only the
// newest input survives.
func (d *Deferred[T]) Set(v T) {
	d.mu.Lock()
	d.latest = v
	d.dirty = true
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	d.s.Schedule(func(sched.Frame) sched.Result {
		d.commit(gen)
		return sched.Done()
	}, sched.Low, sched.WithDelay(d.timeout))
}

func (d *Deferred[T]) commit(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// a newer input restarted the quiet period
	if gen != d.gen {
		return
	}
	d.value = d.latest
	d.dirty = false
}

// Throttled guarantees at most one visible update per interval. Writes
// inside an interval coalesce into a single low-priority commit at the
// interval's end.
type Throttled[T any] struct {
	s        *sched.Scheduler
	interval time.Duration

	mu         sync.Mutex
	value      T
	latest     T
	scheduled  bool
	lastCommit time.Time
}

func NewThrottled[T any](s *sched.Scheduler, initial T, interval time.Duration) *Throttled[T] {
	return &Throttled[T]{
		s:        s,
		interval: interval,
		value:    initial,
		latest:   initial,
	}
}

// Get returns the committed value.
func (t *Throttled[T]) Get() T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value
}

// Set records a new input. The first write after a quiet interval commits on
// the next flush; further writes within the interval coalesce into one
// trailing commit.
func (t *Throttled[T]) Set(v T) {
	t.mu.Lock()
	t.latest = v
	if t.scheduled {
		t.mu.Unlock()
		return
	}
	t.scheduled = true

	wait := t.interval - t.s.Now().Sub(t.lastCommit)
	if wait < 0 {
		wait = 0
	}
	t.mu.Unlock()

	t.s.Schedule(func(sched.Frame) sched.Result {
		t.commit()
		return sched.Done()
	}, sched.Low, sched.WithDelay(wait))
}

func (t *Throttled[T]) commit() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.value = t.latest
	t.scheduled = false
	t.lastCommit = t.s.Now()
}
