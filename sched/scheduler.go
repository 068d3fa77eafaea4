// Package sched implements a cooperative, priority-aware task scheduler.
// Work is submitted as callbacks tagged with a priority and an optional
// deadline; the scheduler runs them under a bounded time budget on a host
// loop, yielding between slices. Long callbacks split themselves across
// slices by returning a continuation.
package sched

import (
	"sync"
	"time"

	"github.com/petermattis/goid"

	"github.com/loomui/loom/internal/rq"
)

const (
	// DefaultFrameBudget bounds how long one normal-priority slice may run
	// before the work loop yields back to the host.
	DefaultFrameBudget = 5 * time.Millisecond

	// DefaultMaxIdleWait bounds how long idle work can be deferred under
	// constant higher-priority load.
	DefaultMaxIdleWait = time.Second
)

// Scheduler owns one logical run queue. Construct one per application root
// and pass it by reference to anything that submits work.
type Scheduler struct {
	mu sync.Mutex

	queue *rq.Queue
	loop  Loop
	now   func() time.Time

	frameBudget time.Duration
	maxIdleWait time.Duration

	frameDeadline time.Time
	flushing      bool
	requested     bool
	requestedPri  Priority
	current       *Task

	nextID uint64

	// goroutine id -> Priority of the work running there
	running sync.Map
}

// Option configures a Scheduler at construction time.
type Option func(*Scheduler)

// WithLoop sets the host loop work is dispatched on.
func WithLoop(l Loop) Option {
	return func(s *Scheduler) { s.loop = l }
}

// WithClock injects the wall-clock source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithFrameBudget sets the per-slice time budget.
func WithFrameBudget(d time.Duration) Option {
	return func(s *Scheduler) { s.frameBudget = d }
}

// WithMaxIdleWait bounds how long Idle work may wait for an idle host.
func WithMaxIdleWait(d time.Duration) Option {
	return func(s *Scheduler) { s.maxIdleWait = d }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		queue:       rq.New(),
		now:         time.Now,
		frameBudget: DefaultFrameBudget,
		maxIdleWait: DefaultMaxIdleWait,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.loop == nil {
		s.loop = NewRunLoop()
	}

	return s
}

// Now returns the scheduler's current wall-clock time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Schedule inserts a task into the run queue and requests work on the host
// loop. It never blocks and is safe to call from any goroutine, including
// from inside a running task.
func (s *Scheduler) Schedule(cb Callback, pri Priority, opts ...TaskOption) *Task {
	var cfg taskConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s.mu.Lock()
	s.nextID++
	t := &Task{
		id:       s.nextID,
		callback: cb,
		priority: pri,
	}

	switch {
	case cfg.timeout > 0:
		// the timeout starts counting once the task enters the queue,
		// so a delayed task's deadline is measured from its promotion
		t.expiration = s.now().Add(cfg.delay + cfg.timeout)
	case pri == Immediate:
		// immediate work can never be out-budgeted
		t.expiration = s.now()
	}

	if cfg.delay > 0 {
		s.mu.Unlock()
		s.loop.Later(func() { s.promote(t) }, cfg.delay)
		return t
	}

	s.queue.Push(t)
	s.requestWork(pri)
	s.mu.Unlock()

	return t
}

// promote moves a delayed task into the run queue once its delay elapses.
func (s *Scheduler) promote(t *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.cancelled {
		return
	}
	s.queue.Push(t)
	s.requestWork(t.priority)
}

// Cancel marks t so it is dropped, unrun, the next time the queue is
// scanned. Cancelling twice, cancelling a finished task, or cancelling nil
// are all silent no-ops; a task already executing is never interrupted.
func (s *Scheduler) Cancel(t *Task) {
	if t == nil {
		return
	}

	s.mu.Lock()
	t.cancelled = true
	s.mu.Unlock()
}

// ShouldYield reports whether the active slice's budget is spent.
func (s *Scheduler) ShouldYield() bool {
	s.mu.Lock()
	deadline := s.frameDeadline
	s.mu.Unlock()

	return !deadline.IsZero() && !s.now().Before(deadline)
}

// CurrentPriority returns the priority of the work executing on the calling
// goroutine, or Normal when none is.
func (s *Scheduler) CurrentPriority() Priority {
	if pri, ok := s.running.Load(goid.Get()); ok {
		return pri.(Priority)
	}
	return Normal
}

// RunWithPriority runs fn with the calling goroutine's current priority
// overridden, so scheduling decisions inside fn inherit pri.
func (s *Scheduler) RunWithPriority(pri Priority, fn func()) {
	gid := goid.Get()
	prev, had := s.running.Load(gid)

	s.running.Store(gid, pri)
	defer func() {
		if had {
			s.running.Store(gid, prev)
		} else {
			s.running.Delete(gid)
		}
	}()

	fn()
}

// requestWork asks the host loop for a future flush. Callers hold s.mu.
// Each priority class has its own dispatch channel: immediate and
// user-blocking work runs on the soonest turn, normal and low work is paced
// to frame boundaries, idle work waits for an idle host (bounded).
func (s *Scheduler) requestWork(pri Priority) {
	if s.requested && pri <= s.requestedPri {
		return
	}

	s.requested = true
	s.requestedPri = pri

	switch {
	case pri >= UserBlocking:
		s.loop.Post(s.flush)
	case pri >= Low:
		s.loop.Frame(s.flush)
	default:
		s.loop.Idle(s.flush, s.maxIdleWait)
	}
}

// flush is the work loop. It drains the queue highest-priority first until
// the slice budget runs out, then re-requests a slice for whatever remains.
// Expired tasks jump the queue and run even with no budget left. A panic in
// a task discards that task and propagates after bookkeeping is restored;
// remaining tasks drain on the next requested flush.
func (s *Scheduler) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.requested = false
	s.frameDeadline = s.now().Add(s.frameBudget)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.current = nil
		// no request is pending once this flush completes; duplicate
		// requests are harmless, a stale flag would starve the queue
		s.requested = false
		if e := s.queue.Peek(); e != nil {
			s.requestWork(e.(*Task).priority)
		}
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		now := s.now()

		// deadline overrides priority
		var t *Task
		if e := s.queue.TakeWhere(func(en rq.Entry) bool {
			return en.(*Task).expired(now)
		}); e != nil {
			t = e.(*Task)
		}

		expired := t != nil
		if t == nil {
			head := s.queue.Peek()
			if head == nil || !now.Before(s.frameDeadline) {
				s.mu.Unlock()
				return
			}
			t = s.queue.Pop().(*Task)
		}

		s.current = t
		s.mu.Unlock()

		res := s.run(t, expired)

		s.mu.Lock()
		s.current = nil
		if res.next != nil && !t.cancelled {
			// the continuation takes the task's place, keeping its
			// priority, deadline, and queue position
			t.callback = res.next
			s.queue.Push(t)
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) run(t *Task, expired bool) Result {
	gid := goid.Get()
	prev, had := s.running.Load(gid)

	s.running.Store(gid, t.priority)
	defer func() {
		if had {
			s.running.Store(gid, prev)
		} else {
			s.running.Delete(gid)
		}
	}()

	return t.callback(Frame{s: s, didTimeout: expired})
}
