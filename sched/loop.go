package sched

import (
	"sync"
	"time"
)

// Loop is the host event loop the scheduler requests work on. The three
// channels map to how each priority class is dispatched: Post runs on the
// soonest possible turn, Frame at the next rendering-frame boundary, Idle
// only once the loop has drained, at the latest after maxWait. Later is the
// timer primitive backing delayed tasks.
//
// A Loop executes callbacks on a single goroutine, one at a time, in the
// order they become due. That single thread of control is what makes the
// scheduler's cooperative model sound.
type Loop interface {
	Post(fn func())
	Frame(fn func())
	Idle(fn func(), maxWait time.Duration)
	Later(fn func(), d time.Duration)
}

// DefaultFrameInterval paces Frame callbacks of a RunLoop.
const DefaultFrameInterval = time.Second / 60

// RunLoop is a goroutine-backed Loop for production use. Close stops it;
// callbacks submitted after Close are dropped. A panicking callback aborts
// only itself: the loop recovers, hands the panic value to the panic
// handler, and keeps dispatching.
type RunLoop struct {
	fns  chan func()
	stop chan struct{}
	once sync.Once

	frame   time.Duration
	onPanic func(v any)
}

// RunLoopOption configures a RunLoop at construction time.
type RunLoopOption func(*RunLoop)

// WithPanicHandler sets the function receiving panic values recovered from
// loop callbacks. The default discards them.
func WithPanicHandler(fn func(v any)) RunLoopOption {
	return func(l *RunLoop) { l.onPanic = fn }
}

func NewRunLoop(opts ...RunLoopOption) *RunLoop {
	l := &RunLoop{
		fns:   make(chan func(), 256),
		stop:  make(chan struct{}),
		frame: DefaultFrameInterval,
	}

	for _, opt := range opts {
		opt(l)
	}

	go l.run()
	return l
}

func (l *RunLoop) run() {
	for {
		select {
		case fn := <-l.fns:
			l.dispatch(fn)
		case <-l.stop:
			return
		}
	}
}

// dispatch runs one callback, containing its panic so a throwing task cannot
// take the loop down with it.
func (l *RunLoop) dispatch(fn func()) {
	defer func() {
		if v := recover(); v != nil && l.onPanic != nil {
			l.onPanic(v)
		}
	}()

	fn()
}

func (l *RunLoop) Post(fn func()) {
	select {
	case l.fns <- fn:
	case <-l.stop:
	}
}

// Frame posts fn aligned to the next frame boundary so slices interleave
// with host painting instead of starving it.
func (l *RunLoop) Frame(fn func()) {
	now := time.Now()
	next := now.Truncate(l.frame).Add(l.frame)
	l.Later(fn, next.Sub(now))
}

// Idle posts fn once the loop drains, or after maxWait under constant load.
func (l *RunLoop) Idle(fn func(), maxWait time.Duration) {
	var once sync.Once
	fire := func() { once.Do(fn) }

	timer := time.AfterFunc(maxWait, func() { l.Post(fire) })

	var probe func()
	probe = func() {
		if len(l.fns) == 0 {
			timer.Stop()
			fire()
			return
		}
		// still busy, requeue behind the pending work
		l.Post(probe)
	}
	l.Post(probe)
}

func (l *RunLoop) Later(fn func(), d time.Duration) {
	if d <= 0 {
		l.Post(fn)
		return
	}
	time.AfterFunc(d, func() { l.Post(fn) })
}

func (l *RunLoop) Close() {
	l.once.Do(func() { close(l.stop) })
}

// StepLoop is a deterministic Loop for tests: nothing runs until the test
// steps it, and time only passes through Advance.
type StepLoop struct {
	mu sync.Mutex

	posted []func()
	frames []func()
	idles  []stepIdle
	timers []stepTimer

	elapsed time.Duration
}

type stepIdle struct {
	fn       func()
	deadline time.Duration
}

type stepTimer struct {
	fn  func()
	due time.Duration
}

func NewStepLoop() *StepLoop {
	return &StepLoop{}
}

func (l *StepLoop) Post(fn func()) {
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
}

func (l *StepLoop) Frame(fn func()) {
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
}

func (l *StepLoop) Idle(fn func(), maxWait time.Duration) {
	l.mu.Lock()
	l.idles = append(l.idles, stepIdle{fn: fn, deadline: l.elapsed + maxWait})
	l.mu.Unlock()
}

func (l *StepLoop) Later(fn func(), d time.Duration) {
	l.mu.Lock()
	l.timers = append(l.timers, stepTimer{fn: fn, due: l.elapsed + d})
	l.mu.Unlock()
}

// StepPosted runs the callbacks posted so far and reports how many ran.
// Callbacks posted while stepping wait for the next step.
func (l *StepLoop) StepPosted() int {
	l.mu.Lock()
	fns := l.posted
	l.posted = nil
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// StepFrame runs the pending frame callbacks as one frame boundary.
func (l *StepLoop) StepFrame() int {
	l.mu.Lock()
	fns := l.frames
	l.frames = nil
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

// StepIdle runs pending idle callbacks, simulating an idle host.
func (l *StepLoop) StepIdle() int {
	l.mu.Lock()
	idles := l.idles
	l.idles = nil
	l.mu.Unlock()

	for _, e := range idles {
		e.fn()
	}
	return len(idles)
}

// Advance moves the loop's virtual time forward, firing due timers and idle
// callbacks whose bounded wait has elapsed.
func (l *StepLoop) Advance(d time.Duration) {
	l.mu.Lock()
	l.elapsed += d
	now := l.elapsed

	var due []func()

	timers := l.timers[:0]
	for _, t := range l.timers {
		if t.due <= now {
			due = append(due, t.fn)
		} else {
			timers = append(timers, t)
		}
	}
	l.timers = timers

	idles := l.idles[:0]
	for _, e := range l.idles {
		if e.deadline <= now {
			due = append(due, e.fn)
		} else {
			idles = append(idles, e)
		}
	}
	l.idles = idles
	l.mu.Unlock()

	for _, fn := range due {
		fn()
	}
}

// Drain keeps stepping posted and frame callbacks until both are empty.
func (l *StepLoop) Drain() {
	for l.StepPosted()+l.StepFrame() > 0 {
	}
}
