// Package loom is the concurrent rendering core of a component UI framework:
// a cooperative, priority-aware task scheduler (package sched) paired with a
// virtual tree differ (package vdom). An App ties the two together: a state
// change requests a render pass, the pass runs on the scheduler at some
// priority, diffs the previous tree against the next one, and hands the
// resulting mutation list to the host surface.
package loom

import (
	"sync"

	"github.com/loomui/loom/sched"
	"github.com/loomui/loom/vdom"
)

// App is the root of one rendered application. It owns the run queue and the
// host surface; there is no global state, so anything that submits work
// holds a reference to the App or its Scheduler.
type App struct {
	sched   *sched.Scheduler
	surface vdom.Surface

	mu      sync.Mutex
	current *vdom.Node
	pending *sched.Task

	// bumped per Render so a finishing pass can tell whether the pending
	// slot still belongs to it
	gen uint64
}

// Option configures an App at construction time.
type Option func(*App)

// WithScheduler makes the App share an existing run queue instead of owning
// a fresh one.
func WithScheduler(s *sched.Scheduler) Option {
	return func(a *App) { a.sched = s }
}

func New(surface vdom.Surface, opts ...Option) *App {
	a := &App{surface: surface}

	for _, opt := range opts {
		opt(a)
	}

	if a.sched == nil {
		a.sched = sched.New()
	}

	return a
}

// Scheduler returns the App's run queue.
func (a *App) Scheduler() *sched.Scheduler {
	return a.sched
}

// Tree returns the last committed tree.
func (a *App) Tree() *vdom.Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Render schedules a render pass bringing the surface in sync with next.
// The pass runs at the calling goroutine's current scheduling priority, so a
// Render inside StartTransition is automatically low-priority. Passes
// coalesce: a Render issued before the previous pass ran replaces it.
//
// A diff error or surface failure panics out of the pass: the previous tree
// stays committed and no partial operation list is ever applied. Later
// passes are unaffected.
func (a *App) Render(next *vdom.Node) *sched.Task {
	a.mu.Lock()
	if a.pending != nil {
		a.sched.Cancel(a.pending)
	}
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	task := a.sched.Schedule(func(sched.Frame) sched.Result {
		a.pass(next, gen)
		return sched.Done()
	}, a.sched.CurrentPriority())

	a.mu.Lock()
	if gen == a.gen {
		a.pending = task
	}
	a.mu.Unlock()

	return task
}

func (a *App) pass(next *vdom.Node, gen uint64) {
	a.mu.Lock()
	prev := a.current
	a.mu.Unlock()

	ops, err := vdom.Diff(prev, next)
	if err != nil {
		panic(err)
	}
	if err := vdom.Apply(a.surface, ops); err != nil {
		panic(err)
	}

	a.mu.Lock()
	a.current = next
	// a newer Render owns the pending slot now; leave it alone
	if gen == a.gen {
		a.pending = nil
	}
	a.mu.Unlock()
}

// Close cancels any pending render pass.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pending != nil {
		a.sched.Cancel(a.pending)
		a.pending = nil
	}
}
