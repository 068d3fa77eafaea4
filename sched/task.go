package sched

import (
	"time"

	"github.com/loomui/loom/internal/rq"
)

// Priority orders tasks in the run queue. Higher values run first.
type Priority int

const (
	Idle Priority = iota
	Low
	Normal
	UserBlocking
	Immediate
)

func (p Priority) String() string {
	switch p {
	case Idle:
		return "idle"
	case Low:
		return "low"
	case Normal:
		return "normal"
	case UserBlocking:
		return "user-blocking"
	case Immediate:
		return "immediate"
	}
	return "unknown"
}

// Frame is handed to a running callback so it can cooperate with the
// scheduler's time slicing.
type Frame struct {
	s          *Scheduler
	didTimeout bool
}

// ShouldYield reports whether the current slice's budget is spent. A long
// callback checks this and returns Continue instead of finishing in one go.
func (f Frame) ShouldYield() bool { return f.s.ShouldYield() }

// DidTimeout reports whether the task ran because its deadline expired, not
// because budget remained.
func (f Frame) DidTimeout() bool { return f.didTimeout }

// Callback is one unit of schedulable work.
type Callback func(fr Frame) Result

// Result signals whether a task finished or wants to resume later.
type Result struct {
	next Callback
}

// Done marks the task as finished.
func Done() Result { return Result{} }

// Continue asks the scheduler to replace the task's callback with next,
// keeping its place in the queue. This is how one large job is split across
// slices.
func Continue(next Callback) Result { return Result{next: next} }

// Task is a scheduled unit of work. All mutable fields are guarded by the
// owning scheduler's lock.
type Task struct {
	id       uint64
	callback Callback
	priority Priority

	// zero means no deadline
	expiration time.Time

	cancelled bool
}

func (t *Task) ID() uint64 { return t.id }

func (t *Task) Priority() Priority { return t.priority }

// Expiration returns the task's absolute deadline, if it has one.
func (t *Task) Expiration() (time.Time, bool) {
	return t.expiration, !t.expiration.IsZero()
}

func (t *Task) expired(now time.Time) bool {
	return !t.expiration.IsZero() && !now.Before(t.expiration)
}

// Before implements rq.Entry: priority first, earlier deadline next
// (no deadline sorts last), insertion order as the final tie-break.
func (t *Task) Before(other rq.Entry) bool {
	o := other.(*Task)

	if t.priority != o.priority {
		return t.priority > o.priority
	}
	if !t.expiration.Equal(o.expiration) {
		if t.expiration.IsZero() {
			return false
		}
		if o.expiration.IsZero() {
			return true
		}
		return t.expiration.Before(o.expiration)
	}
	return t.id < o.id
}

// Cancelled implements rq.Entry.
func (t *Task) Cancelled() bool { return t.cancelled }

// TaskOption tweaks a single Schedule call.
type TaskOption func(*taskConfig)

type taskConfig struct {
	timeout time.Duration
	delay   time.Duration
}

// WithTimeout gives the task an absolute deadline of now+d. Once past it, the
// task runs even when the slice budget is spent, ahead of non-expired work of
// any priority.
func WithTimeout(d time.Duration) TaskOption {
	return func(c *taskConfig) { c.timeout = d }
}

// WithDelay parks the task for d before it becomes runnable. Timeouts start
// counting once the task enters the queue.
func WithDelay(d time.Duration) TaskOption {
	return func(c *taskConfig) { c.delay = d }
}
