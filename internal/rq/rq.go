// Package rq implements the ordered run queue backing the scheduler.
package rq

import "sort"

// Entry is one queued unit of work.
type Entry interface {
	// Before reports whether this entry must run before other.
	// The ordering must be total for entries in the same queue.
	Before(other Entry) bool

	// Cancelled entries are dropped on the next scan without running.
	Cancelled() bool
}

// Queue keeps entries sorted by binary insertion. Cancelled entries are
// removed lazily when they reach the front.
type Queue struct {
	entries []Entry
}

func New() *Queue {
	return &Queue{
		entries: make([]Entry, 0, 16),
	}
}

// Push inserts e at its ordered position.
func (q *Queue) Push(e Entry) {
	i := sort.Search(len(q.entries), func(i int) bool {
		return e.Before(q.entries[i])
	})

	q.entries = append(q.entries, nil)
	copy(q.entries[i+1:], q.entries[i:])
	q.entries[i] = e
}

// Peek returns the next runnable entry without removing it, dropping any
// cancelled entries found at the front. Returns nil when the queue is empty.
func (q *Queue) Peek() Entry {
	for len(q.entries) > 0 {
		head := q.entries[0]
		if !head.Cancelled() {
			return head
		}

		q.entries[0] = nil
		q.entries = q.entries[1:]
	}

	return nil
}

// Pop removes and returns the next runnable entry, or nil when empty.
func (q *Queue) Pop() Entry {
	head := q.Peek()
	if head == nil {
		return nil
	}

	q.entries[0] = nil
	q.entries = q.entries[1:]
	return head
}

// TakeWhere removes and returns the first live entry, in queue order, for
// which pred returns true. Cancelled entries seen during the scan are
// dropped. Returns nil when nothing matches.
func (q *Queue) TakeWhere(pred func(Entry) bool) Entry {
	kept := q.entries[:0]
	var found Entry

	for _, e := range q.entries {
		if found != nil {
			kept = append(kept, e)
			continue
		}
		if e.Cancelled() {
			continue
		}
		if pred(e) {
			found = e
			continue
		}
		kept = append(kept, e)
	}

	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = nil
	}
	q.entries = kept
	return found
}

// Len counts the remaining entries, cancelled ones included.
func (q *Queue) Len() int {
	return len(q.entries)
}
