package rq

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type entry struct {
	pri       int
	seq       int
	cancelled bool
}

func (e *entry) Before(other Entry) bool {
	o := other.(*entry)
	if e.pri != o.pri {
		return e.pri > o.pri
	}
	return e.seq < o.seq
}

func (e *entry) Cancelled() bool { return e.cancelled }

func drain(q *Queue) []*entry {
	var out []*entry
	for {
		e := q.Pop()
		if e == nil {
			return out
		}
		out = append(out, e.(*entry))
	}
}

func TestQueue(t *testing.T) {
	t.Run("orders by priority then insertion", func(t *testing.T) {
		q := New()
		a := &entry{pri: 1, seq: 1}
		b := &entry{pri: 2, seq: 2}
		c := &entry{pri: 1, seq: 3}
		d := &entry{pri: 3, seq: 4}

		q.Push(a)
		q.Push(b)
		q.Push(c)
		q.Push(d)

		assert.Equal(t, []*entry{d, b, a, c}, drain(q))
	})

	t.Run("peek drops cancelled entries", func(t *testing.T) {
		q := New()
		a := &entry{pri: 2, seq: 1, cancelled: true}
		b := &entry{pri: 1, seq: 2}

		q.Push(a)
		q.Push(b)

		assert.Equal(t, b, q.Peek().(*entry))
		assert.Equal(t, 1, q.Len())
	})

	t.Run("empty queue", func(t *testing.T) {
		q := New()
		assert.Nil(t, q.Peek())
		assert.Nil(t, q.Pop())
		assert.Equal(t, 0, q.Len())
	})

	t.Run("take where preserves order of the rest", func(t *testing.T) {
		q := New()
		a := &entry{pri: 3, seq: 1}
		b := &entry{pri: 2, seq: 2}
		c := &entry{pri: 1, seq: 3}

		q.Push(a)
		q.Push(b)
		q.Push(c)

		got := q.TakeWhere(func(e Entry) bool { return e.(*entry).pri == 2 })
		assert.Equal(t, b, got)
		assert.Equal(t, []*entry{a, c}, drain(q))
	})

	t.Run("take where drops cancelled and can miss", func(t *testing.T) {
		q := New()
		a := &entry{pri: 2, seq: 1, cancelled: true}
		b := &entry{pri: 1, seq: 2}

		q.Push(a)
		q.Push(b)

		got := q.TakeWhere(func(e Entry) bool { return false })
		assert.Nil(t, got)
		assert.Equal(t, 1, q.Len())
		assert.Equal(t, b, q.Peek().(*entry))
	})
}
