package loom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomui/loom/sched"
	"github.com/loomui/loom/vdom"
	"github.com/loomui/loom/vdom/vdomtest"
)

// reentrantSurface triggers a callback from inside the first Create, letting
// tests interleave a new Render with a pass that is still applying.
type reentrantSurface struct {
	*vdomtest.Surface
	onCreate func()
}

func (s *reentrantSurface) Create(node *vdom.Node, parent, before vdom.Ref) error {
	if fn := s.onCreate; fn != nil {
		s.onCreate = nil
		fn()
	}
	return s.Surface.Create(node, parent, before)
}

func newTestApp(t *testing.T) (*App, *vdomtest.Surface, *sched.StepLoop) {
	t.Helper()
	loop := sched.NewStepLoop()
	surface := vdomtest.New()
	app := New(surface, WithScheduler(sched.New(sched.WithLoop(loop))))
	return app, surface, loop
}

func TestAppRender(t *testing.T) {
	t.Run("first pass mounts the tree", func(t *testing.T) {
		app, surface, loop := newTestApp(t)

		tree := vdom.Element("div", nil, vdom.Text("hello"))
		app.Render(tree)

		assert.Nil(t, app.Tree())
		loop.Drain()

		assert.Equal(t, tree, app.Tree())
		assert.Equal(t, []string{"create div parent=- before=-"}, surface.Log())
	})

	t.Run("subsequent passes apply the diff", func(t *testing.T) {
		app, surface, loop := newTestApp(t)

		app.Render(vdom.Element("div", nil, vdom.Text("a")))
		loop.Drain()
		surface.Reset()

		next := vdom.Element("div", nil, vdom.Text("b"))
		app.Render(next)
		loop.Drain()

		assert.Equal(t, next, app.Tree())
		assert.Equal(t, []string{`text text("a") "b"`}, surface.Log())
	})

	t.Run("pending passes coalesce to the latest tree", func(t *testing.T) {
		app, surface, loop := newTestApp(t)

		app.Render(vdom.Element("div", nil, vdom.Text("a")))
		app.Render(vdom.Element("div", nil, vdom.Text("b")))
		loop.Drain()

		require.NotNil(t, app.Tree())
		assert.Equal(t, "b", app.Tree().Children[0].Text)
		assert.Len(t, surface.Log(), 1)
	})

	t.Run("a pass finishing late keeps a newer pending pass cancellable", func(t *testing.T) {
		now := time.Unix(1000, 0)
		loop := sched.NewStepLoop()
		inner := vdomtest.New()
		surface := &reentrantSurface{Surface: inner}
		app := New(surface, WithScheduler(sched.New(
			sched.WithLoop(loop),
			sched.WithClock(func() time.Time { return now }),
		)))

		// while the first pass is applying, a newer render arrives and
		// the slice budget runs out, parking it for a later flush
		surface.onCreate = func() {
			app.Render(vdom.Element("div", nil, vdom.Text("b")))
			now = now.Add(10 * time.Millisecond)
		}

		app.Render(vdom.Element("div", nil, vdom.Text("a")))
		loop.StepFrame()

		// this render must replace the parked pass, not run after it
		next := vdom.Element("div", nil, vdom.Text("c"))
		app.Render(next)
		loop.Drain()

		assert.Equal(t, next, app.Tree())
		assert.Equal(t, []string{
			"create div parent=- before=-",
			`text text("a") "c"`,
		}, inner.Log())
	})

	t.Run("a failing pass leaves the previous tree committed", func(t *testing.T) {
		app, surface, loop := newTestApp(t)

		first := vdom.Element("div", nil, vdom.Text("ok"))
		app.Render(first)
		loop.Drain()
		surface.Reset()

		bad := vdom.Element("div", nil,
			vdom.Element("li", nil).WithKey("a"),
			vdom.Element("li", nil).WithKey("a"),
		)
		app.Render(bad)
		assert.Panics(t, func() { loop.Drain() })

		assert.Equal(t, first, app.Tree())
		assert.Empty(t, surface.Log())

		// later unrelated passes still work
		next := vdom.Element("div", nil, vdom.Text("again"))
		app.Render(next)
		loop.Drain()
		assert.Equal(t, next, app.Tree())
	})

	t.Run("close cancels a pending pass", func(t *testing.T) {
		app, surface, loop := newTestApp(t)

		app.Render(vdom.Element("div", nil))
		app.Close()
		loop.Drain()

		assert.Nil(t, app.Tree())
		assert.Empty(t, surface.Log())
	})
}

func TestAppTransitionRender(t *testing.T) {
	t.Run("a render inside a transition is low priority", func(t *testing.T) {
		app, _, loop := newTestApp(t)
		s := app.Scheduler()
		log := []string{}

		StartTransition(s, func() {
			log = append(log, "transition")
			task := app.Render(vdom.Element("div", nil))
			assert.Equal(t, sched.Low, task.Priority())
		})
		s.Schedule(func(sched.Frame) sched.Result {
			log = append(log, "urgent")
			return sched.Done()
		}, sched.UserBlocking)

		loop.Drain()
		assert.Equal(t, []string{"urgent", "transition"}, log)
		assert.NotNil(t, app.Tree())
	})
}
