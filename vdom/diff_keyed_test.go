package vdom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(key, text string) *Node {
	return Element("li", nil, Text(text)).WithKey(key)
}

func list(items ...*Node) *Node {
	return Element("ul", nil, items...)
}

func TestKeyedReorder(t *testing.T) {
	t.Run("rotation needs exactly one move", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"), item("c", "c"))
		new := list(item("c", "c"), item("a", "a"), item("b", "b"))

		assert.Equal(t,
			[]string{"move li[c] before li[a]"},
			opStrings(mustDiff(t, old, new)))
	})

	t.Run("head to tail needs exactly one move", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"), item("c", "c"))
		new := list(item("b", "b"), item("c", "c"), item("a", "a"))

		assert.Equal(t,
			[]string{"move li[a] to-end"},
			opStrings(mustDiff(t, old, new)))
	})

	t.Run("rediffing the updated structure yields nothing", func(t *testing.T) {
		new := list(item("b", "b"), item("c", "c"), item("a", "a"))
		again := list(item("b", "b"), item("c", "c"), item("a", "a"))

		assert.Empty(t, mustDiff(t, new, new))
		assert.Empty(t, mustDiff(t, new, again))
	})

	t.Run("swap emits moves only for displaced nodes", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"), item("c", "c"), item("d", "d"))
		new := list(item("a", "a"), item("c", "c"), item("b", "b"), item("d", "d"))

		ops := opStrings(mustDiff(t, old, new))
		require.Len(t, ops, 1)
		assert.Contains(t, []string{
			"move li[c] before li[b]",
			"move li[b] before li[d]",
		}, ops[0])
	})
}

func TestKeyedInsertRemove(t *testing.T) {
	t.Run("middle insertion anchors before the right neighbor", func(t *testing.T) {
		old := list(item("a", "a"), item("c", "c"))
		new := list(item("a", "a"), item("b", "b"), item("c", "c"))

		assert.Equal(t,
			[]string{"create li[b] before li[c]"},
			opStrings(mustDiff(t, old, new)))
	})

	t.Run("middle removal emits one remove", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"), item("c", "c"))
		new := list(item("a", "a"), item("c", "c"))

		assert.Equal(t,
			[]string{"remove li[b]"},
			opStrings(mustDiff(t, old, new)))
	})

	t.Run("append needs no anchor", func(t *testing.T) {
		old := list(item("a", "a"))
		new := list(item("a", "a"), item("b", "b"))

		assert.Equal(t,
			[]string{"create li[b]"},
			opStrings(mustDiff(t, old, new)))
	})

	t.Run("old key matched to an incompatible node is replaced", func(t *testing.T) {
		old := list(
			item("a", "a"),
			Element("li", nil).WithKey("b"),
			item("z", "z"),
		)
		new := list(
			item("a", "a"),
			Element("p", nil).WithKey("b"),
			item("z", "z"),
		)

		assert.Equal(t, []string{
			"remove li[b]",
			"create p[b] before li[z]",
		}, opStrings(mustDiff(t, old, new)))
	})
}

func TestKeyedContentUpdates(t *testing.T) {
	t.Run("content ops come before structural moves", func(t *testing.T) {
		old := list(item("a", "one"), item("b", "two"))
		new := list(item("b", "TWO"), item("a", "one"))

		assert.Equal(t, []string{
			`text text("two") -> "TWO"`,
			"move li[b] before li[a]",
		}, opStrings(mustDiff(t, old, new)))
	})

	t.Run("matched by key not by index", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"))
		new := list(item("b", "b"), item("a", "a"))

		// if matching were positional, both texts would rewrite
		for _, op := range opStrings(mustDiff(t, old, new)) {
			assert.NotContains(t, op, "text")
		}
	})
}

func TestKeyedStrategySelection(t *testing.T) {
	t.Run("a single keyed child selects the keyed strategy", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"))
		new := list(item("b", "b"), item("a", "a"))

		ops := opStrings(mustDiff(t, old, new))
		require.Len(t, ops, 1)
		assert.Contains(t, ops[0], "move")
	})

	t.Run("unkeyed flag forces the positional strategy", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"))
		new := Element("ul", nil,
			item("b", "b"), item("a", "a"),
		).WithFlags(PatchUnkeyedChildren)

		// positional pairing sees two incompatible nodes per slot
		ops := opStrings(mustDiff(t, old, new))
		assert.Equal(t, []string{
			"create li[b] before li[a]",
			"remove li[a]",
			"create li[a] before li[b]",
			"remove li[b]",
		}, ops)
	})
}

func TestKeyedDuplicate(t *testing.T) {
	t.Run("duplicate sibling keys error out", func(t *testing.T) {
		old := list(item("a", "a"), item("b", "b"))
		new := list(item("a", "a"), item("a", "x"))

		ops, err := Diff(old, new)

		var dup *DuplicateKeyError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "a", dup.Key)
		assert.Empty(t, ops)
	})
}
