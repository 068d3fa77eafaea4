package vdom

// PatchFlags is the compiler-computed bitmask telling the differ which
// aspects of a node may change between renders. Zero means no descriptor:
// the differ compares everything.
type PatchFlags uint16

const (
	PatchText PatchFlags = 1 << iota
	PatchClass
	PatchStyle
	PatchProps
	PatchFullProps
	PatchEvents
	PatchKeyedChildren
	PatchUnkeyedChildren
	PatchStableChildren
	PatchHoisted
)

// Patches returns the structured view over n's patch descriptor. Consumers
// go through it instead of hand-rolling bit arithmetic.
func (n *Node) Patches() Patches {
	return Patches{flags: n.Flags}
}

// Patches exposes a patch descriptor as named capabilities.
type Patches struct {
	flags PatchFlags
}

// None reports whether the node carries no descriptor at all.
func (p Patches) None() bool { return p.flags == 0 }

// Text reports whether the node's text content may change.
func (p Patches) Text() bool { return p.flags&PatchText != 0 }

// Class reports whether the class attribute may change.
func (p Patches) Class() bool { return p.flags&PatchClass != 0 }

// Style reports whether the style map may change.
func (p Patches) Style() bool { return p.flags&PatchStyle != 0 }

// Props reports whether attributes beyond class and style may change.
func (p Patches) Props() bool { return p.flags&PatchProps != 0 }

// FullProps reports that the prop set is dynamic: everything is compared,
// removals included.
func (p Patches) FullProps() bool { return p.flags&PatchFullProps != 0 }

// Events reports whether event bindings may change.
func (p Patches) Events() bool { return p.flags&PatchEvents != 0 }

// KeyedChildren forces the keyed child reconciliation strategy.
func (p Patches) KeyedChildren() bool { return p.flags&PatchKeyedChildren != 0 }

// UnkeyedChildren forces the positional child strategy.
func (p Patches) UnkeyedChildren() bool { return p.flags&PatchUnkeyedChildren != 0 }

// StableChildren promises the child list never changes order or length.
func (p Patches) StableChildren() bool { return p.flags&PatchStableChildren != 0 }

// Hoisted subtrees are structurally frozen and never diffed; only the
// identity check applies.
func (p Patches) Hoisted() bool { return p.flags&PatchHoisted != 0 }
