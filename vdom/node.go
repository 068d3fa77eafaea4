// Package vdom holds the immutable node tree model and the tree differ: a
// pure function computing the minimal mutation sequence that brings a host
// surface rendered from one tree in sync with another.
package vdom

// Kind discriminates the node variants of a tree.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindFragment
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindFragment:
		return "fragment"
	}
	return "unknown"
}

// Node is one node of a render tree. Trees are immutable per render pass:
// every pass builds a fresh tree and the differ compares two trees without
// touching either. The zero Key means the node carries no sibling identity.
type Node struct {
	Kind     Kind
	Tag      string
	Key      string
	Text     string
	Props    []Prop
	Children []*Node
	Flags    PatchFlags
}

// Element builds an element node.
func Element(tag string, props []Prop, children ...*Node) *Node {
	return &Node{
		Kind:     KindElement,
		Tag:      tag,
		Props:    props,
		Children: children,
	}
}

// Text builds a text node.
func Text(s string) *Node {
	return &Node{
		Kind: KindText,
		Text: s,
	}
}

// Fragment builds a keyless grouping node.
func Fragment(children ...*Node) *Node {
	return &Node{
		Kind:     KindFragment,
		Children: children,
	}
}

// WithKey returns a copy of n carrying a stable sibling identity.
func (n *Node) WithKey(key string) *Node {
	c := *n
	c.Key = key
	return &c
}

// WithFlags returns a copy of n carrying a compiler patch descriptor.
func (n *Node) WithFlags(flags PatchFlags) *Node {
	c := *n
	c.Flags = flags
	return &c
}

// Keyed reports whether n carries a sibling identity.
func (n *Node) Keyed() bool {
	return n != nil && n.Key != ""
}

// sameNode reports whether old and new describe the same host object and can
// be updated in place rather than replaced.
func sameNode(old, new *Node) bool {
	if old.Kind != new.Kind || old.Key != new.Key {
		return false
	}
	return old.Kind != KindElement || old.Tag == new.Tag
}

func validate(n *Node) error {
	switch n.Kind {
	case KindElement:
		if n.Tag == "" {
			return &InvalidNodeError{Node: n, Reason: "element without tag"}
		}
	case KindText:
		if len(n.Children) > 0 {
			return &InvalidNodeError{Node: n, Reason: "text node with children"}
		}
		if len(n.Props) > 0 {
			return &InvalidNodeError{Node: n, Reason: "text node with props"}
		}
	case KindFragment:
	default:
		return &InvalidNodeError{Node: n, Reason: "unknown kind"}
	}
	return nil
}
