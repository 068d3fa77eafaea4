package vdom

// Ref is the opaque handle operations use to address a node on the host
// surface. It wraps the node identity the host already knows: the old-tree
// node for updates, moves and removes, the new-tree node for creates. Update
// operations also carry the new-tree counterpart so the host can re-key its
// handle map for the next pass.
type Ref struct {
	node *Node
	next *Node
}

// Current returns the node identity the host resolved this ref against.
func (r Ref) Current() *Node { return r.node }

// Next returns the new-tree counterpart the handle should be re-keyed to,
// or nil when the op does not retain the node.
func (r Ref) Next() *Node { return r.next }

// IsZero reports an absent ref (no parent, or append position).
func (r Ref) IsZero() bool { return r.node == nil }

func refOf(n *Node) Ref {
	return Ref{node: n}
}

func updateRef(old, new *Node) Ref {
	return Ref{node: old, next: new}
}

// Op is one mutation the differ asks the host surface to perform. The
// concrete types below are the only implementations.
type Op interface {
	op()
}

// Create mounts Node (and its whole subtree) under Parent, before the node
// Before addresses. A zero Parent targets the surface root; a zero Before
// appends.
type Create struct {
	Node   *Node
	Parent Ref
	Before Ref
}

// Remove unmounts the addressed node and its subtree.
type Remove struct {
	Ref Ref
}

// UpdateProps unsets the Removed keys then sets the Changed props, in order.
// An event binding present in both lists is a rebind: detach the old
// handler, attach the new one.
type UpdateProps struct {
	Ref     Ref
	Removed []PropKey
	Changed []Prop
}

// UpdateText replaces the addressed text node's content.
type UpdateText struct {
	Ref  Ref
	Text string
}

// Move reinserts the addressed node before the node Before addresses; a zero
// Before moves it to the end of its parent.
type Move struct {
	Ref    Ref
	Before Ref
}

func (Create) op()      {}
func (Remove) op()      {}
func (UpdateProps) op() {}
func (UpdateText) op()  {}
func (Move) op()        {}

// Surface executes mutation operations against the external render surface.
// Implementations translate refs into real host handles; the differ never
// sees those.
type Surface interface {
	Create(node *Node, parent, before Ref) error
	Remove(ref Ref) error
	UpdateProps(ref Ref, removed []PropKey, changed []Prop) error
	UpdateText(ref Ref, text string) error
	Move(ref, before Ref) error
}

// Apply executes ops against s in list order, stopping at the first error.
func Apply(s Surface, ops []Op) error {
	for _, op := range ops {
		var err error
		switch o := op.(type) {
		case Create:
			err = s.Create(o.Node, o.Parent, o.Before)
		case Remove:
			err = s.Remove(o.Ref)
		case UpdateProps:
			err = s.UpdateProps(o.Ref, o.Removed, o.Changed)
		case UpdateText:
			err = s.UpdateText(o.Ref, o.Text)
		case Move:
			err = s.Move(o.Ref, o.Before)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
