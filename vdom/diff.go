package vdom

import "fmt"

// DuplicateKeyError reports two siblings carrying the same key, a caller
// contract violation.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("vdom: duplicate sibling key %q", e.Key)
}

// InvalidNodeError reports a structurally invalid node.
type InvalidNodeError struct {
	Node   *Node
	Reason string
}

func (e *InvalidNodeError) Error() string {
	return fmt.Sprintf("vdom: invalid node: %s", e.Reason)
}

// Diff computes the mutation sequence turning the surface rendered from old
// into new. It is a pure function: neither tree is touched, and the same
// pair of inputs always yields the same operation list. On error no
// operations are returned.
func Diff(old, new *Node) ([]Op, error) {
	if old == new {
		return nil, nil
	}

	d := &differ{}

	var err error
	switch {
	case new == nil:
		if err = validate(old); err == nil {
			d.emit(Remove{Ref: refOf(old)})
		}
	case old == nil:
		err = d.create(new, Ref{}, Ref{})
	default:
		err = d.patch(old, new, Ref{})
	}

	if err != nil {
		return nil, err
	}
	return d.ops, nil
}

type differ struct {
	ops []Op
}

func (d *differ) emit(op Op) {
	d.ops = append(d.ops, op)
}

func (d *differ) create(n *Node, parent, before Ref) error {
	if err := validateTree(n); err != nil {
		return err
	}
	d.emit(Create{Node: n, Parent: parent, Before: before})
	return nil
}

func (d *differ) patch(old, new *Node, parent Ref) error {
	if old == new {
		return nil
	}

	if err := validate(old); err != nil {
		return err
	}
	if err := validate(new); err != nil {
		return err
	}

	// hoisted subtrees are structurally frozen; trust the compiler
	if old.Patches().Hoisted() || new.Patches().Hoisted() {
		return nil
	}

	if !sameNode(old, new) {
		// replace: mount the new subtree where the old one sits, then
		// drop the old one
		if err := d.create(new, parent, refOf(old)); err != nil {
			return err
		}
		d.emit(Remove{Ref: refOf(old)})
		return nil
	}

	switch old.Kind {
	case KindText:
		p := new.Patches()
		if (p.None() || p.Text()) && old.Text != new.Text {
			d.emit(UpdateText{Ref: updateRef(old, new), Text: new.Text})
		}
		return nil
	case KindElement:
		d.patchProps(old, new)
		return d.patchChildren(old, new)
	default:
		return d.patchChildren(old, new)
	}
}

// patchProps diffs the two ordered prop lists, guided by new's patch
// descriptor: only flagged categories are compared, and removals only happen
// under a full-props diff (or no descriptor at all).
func (d *differ) patchProps(old, new *Node) {
	p := new.Patches()
	full := p.None() || p.FullProps()

	include := func(pr Prop) bool {
		if full {
			return true
		}
		switch {
		case pr.Kind == PropEvent:
			return p.Events()
		case pr.Kind == PropStyle:
			return p.Style()
		case pr.Name == "class":
			return p.Class()
		default:
			return p.Props()
		}
	}

	var removed []PropKey
	var changed []Prop

	if full {
		for _, pr := range old.Props {
			if _, ok := findProp(new.Props, pr.Key()); !ok {
				removed = append(removed, pr.Key())
			}
		}
	}

	for _, pr := range new.Props {
		if !include(pr) {
			continue
		}
		prev, ok := findProp(old.Props, pr.Key())
		switch {
		case !ok:
			changed = append(changed, pr)
		case !equalProp(prev, pr):
			if pr.Kind == PropEvent {
				// rebind: detach the old handler before attaching
				// the new one
				removed = append(removed, pr.Key())
			}
			changed = append(changed, pr)
		}
	}

	if len(removed) > 0 || len(changed) > 0 {
		d.emit(UpdateProps{Ref: updateRef(old, new), Removed: removed, Changed: changed})
	}
}

func findProp(props []Prop, key PropKey) (Prop, bool) {
	for _, p := range props {
		if p.Key() == key {
			return p, true
		}
	}
	return Prop{}, false
}

func (d *differ) patchChildren(old, new *Node) error {
	parent := updateRef(old, new)
	oc, nc := old.Children, new.Children
	p := new.Patches()

	switch {
	case p.StableChildren():
		// order and length are promised stable; recurse pairwise
		n := min(len(oc), len(nc))
		for i := 0; i < n; i++ {
			if err := d.patch(oc[i], nc[i], parent); err != nil {
				return err
			}
		}
		return nil
	case p.KeyedChildren() || (!p.UnkeyedChildren() && (anyKeyed(oc) || anyKeyed(nc))):
		return d.patchKeyed(parent, oc, nc)
	default:
		return d.patchPositional(parent, oc, nc)
	}
}

func anyKeyed(children []*Node) bool {
	for _, c := range children {
		if c.Keyed() {
			return true
		}
	}
	return false
}

// patchPositional pairs children by index. A hole on the old side creates, a
// hole on the new side removes. No identity tracking: a middle insertion
// reads as every later child changing.
func (d *differ) patchPositional(parent Ref, oc, nc []*Node) error {
	n := max(len(oc), len(nc))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(oc):
			if err := d.create(nc[i], parent, Ref{}); err != nil {
				return err
			}
		case i >= len(nc):
			d.emit(Remove{Ref: refOf(oc[i])})
		default:
			if err := d.patch(oc[i], nc[i], parent); err != nil {
				return err
			}
		}
	}
	return nil
}

// patchKeyed matches children by key: prefix and suffix are synced in place,
// old-only keys are removed, new-only keys created, and retained nodes move
// only when strictly required for the new order. Disorder is detected with a
// watermark over matched indices; the longest increasing subsequence of old
// positions then picks the nodes that stay put.
func (d *differ) patchKeyed(parent Ref, oc, nc []*Node) error {
	if err := checkKeys(oc); err != nil {
		return err
	}
	if err := checkKeys(nc); err != nil {
		return err
	}

	i := 0
	e1, e2 := len(oc)-1, len(nc)-1

	// counterpart maps a retained new child to the old node the host knows
	counterpart := make(map[*Node]*Node)

	for i <= e1 && i <= e2 && sameNode(oc[i], nc[i]) {
		if err := d.patch(oc[i], nc[i], parent); err != nil {
			return err
		}
		counterpart[nc[i]] = oc[i]
		i++
	}

	for e1 >= i && e2 >= i && sameNode(oc[e1], nc[e2]) {
		if err := d.patch(oc[e1], nc[e2], parent); err != nil {
			return err
		}
		counterpart[nc[e2]] = oc[e1]
		e1--
		e2--
	}

	refFor := func(n *Node) Ref {
		if old, ok := counterpart[n]; ok {
			return updateRef(old, n)
		}
		// freshly created in this pass
		return refOf(n)
	}

	switch {
	case i > e1:
		// only additions remain, anchored before the synced suffix
		anchor := Ref{}
		if e2+1 < len(nc) {
			anchor = refFor(nc[e2+1])
		}
		for j := i; j <= e2; j++ {
			if err := d.create(nc[j], parent, anchor); err != nil {
				return err
			}
		}
		return nil
	case i > e2:
		for j := i; j <= e1; j++ {
			d.emit(Remove{Ref: refOf(oc[j])})
		}
		return nil
	}

	// unsynced middle: match by key
	toNew := make(map[string]int, e2-i+1)
	for j := i; j <= e2; j++ {
		if nc[j].Keyed() {
			toNew[nc[j].Key] = j
		}
	}

	count := e2 - i + 1

	// per new middle slot, the matched old index plus one; zero means new
	oldIndex := make([]int, count)

	moved := false
	watermark := -1

	for j := i; j <= e1; j++ {
		oldChild := oc[j]

		nj, ok := -1, false
		if oldChild.Keyed() {
			nj, ok = toNew[oldChild.Key]
		}
		if !ok || !sameNode(oldChild, nc[nj]) {
			d.emit(Remove{Ref: refOf(oldChild)})
			continue
		}

		if err := d.patch(oldChild, nc[nj], parent); err != nil {
			return err
		}
		counterpart[nc[nj]] = oldChild
		oldIndex[nj-i] = j + 1

		if nj < watermark {
			moved = true
		} else {
			watermark = nj
		}
	}

	// indices into oldIndex forming the longest run already in order
	stable := lis(oldIndex)
	si := len(stable) - 1

	for j := count - 1; j >= 0; j-- {
		nj := i + j
		child := nc[nj]

		anchor := Ref{}
		if nj+1 < len(nc) {
			anchor = refFor(nc[nj+1])
		}

		if oldIndex[j] == 0 {
			if err := d.create(child, parent, anchor); err != nil {
				return err
			}
			continue
		}
		if !moved {
			continue
		}
		if si >= 0 && stable[si] == j {
			si--
			continue
		}
		d.emit(Move{Ref: refFor(child), Before: anchor})
	}

	return nil
}

func checkKeys(children []*Node) error {
	var seen map[string]struct{}
	for _, c := range children {
		if !c.Keyed() {
			continue
		}
		if seen == nil {
			seen = make(map[string]struct{}, len(children))
		}
		if _, dup := seen[c.Key]; dup {
			return &DuplicateKeyError{Key: c.Key}
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

func validateTree(n *Node) error {
	if err := validate(n); err != nil {
		return err
	}
	if err := checkKeys(n.Children); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := validateTree(c); err != nil {
			return err
		}
	}
	return nil
}

// lis returns the indices of a longest strictly increasing subsequence of
// the nonzero entries of arr, in ascending order.
func lis(arr []int) []int {
	var tails []int // indices of the smallest tail per length
	prev := make([]int, len(arr))

	for i, v := range arr {
		if v == 0 {
			continue
		}

		lo, hi := 0, len(tails)
		for lo < hi {
			mid := (lo + hi) / 2
			if arr[tails[mid]] < v {
				lo = mid + 1
			} else {
				hi = mid
			}
		}

		if lo > 0 {
			prev[i] = tails[lo-1]
		} else {
			prev[i] = -1
		}

		if lo == len(tails) {
			tails = append(tails, i)
		} else {
			tails[lo] = i
		}
	}

	if len(tails) == 0 {
		return nil
	}

	seq := make([]int, len(tails))
	k := tails[len(tails)-1]
	for x := len(tails) - 1; x >= 0; x-- {
		seq[x] = k
		k = prev[k]
	}
	return seq
}
