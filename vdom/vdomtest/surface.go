// Package vdomtest provides an in-memory recording Surface for tests.
package vdomtest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/loomui/loom/vdom"
)

// Surface records every operation applied to it and keeps the handle map a
// real host would keep: opaque handles per mounted node, re-keyed to the new
// tree whenever an update op carries the counterpart.
type Surface struct {
	mu      sync.Mutex
	handles map[*vdom.Node]uuid.UUID
	log     []string
}

func New() *Surface {
	return &Surface{
		handles: make(map[*vdom.Node]uuid.UUID),
	}
}

// Log returns a readable trace of the operations applied so far.
func (s *Surface) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.log...)
}

// Reset clears the trace but keeps the mounted handles.
func (s *Surface) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = nil
}

// Handle returns the host handle for a mounted node.
func (s *Surface) Handle(n *vdom.Node) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[n]
	return h, ok
}

func (s *Surface) Create(node *vdom.Node, parent, before vdom.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolve(parent); err != nil {
		return err
	}
	if _, err := s.resolve(before); err != nil {
		return err
	}

	s.mount(node)
	s.logf("create %s parent=%s before=%s", label(node), refLabel(parent), refLabel(before))
	return nil
}

func (s *Surface) Remove(ref vdom.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolve(ref); err != nil {
		return err
	}
	delete(s.handles, ref.Current())
	s.logf("remove %s", refLabel(ref))
	return nil
}

func (s *Surface) UpdateProps(ref vdom.Ref, removed []vdom.PropKey, changed []vdom.Prop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolve(ref); err != nil {
		return err
	}

	var parts []string
	for _, k := range removed {
		parts = append(parts, fmt.Sprintf("-%s:%s", k.Kind, k.Name))
	}
	for _, p := range changed {
		parts = append(parts, fmt.Sprintf("+%s:%s", p.Kind, p.Name))
	}
	s.logf("props %s %s", refLabel(ref), strings.Join(parts, " "))
	return nil
}

func (s *Surface) UpdateText(ref vdom.Ref, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolve(ref); err != nil {
		return err
	}
	s.logf("text %s %q", refLabel(ref), text)
	return nil
}

func (s *Surface) Move(ref, before vdom.Ref) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.resolve(ref); err != nil {
		return err
	}
	if _, err := s.resolve(before); err != nil {
		return err
	}
	s.logf("move %s before=%s", refLabel(ref), refLabel(before))
	return nil
}

// mount assigns a fresh handle to node and its whole subtree.
func (s *Surface) mount(n *vdom.Node) {
	s.handles[n] = uuid.New()
	for _, c := range n.Children {
		s.mount(c)
	}
}

// resolve translates a ref into the host handle. When the ref carries a
// new-tree counterpart, the handle is re-keyed to it; the old identity stays
// resolvable for the remainder of the pass.
func (s *Surface) resolve(ref vdom.Ref) (uuid.UUID, error) {
	if ref.IsZero() {
		return uuid.Nil, nil
	}

	h, ok := s.handles[ref.Current()]
	if !ok {
		return uuid.Nil, fmt.Errorf("vdomtest: unknown ref %s", label(ref.Current()))
	}
	if next := ref.Next(); next != nil {
		s.handles[next] = h
	}
	return h, nil
}

func (s *Surface) logf(format string, args ...any) {
	s.log = append(s.log, fmt.Sprintf(format, args...))
}

func refLabel(ref vdom.Ref) string {
	if ref.IsZero() {
		return "-"
	}
	return label(ref.Current())
}

func label(n *vdom.Node) string {
	switch n.Kind {
	case vdom.KindText:
		return fmt.Sprintf("text(%q)", n.Text)
	case vdom.KindFragment:
		return "fragment"
	default:
		if n.Key != "" {
			return fmt.Sprintf("%s[%s]", n.Tag, n.Key)
		}
		return n.Tag
	}
}
