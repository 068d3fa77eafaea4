package vdom

import (
	"reflect"
	"slices"
)

// PropKind discriminates the property variants of a node.
type PropKind uint8

const (
	PropAttr PropKind = iota
	PropEvent
	PropStyle
)

func (k PropKind) String() string {
	switch k {
	case PropAttr:
		return "attr"
	case PropEvent:
		return "event"
	case PropStyle:
		return "style"
	}
	return "unknown"
}

// Handler receives an opaque host event payload.
type Handler func(event any)

// StyleEntry is one name/value pair of a style map. Entries are ordered.
type StyleEntry struct {
	Name  string
	Value string
}

// Prop is one entry of a node's ordered property list, resolved by the
// compiler into an explicit variant instead of being sniffed by name at diff
// time. Use the Attr, On and Style constructors.
type Prop struct {
	Kind    PropKind
	Name    string
	Value   any          // PropAttr
	Handler Handler      // PropEvent
	Entries []StyleEntry // PropStyle
}

// Attr builds a plain attribute property.
func Attr(name string, value any) Prop {
	return Prop{Kind: PropAttr, Name: name, Value: value}
}

// On builds an event binding for the named host event.
func On(event string, handler Handler) Prop {
	return Prop{Kind: PropEvent, Name: event, Handler: handler}
}

// Style builds a style map property.
func Style(entries ...StyleEntry) Prop {
	return Prop{Kind: PropStyle, Name: "style", Entries: entries}
}

// PropKey identifies a property within a node for removal.
type PropKey struct {
	Kind PropKind
	Name string
}

func (p Prop) Key() PropKey {
	return PropKey{Kind: p.Kind, Name: p.Name}
}

// equalProp reports whether two props of the same key carry the same value.
// Handlers compare by function identity: a new closure is a new binding.
func equalProp(a, b Prop) bool {
	if a.Kind != b.Kind || a.Name != b.Name {
		return false
	}

	switch a.Kind {
	case PropAttr:
		return equalValue(a.Value, b.Value)
	case PropEvent:
		return handlerID(a.Handler) == handlerID(b.Handler)
	case PropStyle:
		return slices.Equal(a.Entries, b.Entries)
	}
	return false
}

// equalValue compares attribute values without panicking when a value has an
// uncomparable dynamic type such as a slice or map.
func equalValue(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func handlerID(h Handler) uintptr {
	if h == nil {
		return 0
	}
	return reflect.ValueOf(h).Pointer()
}
