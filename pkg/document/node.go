// Package document provides the generic tree model that parsed YAML and JSON
// documents are converted into before schema analysis.
//
// A document is a tree of three node kinds: maps with ordered, unique keys,
// lists, and scalars. The set of kinds is closed; code that switches over a
// Node must handle all three.
package document

import (
	"fmt"
	"iter"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Kind identifies a Node variant.
type Kind int

const (
	KindMap Kind = iota
	KindList
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindScalar:
		return "scalar"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one value in a document tree: *Map, *List or *Scalar.
type Node interface {
	Kind() Kind
	node()
}

// Map is an ordered set of name/value pairs. Names are unique.
type Map struct {
	entries *orderedmap.OrderedMap[string, Node]
}

// NewMap creates an empty map.
func NewMap() *Map {
	return &Map{entries: orderedmap.New[string, Node]()}
}

func (m *Map) Kind() Kind { return KindMap }
func (m *Map) node()      {}

// Set adds or replaces the value for key. A replaced key keeps its position.
func (m *Map) Set(key string, value Node) {
	if m.entries == nil {
		m.entries = orderedmap.New[string, Node]()
	}
	m.entries.Set(key, value)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Node, bool) {
	if m == nil || m.entries == nil {
		return nil, false
	}
	return m.entries.Get(key)
}

// Has reports whether key is present.
func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil || m.entries == nil {
		return 0
	}
	return m.entries.Len()
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.Len())
	for key := range m.All() {
		keys = append(keys, key)
	}
	return keys
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[string, Node] {
	return func(yield func(string, Node) bool) {
		if m == nil || m.entries == nil {
			return
		}
		for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Values returns the values in insertion order.
func (m *Map) Values() []Node {
	values := make([]Node, 0, m.Len())
	for _, value := range m.All() {
		values = append(values, value)
	}
	return values
}

// List is an ordered sequence of nodes.
type List struct {
	Items []Node
}

// NewList creates a list holding items.
func NewList(items ...Node) *List {
	return &List{Items: items}
}

func (l *List) Kind() Kind { return KindList }
func (l *List) node()      {}

// Len returns the number of items.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

// Scalar is a leaf value. Value is nil, a bool, an integer or float kind,
// a string, or a time.Time.
type Scalar struct {
	Value any
}

// NewScalar wraps v as a scalar node.
func NewScalar(v any) *Scalar {
	return &Scalar{Value: v}
}

// Null returns a scalar holding no value.
func Null() *Scalar {
	return &Scalar{}
}

func (s *Scalar) Kind() Kind { return KindScalar }
func (s *Scalar) node()      {}

// IsNull reports whether the scalar holds no value.
func (s *Scalar) IsNull() bool {
	return s == nil || s.Value == nil
}

// Time returns the scalar as a timestamp if it holds one.
func (s *Scalar) Time() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	t, ok := s.Value.(time.Time)
	return t, ok
}
