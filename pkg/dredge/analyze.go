package dredge

import (
	"fmt"
	"sort"

	"github.com/usestring/dredger/pkg/document"
)

// Analyzer turns one document into a forest of schema elements.
//
// List designators are map keys whose values are collections of records.
// They are synthesized into a single entity describing the union of all
// items, wherever in the document they appear. An Analyzer is immutable and
// safe for concurrent use.
type Analyzer struct {
	lists map[string]struct{}
}

// NewAnalyzer creates an analyzer with the given list designators.
func NewAnalyzer(lists ...string) *Analyzer {
	a := &Analyzer{lists: make(map[string]struct{}, len(lists))}
	for _, name := range lists {
		a.lists[name] = struct{}{}
	}
	return a
}

// Analyze analyses one document with the given list designators.
func Analyze(doc document.Node, lists ...string) ([]Element, error) {
	return NewAnalyzer(lists...).Analyze(doc)
}

// Lists returns the list designators in sorted order.
func (a *Analyzer) Lists() []string {
	names := make([]string, 0, len(a.lists))
	for name := range a.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsList reports whether name is a list designator.
func (a *Analyzer) IsList(name string) bool {
	_, ok := a.lists[name]
	return ok
}

// Analyze returns one element per top-level key of doc, in key order.
// Every element starts with an occurrence count of 1. doc must be a map.
func (a *Analyzer) Analyze(doc document.Node) ([]Element, error) {
	m, ok := doc.(*document.Map)
	if !ok || m == nil {
		return nil, errInputShape(doc)
	}
	return a.fragments(m), nil
}

func (a *Analyzer) fragments(m *document.Map) []Element {
	out := make([]Element, 0, m.Len())
	for key, value := range m.All() {
		out = append(out, a.element(key, value))
	}
	return out
}

func (a *Analyzer) element(key string, value document.Node) Element {
	if a.IsList(key) {
		return a.synthesizeList(key, value)
	}

	switch v := value.(type) {
	case nil:
		return NewAttribute(key, TypeNull)
	case *document.Map:
		return a.entity(key, v)
	case *document.List:
		return arrayEntity(key, v)
	case *document.Scalar:
		// Timestamps are scalars here, so date fields stay attributes.
		return NewAttribute(key, Classify(v))
	default:
		panic(fmt.Sprintf("dredge: unsupported node type %T", value))
	}
}

// entity analyses a nested map. Attributes and relations each keep the
// map's key order.
func (a *Analyzer) entity(name string, m *document.Map) *Entity {
	e := NewEntity(name, ShapeObject)
	for key, value := range m.All() {
		e.add(a.element(key, value))
	}
	return e
}

func (e *Entity) add(el Element) {
	switch v := el.(type) {
	case *Attribute:
		e.Attributes = append(e.Attributes, v)
	case *Entity:
		e.Relations = append(e.Relations, v)
	}
}

// arrayEntity summarizes a list that is not a list designator as an entity
// with a single value attribute typed over the list's items.
func arrayEntity(name string, l *document.List) *Entity {
	e := NewEntity(name, ShapeArray)
	e.Attributes = append(e.Attributes, NewAttribute(ValueAttribute, ClassifyList(l)))
	return e
}
