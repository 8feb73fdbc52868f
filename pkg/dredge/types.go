// Package dredge infers a structural schema from semi-structured documents
// and aggregates it across a corpus.
//
// Each document is analysed into a forest of schema elements: Entities for
// nested objects and list collections, Attributes for scalar fields. The
// per-document forests are then folded by an Aggregator into one Schema that
// records, for every element, the number of documents it was observed in.
//
// The package performs no I/O. Analysis of one document is a pure function of
// that document and the Analyzer's list designators, so documents can be
// analysed concurrently; aggregation is a sequential reduction.
package dredge

import (
	"strings"
)

// DataType is the inferred type of an attribute.
type DataType string

const (
	TypeNumber  DataType = "number"
	TypeString  DataType = "string"
	TypeBoolean DataType = "boolean"
	TypeDate    DataType = "date"
	TypeNull    DataType = "null"
	TypeVariant DataType = "variant" // observed values disagree in type
)

// Shape records how an entity was synthesized.
type Shape string

const (
	ShapeObject Shape = "object" // nested map
	ShapeList   Shape = "list"   // value of a list designator
	ShapeArray  Shape = "array"  // any other list
)

// ValueAttribute names the synthetic attribute that list and array entities
// carry for their item values.
const ValueAttribute = "value"

// PathSeparator joins element names into index and lookup paths. Inside a
// name, PathSeparator and PathEscape are preceded by PathEscape.
const (
	PathSeparator = "."
	PathEscape    = `\`
)

var pathEscaper = strings.NewReplacer(PathEscape, PathEscape+PathEscape, PathSeparator, PathEscape+PathSeparator)

// Element is a schema node: *Attribute or *Entity.
type Element interface {
	ElementName() string
	Count() int
	element()
}

// Attribute is a scalar field with an inferred type.
type Attribute struct {
	Name        string   `json:"name"`
	DataType    DataType `json:"data_type"`
	Occurrences int      `json:"occurrences"`
}

// NewAttribute creates an attribute observed once.
func NewAttribute(name string, dataType DataType) *Attribute {
	return &Attribute{Name: name, DataType: dataType, Occurrences: 1}
}

func (a *Attribute) ElementName() string { return a.Name }
func (a *Attribute) Count() int          { return a.Occurrences }
func (a *Attribute) element()            {}

// Clone returns a copy of the attribute.
func (a *Attribute) Clone() *Attribute {
	c := *a
	return &c
}

// Entity is a nested object with attributes and nested relations.
// Attribute names are unique within Attributes, relation names within
// Relations.
type Entity struct {
	Name        string       `json:"name"`
	Shape       Shape        `json:"shape"`
	Attributes  []*Attribute `json:"attributes"`
	Relations   []*Entity    `json:"relations"`
	Occurrences int          `json:"occurrences"`
}

// NewEntity creates an empty entity observed once.
func NewEntity(name string, shape Shape) *Entity {
	return &Entity{
		Name:        name,
		Shape:       shape,
		Attributes:  []*Attribute{},
		Relations:   []*Entity{},
		Occurrences: 1,
	}
}

func (e *Entity) ElementName() string { return e.Name }
func (e *Entity) Count() int          { return e.Occurrences }
func (e *Entity) element()            {}

// Attribute returns the attribute called name, or nil.
func (e *Entity) Attribute(name string) *Attribute {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Relation returns the relation called name, or nil.
func (e *Entity) Relation(name string) *Entity {
	for _, r := range e.Relations {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Clone returns a deep copy of the entity.
func (e *Entity) Clone() *Entity {
	c := &Entity{
		Name:        e.Name,
		Shape:       e.Shape,
		Attributes:  make([]*Attribute, len(e.Attributes)),
		Relations:   make([]*Entity, len(e.Relations)),
		Occurrences: e.Occurrences,
	}
	for i, a := range e.Attributes {
		c.Attributes[i] = a.Clone()
	}
	for i, r := range e.Relations {
		c.Relations[i] = r.Clone()
	}
	return c
}

// CloneElement deep-copies an element.
func CloneElement(el Element) Element {
	switch v := el.(type) {
	case *Attribute:
		return v.Clone()
	case *Entity:
		return v.Clone()
	default:
		return nil
	}
}

// Schema is an aggregate schema: top-level elements in first-seen order and
// the number of documents folded in.
type Schema struct {
	Elements  []Element `json:"elements"`
	Documents int       `json:"documents"`
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	c := &Schema{
		Elements:  make([]Element, len(s.Elements)),
		Documents: s.Documents,
	}
	for i, el := range s.Elements {
		c.Elements[i] = CloneElement(el)
	}
	return c
}

// Element returns the top-level element called name.
func (s *Schema) Element(name string) (Element, bool) {
	for _, el := range s.Elements {
		if el.ElementName() == name {
			return el, true
		}
	}
	return nil, false
}

// Lookup resolves a path of element names. Every name but the last must
// denote an entity; the last may denote an attribute or a relation.
// Attributes are preferred when an entity has both under the same name.
func (s *Schema) Lookup(path ...string) (Element, bool) {
	if len(path) == 0 {
		return nil, false
	}

	el, ok := s.Element(path[0])
	if !ok {
		return nil, false
	}

	for _, name := range path[1:] {
		e, isEntity := el.(*Entity)
		if !isEntity {
			return nil, false
		}
		if a := e.Attribute(name); a != nil {
			el = a
			continue
		}
		r := e.Relation(name)
		if r == nil {
			return nil, false
		}
		el = r
	}

	return el, true
}

// LookupPath resolves a path built by JoinPath, such as "player.name" or
// `deliveries.0\.1`.
func (s *Schema) LookupPath(path string) (Element, bool) {
	if path == "" {
		return nil, false
	}
	return s.Lookup(SplitPath(path)...)
}

// JoinPath joins element names with PathSeparator, escaping names that
// contain it.
func JoinPath(names ...string) string {
	escaped := make([]string, len(names))
	for i, name := range names {
		escaped[i] = pathEscaper.Replace(name)
	}
	return strings.Join(escaped, PathSeparator)
}

// SplitPath reverses JoinPath. An escape not followed by PathSeparator or
// PathEscape is kept as a literal character.
func SplitPath(path string) []string {
	var names []string
	var b strings.Builder
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == PathEscape[0] && i+1 < len(path) && (path[i+1] == PathEscape[0] || path[i+1] == PathSeparator[0]):
			i++
			b.WriteByte(path[i])
		case c == PathSeparator[0]:
			names = append(names, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(names, b.String())
}

// CanonicalPath rewrites path in the form JoinPath produces.
func CanonicalPath(path string) string {
	return JoinPath(SplitPath(path)...)
}

// WalkFunc is called for every element visited by Walk. path includes the
// element's own name.
type WalkFunc func(path []string, el Element) error

// Walk visits elements depth-first: an entity, then its attributes, then its
// relations. It stops at the first error fn returns.
func Walk(elements []Element, fn WalkFunc) error {
	for _, el := range elements {
		if err := walk(nil, el, fn); err != nil {
			return err
		}
	}
	return nil
}

func walk(parent []string, el Element, fn WalkFunc) error {
	path := make([]string, len(parent)+1)
	copy(path, parent)
	path[len(parent)] = el.ElementName()

	if err := fn(path, el); err != nil {
		return err
	}

	e, ok := el.(*Entity)
	if !ok {
		return nil
	}
	for _, a := range e.Attributes {
		if err := walk(path, a, fn); err != nil {
			return err
		}
	}
	for _, r := range e.Relations {
		if err := walk(path, r, fn); err != nil {
			return err
		}
	}
	return nil
}
