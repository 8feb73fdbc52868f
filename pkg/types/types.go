// Package types provides shared output types for dredger.
// These types are used by the CLI and the MCP tools and are designed for
// external consumption.
package types

import (
	"encoding/json"

	"github.com/usestring/dredger/pkg/dredge"
)

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Element kinds.
const (
	KindEntity    = "entity"
	KindAttribute = "attribute"
)

// SchemaView is the JSON form of an aggregate schema.
type SchemaView struct {
	Documents int          `json:"documents"`
	Elements  []SchemaNode `json:"elements"`
}

// SchemaNode is one element of a SchemaView.
type SchemaNode struct {
	Name        string       `json:"name"`
	Kind        string       `json:"kind"`
	Shape       string       `json:"shape,omitempty"`     // entities only
	DataType    string       `json:"data_type,omitempty"` // attributes only
	Occurrences int          `json:"occurrences"`
	Ratio       float64      `json:"ratio"` // occurrences / documents
	Attributes  []SchemaNode `json:"attributes,omitempty"`
	Relations   []SchemaNode `json:"relations,omitempty"`
}

// NewSchemaView converts an aggregate schema.
func NewSchemaView(s *dredge.Schema) SchemaView {
	view := SchemaView{Documents: s.Documents, Elements: make([]SchemaNode, 0, len(s.Elements))}
	for _, el := range s.Elements {
		view.Elements = append(view.Elements, newNode(el, s.Documents))
	}
	return view
}

func newNode(el dredge.Element, documents int) SchemaNode {
	n := header(el, documents)
	if e, ok := el.(*dredge.Entity); ok {
		for _, a := range e.Attributes {
			n.Attributes = append(n.Attributes, header(a, documents))
		}
		for _, r := range e.Relations {
			n.Relations = append(n.Relations, newNode(r, documents))
		}
	}
	return n
}

// header converts an element without its children.
func header(el dredge.Element, documents int) SchemaNode {
	n := SchemaNode{
		Name:        el.ElementName(),
		Occurrences: el.Count(),
		Ratio:       Ratio(el.Count(), documents),
	}
	switch v := el.(type) {
	case *dredge.Attribute:
		n.Kind = KindAttribute
		n.DataType = string(v.DataType)
	case *dredge.Entity:
		n.Kind = KindEntity
		n.Shape = string(v.Shape)
	}
	return n
}

// SchemaRow is one element of a schema flattened to its dotted path.
type SchemaRow struct {
	Path        string  `json:"path"`
	Kind        string  `json:"kind"`
	Shape       string  `json:"shape,omitempty"`
	DataType    string  `json:"data_type,omitempty"`
	Occurrences int     `json:"occurrences"`
	Ratio       float64 `json:"ratio"`
}

// SchemaRows flattens a schema depth-first: an entity, then its attributes,
// then its relations.
func SchemaRows(s *dredge.Schema) []SchemaRow {
	rows := make([]SchemaRow, 0)
	_ = dredge.Walk(s.Elements, func(path []string, el dredge.Element) error {
		n := header(el, s.Documents)
		rows = append(rows, SchemaRow{
			Path:        dredge.JoinPath(path...),
			Kind:        n.Kind,
			Shape:       n.Shape,
			DataType:    n.DataType,
			Occurrences: n.Occurrences,
			Ratio:       n.Ratio,
		})
		return nil
	})
	return rows
}

// Ratio returns count/total, or 0 when total is 0.
func Ratio(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total)
}
