// Package jsonschema exports aggregate schemas as JSON Schema documents.
// It generates schemas following JSON Schema Draft 2020-12.
//
// The export describes what the corpus showed, not what it must be: types
// widen to the union of observed shapes, and a property is required only if
// it appeared everywhere its parent did.
package jsonschema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/usestring/dredger/pkg/dredge"
)

// Draft is the JSON Schema dialect of exported schemas.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// ExportOptions controls schema export.
type ExportOptions struct {
	// StrictRequired marks a property required when it was seen in every
	// document its parent was seen in.
	// Default: true
	StrictRequired bool
	// AdditionalProperties sets additionalProperties in object schemas.
	// Default: nil (not set)
	AdditionalProperties *bool
	// Title is set on the root schema when not empty.
	Title string
}

// DefaultExportOptions returns the default export options.
func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{StrictRequired: true}
}

// Export converts an aggregate schema into a JSON Schema for its documents.
func Export(s *dredge.Schema) *jsonschema.Schema {
	return ExportWithOptions(DefaultExportOptions(), s)
}

// ExportWithOptions converts an aggregate schema with custom options.
func ExportWithOptions(opts *ExportOptions, s *dredge.Schema) *jsonschema.Schema {
	if opts == nil {
		opts = DefaultExportOptions()
	}
	ex := &exporter{opts: opts}

	root := ex.object(s.Elements, s.Documents, true)
	root.Version = Draft
	root.Title = opts.Title
	root.Description = fmt.Sprintf("Inferred from %d documents.", s.Documents)
	return root
}

type exporter struct {
	opts *ExportOptions
}

// property collects every element published under one key. Within an entity
// an attribute and a relation may share a name when documents disagree on
// whether the key holds a scalar or a structure.
type property struct {
	name    string
	schemas []*jsonschema.Schema
	count   int
}

// object describes a map holding elements. At the top level an entity may
// also have been observed as a scalar under the same name; such
// observations were folded into its value attribute.
func (ex *exporter) object(elements []dredge.Element, parentCount int, top bool) *jsonschema.Schema {
	var props []*property
	byName := make(map[string]*property)

	for _, el := range elements {
		p, ok := byName[el.ElementName()]
		if !ok {
			p = &property{name: el.ElementName()}
			byName[p.name] = p
			props = append(props, p)
		}
		p.schemas = append(p.schemas, ex.element(el, top))
		p.count += el.Count()
	}

	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	required := make([]string, 0)
	for _, p := range props {
		schema.Properties.Set(p.name, anyOf(p.schemas))
		if ex.opts.StrictRequired && parentCount > 0 && p.count >= parentCount {
			required = append(required, p.name)
		}
	}
	if len(required) > 0 {
		schema.Required = required
	}
	if ex.opts.AdditionalProperties != nil {
		if *ex.opts.AdditionalProperties {
			schema.AdditionalProperties = jsonschema.TrueSchema
		} else {
			schema.AdditionalProperties = jsonschema.FalseSchema
		}
	}
	return schema
}

func (ex *exporter) element(el dredge.Element, top bool) *jsonschema.Schema {
	switch v := el.(type) {
	case *dredge.Attribute:
		return scalar(v.DataType)
	case *dredge.Entity:
		return ex.entity(v, top)
	default:
		return &jsonschema.Schema{}
	}
}

func (ex *exporter) entity(e *dredge.Entity, top bool) *jsonschema.Schema {
	switch e.Shape {
	case dredge.ShapeList:
		return list(e)
	case dredge.ShapeArray:
		return ex.array(e, top)
	default:
		return ex.record(e, top)
	}
}

// record describes a nested map. A value attribute means the key also held
// a sequence in some documents, or at the top level a scalar.
func (ex *exporter) record(e *dredge.Entity, top bool) *jsonschema.Schema {
	obj := ex.object(members(e), e.Occurrences, false)

	value := e.Attribute(dredge.ValueAttribute)
	if value == nil {
		return obj
	}
	alternatives := []*jsonschema.Schema{obj, items(value.DataType)}
	if top {
		alternatives = append(alternatives, scalar(value.DataType))
	}
	return anyOf(alternatives)
}

// array describes a plain sequence. Members besides the value attribute
// mean the same key held a map in some documents.
func (ex *exporter) array(e *dredge.Entity, top bool) *jsonschema.Schema {
	alternatives := []*jsonschema.Schema{{Type: "array"}}

	if value := e.Attribute(dredge.ValueAttribute); value != nil {
		alternatives[0] = items(value.DataType)
		if top {
			alternatives = append(alternatives, scalar(value.DataType))
		}
	}

	var others []dredge.Element
	for _, el := range members(e) {
		if a, ok := el.(*dredge.Attribute); ok && a.Name == dredge.ValueAttribute {
			continue
		}
		others = append(others, el)
	}
	if len(others) > 0 {
		noRequired := *ex.opts
		noRequired.StrictRequired = false
		alternatives = append(alternatives, (&exporter{opts: &noRequired}).object(others, e.Occurrences, false))
	}
	return anyOf(alternatives)
}

// items describes a sequence whose elements classified as dt. An empty
// sequence classifies as null and constrains nothing.
func items(dt dredge.DataType) *jsonschema.Schema {
	arr := &jsonschema.Schema{Type: "array"}
	if dt != dredge.TypeNull {
		arr.Items = scalar(dt)
	}
	return arr
}

// list describes a designated list. Items may wrap their record in a key of
// their own, so only the field names are recorded.
func list(e *dredge.Entity) *jsonschema.Schema {
	var fields []string
	for _, a := range e.Attributes {
		if a.Name != dredge.ValueAttribute {
			fields = append(fields, a.Name)
		}
	}
	for _, r := range e.Relations {
		fields = append(fields, r.Name)
	}

	desc := "Collection of records."
	if len(fields) > 0 {
		desc = "Collection of records with fields: " + strings.Join(fields, ", ") + "."
	}
	return &jsonschema.Schema{Description: desc}
}

func members(e *dredge.Entity) []dredge.Element {
	out := make([]dredge.Element, 0, len(e.Attributes)+len(e.Relations))
	for _, a := range e.Attributes {
		out = append(out, a)
	}
	for _, r := range e.Relations {
		out = append(out, r)
	}
	return out
}

// scalar maps an inferred data type to a schema. Dates are exported as
// RFC 3339 strings. Variant accepts anything.
func scalar(dt dredge.DataType) *jsonschema.Schema {
	switch dt {
	case dredge.TypeNumber:
		return &jsonschema.Schema{Type: "number"}
	case dredge.TypeString:
		return &jsonschema.Schema{Type: "string"}
	case dredge.TypeBoolean:
		return &jsonschema.Schema{Type: "boolean"}
	case dredge.TypeDate:
		return &jsonschema.Schema{Type: "string", Format: "date-time"}
	case dredge.TypeNull:
		return &jsonschema.Schema{Type: "null"}
	default:
		return &jsonschema.Schema{Description: "Values of mixed types."}
	}
}

// anyOf combines alternatives, collapsing duplicates by type.
func anyOf(schemas []*jsonschema.Schema) *jsonschema.Schema {
	if len(schemas) == 1 {
		return schemas[0]
	}

	seen := make(map[string]bool)
	out := make([]*jsonschema.Schema, 0, len(schemas))
	for _, s := range schemas {
		if s.Type == "" {
			// An unconstrained alternative accepts everything.
			return s
		}
		if s.Type != "object" && s.Type != "array" {
			key := s.Type + "/" + s.Format
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i].Type) < rank(out[j].Type) })

	if len(out) == 1 {
		return out[0]
	}
	return &jsonschema.Schema{AnyOf: out}
}

func rank(t string) int {
	switch t {
	case "object":
		return 0
	case "array":
		return 1
	default:
		return 2
	}
}
