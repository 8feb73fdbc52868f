package jsonschema

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/invopop/jsonschema"
	validator "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/usestring/dredger/pkg/document"
	"github.com/usestring/dredger/pkg/dredge"
)

// compile turns an exported schema into a validator.
func compile(t *testing.T, s *dredge.Schema) *validator.Schema {
	t.Helper()

	data, err := json.Marshal(Export(s))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc, err := validator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	c := validator.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		t.Fatalf("add resource: %v", err)
	}
	compiled, err := c.Compile("schema.json")
	if err != nil {
		t.Fatalf("compile: %v\n%s", err, data)
	}
	return compiled
}

// instance converts a document into the value space the validator expects.
func instance(t *testing.T, doc document.Node) any {
	t.Helper()
	data, err := json.Marshal(document.ToValue(doc))
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	v, err := validator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	return v
}

func decode(t *testing.T, src string) document.Node {
	t.Helper()
	docs, err := document.DecodeYAML([]byte(src))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected one document, got %d", len(docs))
	}
	return docs[0]
}

func aggregate(t *testing.T, docs []document.Node, lists ...string) *dredge.Schema {
	t.Helper()
	forests := make([][]dredge.Element, 0, len(docs))
	for _, doc := range docs {
		forest, err := dredge.Analyze(doc, lists...)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		forests = append(forests, forest)
	}
	s, err := dredge.Aggregate(forests...)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	return s
}

func TestExport_ScalarTypes(t *testing.T) {
	s := aggregate(t, []document.Node{decode(t, `{n: 1, s: x, b: true, d: 2017-04-05, z: null}`)})
	schema := Export(s)

	tests := []struct {
		name   string
		typ    string
		format string
	}{
		{"n", "number", ""},
		{"s", "string", ""},
		{"b", "boolean", ""},
		{"d", "string", "date-time"},
		{"z", "null", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prop, ok := schema.Properties.Get(tt.name)
			if !ok {
				t.Fatalf("property %q missing", tt.name)
			}
			if prop.Type != tt.typ || prop.Format != tt.format {
				t.Errorf("got %q/%q, want %q/%q", prop.Type, prop.Format, tt.typ, tt.format)
			}
		})
	}

	if schema.Version != Draft {
		t.Errorf("expected $schema %q, got %q", Draft, schema.Version)
	}
}

func TestExport_RequiredFollowsCounts(t *testing.T) {
	s := aggregate(t, []document.Node{
		decode(t, `{id: 1, info: {city: A, venue: X}}`),
		decode(t, `{id: 2, info: {city: B}, extra: true}`),
	})
	schema := Export(s)

	if got := schema.Required; len(got) != 2 || got[0] != "id" || got[1] != "info" {
		t.Errorf("root required = %v, want [id info]", got)
	}
	info, _ := schema.Properties.Get("info")
	if got := info.Required; len(got) != 1 || got[0] != "city" {
		t.Errorf("info required = %v, want [city]", got)
	}
}

func TestExport_KeepsElementOrder(t *testing.T) {
	s := aggregate(t, []document.Node{decode(t, `{zulu: 1, alpha: {b: 1, a: 2}, mike: 3}`)})
	schema := Export(s)

	var keys []string
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if len(keys) != 3 || keys[0] != "zulu" || keys[1] != "alpha" || keys[2] != "mike" {
		t.Errorf("property order = %v", keys)
	}
}

func TestExport_WithoutStrictRequired(t *testing.T) {
	s := aggregate(t, []document.Node{decode(t, `{id: 1}`)})
	allowed := false
	schema := ExportWithOptions(&ExportOptions{AdditionalProperties: &allowed, Title: "matches"}, s)

	if len(schema.Required) != 0 {
		t.Errorf("expected no required properties, got %v", schema.Required)
	}
	if schema.AdditionalProperties != jsonschema.FalseSchema {
		t.Errorf("expected additionalProperties false")
	}
	if schema.Title != "matches" {
		t.Errorf("title = %q", schema.Title)
	}
}

func TestExport_AcceptsSourceDocuments(t *testing.T) {
	tests := []struct {
		name  string
		docs  []string
		lists []string
	}{
		{
			name: "type conflict",
			docs: []string{`{v: 1}`, `{v: "one"}`, `{v: [1, 2]}`},
		},
		{
			name: "scalar and map under one key",
			docs: []string{`{outcome: draw}`, `{outcome: {winner: A}}`, `{info: {toss: none}}`, `{info: {toss: {winner: B}}}`},
		},
		{
			name: "array and map under one key",
			docs: []string{`{teams: [A, B]}`, `{teams: {home: A}}`},
		},
		{
			name: "map then sequence under a nested key",
			docs: []string{`{p: {x: {a: 1}}}`, `{p: {x: [1, 2]}}`},
		},
		{
			name: "sequence then map under a nested key",
			docs: []string{`{p: {x: [1, 2]}}`, `{p: {x: {a: 1}}}`},
		},
		{
			name: "map then sequence at the top level",
			docs: []string{`{teams: {home: A}}`, `{teams: [A, B]}`, `{teams: none}`},
		},
		{
			name: "arrays of every kind",
			docs: []string{`{dates: [2017-04-05], empty: [], mixed: [1, x], nested: [[1], {a: 1}]}`},
		},
		{
			name:  "designated lists",
			docs:  []string{"innings:\n  - 1st innings: {team: A}\n", "innings: {a: {team: B}}\n", "innings: none\n"},
			lists: []string{"innings"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := make([]document.Node, 0, len(tt.docs))
			for _, src := range tt.docs {
				docs = append(docs, decode(t, src))
			}
			compiled := compile(t, aggregate(t, docs, tt.lists...))
			for i, doc := range docs {
				if err := compiled.Validate(instance(t, doc)); err != nil {
					t.Errorf("document %d rejected: %v", i, err)
				}
			}
		})
	}
}

func TestExport_RejectsForeignShapes(t *testing.T) {
	compiled := compile(t, aggregate(t, []document.Node{
		decode(t, `{id: 1, info: {city: A}}`),
		decode(t, `{id: 2, info: {city: B}}`),
	}))

	for _, src := range []string{`{id: x, info: {city: A}}`, `{info: {city: A}}`, `{id: 1, info: [A]}`} {
		if err := compiled.Validate(instance(t, decode(t, src))); err == nil {
			t.Errorf("%s accepted", src)
		}
	}
}

func TestExport_MapThenSequenceKeepsItemType(t *testing.T) {
	s := aggregate(t, []document.Node{decode(t, `{p: {x: {a: 1}}}`), decode(t, `{p: {x: [1, 2]}}`)})
	compiled := compile(t, s)

	if err := compiled.Validate(instance(t, decode(t, `{p: {x: [x]}}`))); err == nil {
		t.Errorf("sequence of strings accepted for a sequence of numbers")
	}
}

func TestExport_CricketCorpus(t *testing.T) {
	var docs []document.Node
	err := filepath.WalkDir("../../testdata/cricket", func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".yaml" {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		parsed, err := document.DecodeYAML(data)
		if err != nil {
			return err
		}
		docs = append(docs, parsed...)
		return nil
	})
	if err != nil {
		t.Fatalf("reading corpus: %v", err)
	}

	compiled := compile(t, aggregate(t, docs, "innings", "deliveries"))
	for i, doc := range docs {
		if err := compiled.Validate(instance(t, doc)); err != nil {
			t.Errorf("document %d rejected: %v", i, err)
		}
	}
}
