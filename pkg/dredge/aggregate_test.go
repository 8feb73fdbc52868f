package dredge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/dredger/pkg/document"
)

// summary flattens a schema into path -> "type/count" for entities and
// attributes, which makes order-insensitive comparisons easy.
func summary(t *testing.T, s *Schema) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := Walk(s.Elements, func(path []string, el Element) error {
		key := JoinPath(path...)
		switch v := el.(type) {
		case *Attribute:
			key = "@" + key
			out[key] = fmt.Sprintf("%s/%d", v.DataType, v.Occurrences)
		case *Entity:
			out[key] = fmt.Sprintf("%s/%d", v.Shape, v.Occurrences)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

var corpus = []string{
	`
meta: {version: 1}
info: {city: Bangalore, dates: [2017-04-05], outcome: {winner: Sunrisers}}
innings:
  - 1st innings: {team: Sunrisers, deliveries: [{0.1: {batsman: A, runs: {total: 0}}}]}
`,
	`
meta: {version: 1, revision: 2}
info: {dates: [2017-04-06], outcome: {result: no result}}
`,
	`
meta: {version: "1.1"}
info: {city: Pune, dates: [2017-04-07], outcome: {winner: Pune, by: {runs: 97}}}
innings:
  - 1st innings: {team: Pune, deliveries: [{0.1: {batsman: B, extras: {wides: 1}}}]}
  - 2nd innings: {team: Delhi, penalty_runs: {post: 5}}
`,
}

func analyzeCorpus(t *testing.T, docs []string) [][]Element {
	t.Helper()
	forests := make([][]Element, len(docs))
	for i, src := range docs {
		forests[i] = analyzeYAML(t, src, "innings", "deliveries")
	}
	return forests
}

func TestAggregate_CountsAcrossDocuments(t *testing.T) {
	a := analyzeYAML(t, `{tag: "x"}`)
	b := analyzeYAML(t, `{tag: "y"}`)

	schema, err := Aggregate(a, b)
	require.NoError(t, err)

	assert.Equal(t, 2, schema.Documents)
	assert.Equal(t, []Element{&Attribute{Name: "tag", DataType: TypeString, Occurrences: 2}}, schema.Elements)
}

func TestAggregate_Corpus(t *testing.T) {
	schema, err := Aggregate(analyzeCorpus(t, corpus)...)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"meta":                             "object/3",
		"@meta.version":                    "variant/3",
		"@meta.revision":                   "number/1",
		"info":                             "object/3",
		"@info.city":                       "string/2",
		"info.dates":                       "array/3",
		"@info.dates.value":                "date/3",
		"info.outcome":                     "object/3",
		"@info.outcome.winner":             "string/2",
		"@info.outcome.result":             "string/1",
		"info.outcome.by":                  "object/1",
		"@info.outcome.by.runs":            "number/1",
		"innings":                          "list/2",
		"@innings.value":                   "string/2",
		"@innings.team":                    "string/2",
		"innings.deliveries":               "list/2",
		"@innings.deliveries.value":        "string/2",
		"@innings.deliveries.batsman":      "string/2",
		"innings.deliveries.runs":          "object/1",
		"@innings.deliveries.runs.total":   "number/1",
		"innings.deliveries.extras":        "object/1",
		"@innings.deliveries.extras.wides": "number/1",
		"innings.penalty_runs":             "object/1",
		"@innings.penalty_runs.post":       "number/1",
	}, summary(t, schema))

	// First-seen order at every level.
	var top []string
	for _, el := range schema.Elements {
		top = append(top, el.ElementName())
	}
	assert.Equal(t, []string{"meta", "info", "innings"}, top)

	info := schema.Elements[1].(*Entity)
	assert.Equal(t, "city", info.Attributes[0].Name)
	assert.Equal(t, []string{"dates", "outcome"}, []string{info.Relations[0].Name, info.Relations[1].Name})
}

func TestAggregate_OrderIndependentCounts(t *testing.T) {
	forests := analyzeCorpus(t, corpus)
	want, err := Aggregate(forests...)
	require.NoError(t, err)

	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			permuted := make([][]Element, len(order))
			for i, idx := range order {
				permuted[i] = forests[idx]
			}
			got, err := Aggregate(permuted...)
			require.NoError(t, err)
			assert.Equal(t, summary(t, want), summary(t, got))
		})
	}
}

func TestAggregator_MergeIsAssociative(t *testing.T) {
	forests := analyzeCorpus(t, corpus)
	want, err := Aggregate(forests...)
	require.NoError(t, err)

	left, err := Aggregate(forests[0], forests[1])
	require.NoError(t, err)
	right, err := Aggregate(forests[2])
	require.NoError(t, err)

	ag := NewAggregator()
	require.NoError(t, ag.Merge(right))
	require.NoError(t, ag.Merge(left))
	require.NoError(t, ag.Merge(nil))

	assert.Equal(t, 3, ag.Schema().Documents)
	assert.Equal(t, summary(t, want), summary(t, ag.Schema()))
}

func TestAggregate_CountConservation(t *testing.T) {
	forests := analyzeCorpus(t, corpus)
	schema, err := Aggregate(forests...)
	require.NoError(t, err)

	// For every path in the aggregate, count the documents whose own
	// forest contains it.
	perDoc := make([]map[string]bool, len(forests))
	for i, forest := range forests {
		perDoc[i] = make(map[string]bool)
		single, err := Aggregate(forest)
		require.NoError(t, err)
		for path := range summary(t, single) {
			perDoc[i][path] = true
		}
	}

	for path, value := range summary(t, schema) {
		present := 0
		for _, paths := range perDoc {
			if paths[path] {
				present++
			}
		}
		count := value[strings.LastIndex(value, "/")+1:]
		assert.Equal(t, fmt.Sprint(present), count, path)
	}
}

func TestAggregate_DoesNotModifyInputs(t *testing.T) {
	forests := analyzeCorpus(t, corpus)
	before, err := Aggregate(forests[0])
	require.NoError(t, err)
	snapshot := summary(t, before)

	_, err = Aggregate(forests...)
	require.NoError(t, err)

	after, err := Aggregate(forests[0])
	require.NoError(t, err)
	assert.Equal(t, snapshot, summary(t, after))
	assert.Equal(t, 1, forests[0][0].Count())
}

func TestAggregate_TypeConflictBecomesVariant(t *testing.T) {
	schema, err := Aggregate(
		analyzeYAML(t, `{x: 1, y: {z: true}}`),
		analyzeYAML(t, `{x: 2, y: {z: true}}`),
		analyzeYAML(t, `{x: "three", y: {z: 1}}`),
		analyzeYAML(t, `{x: 4, y: {z: false}}`),
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"@x":   "variant/4",
		"y":    "object/4",
		"@y.z": "variant/4",
	}, summary(t, schema))
}

func TestAggregate_EntityWinsOverAttribute(t *testing.T) {
	scalarFirst, err := Aggregate(
		analyzeYAML(t, `{outcome: "draw"}`),
		analyzeYAML(t, `{outcome: {winner: A}}`),
	)
	require.NoError(t, err)

	entityFirst, err := Aggregate(
		analyzeYAML(t, `{outcome: {winner: A}}`),
		analyzeYAML(t, `{outcome: "draw"}`),
	)
	require.NoError(t, err)

	want := map[string]string{
		"outcome":         "object/2",
		"@outcome.winner": "string/1",
		"@outcome.value":  "string/1",
	}
	assert.Equal(t, want, summary(t, scalarFirst))
	assert.Equal(t, want, summary(t, entityFirst))
}

func TestAggregate_DeeplyNestedDocuments(t *testing.T) {
	const depth = 2000

	build := func(leaf any) document.Node {
		var n document.Node = document.NewScalar(leaf)
		for i := depth; i > 0; i-- {
			m := document.NewMap()
			m.Set(fmt.Sprintf("level%d", i), n)
			n = m
		}
		return n
	}

	a, err := Analyze(build(1))
	require.NoError(t, err)
	b, err := Analyze(build(2))
	require.NoError(t, err)

	schema, err := Aggregate(a, b)
	require.NoError(t, err)

	path := make([]string, 0, depth)
	for i := 1; i <= depth; i++ {
		path = append(path, fmt.Sprintf("level%d", i))
	}
	leaf, ok := schema.Lookup(path...)
	require.True(t, ok)
	assert.Equal(t, &Attribute{Name: fmt.Sprintf("level%d", depth), DataType: TypeNumber, Occurrences: 2}, leaf)
}

func TestAggregator_CorruptTopIndexIsInvariantError(t *testing.T) {
	ag := NewAggregator()
	require.NoError(t, ag.Add(analyzeYAML(t, `{a: 1}`)))

	ag.top["a"] = 7
	err := ag.Add(analyzeYAML(t, `{a: 2}`))
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
}

func TestAggregator_CorruptRelationIndexIsInvariantError(t *testing.T) {
	ag := NewAggregator()
	require.NoError(t, ag.Add(analyzeYAML(t, `{a: {b: {c: 1}}}`)))

	master := ag.Schema().Elements[0].(*Entity)
	ag.scopeOf(master).relations["b"] = 3

	err := ag.Add(analyzeYAML(t, `{a: {b: {c: 2}}}`))
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.Contains(t, err.Error(), `"b"`)
}

func TestSchema_LookupPath(t *testing.T) {
	schema, err := Aggregate(analyzeCorpus(t, corpus)...)
	require.NoError(t, err)

	el, ok := schema.LookupPath("info.outcome.winner")
	require.True(t, ok)
	assert.Equal(t, 2, el.Count())

	el, ok = schema.LookupPath("innings.deliveries")
	require.True(t, ok)
	assert.Equal(t, ShapeList, el.(*Entity).Shape)

	_, ok = schema.LookupPath("info.city.more")
	assert.False(t, ok)
	_, ok = schema.LookupPath("")
	assert.False(t, ok)
	_, ok = schema.LookupPath("nope")
	assert.False(t, ok)
}

func TestSchema_LookupPath_DottedNames(t *testing.T) {
	schema, err := Aggregate(
		analyzeYAML(t, `{"a.b": 1}`),
		analyzeYAML(t, `{a: {b: x}}`),
	)
	require.NoError(t, err)

	el, ok := schema.LookupPath(`a\.b`)
	require.True(t, ok)
	assert.Equal(t, &Attribute{Name: "a.b", DataType: TypeNumber, Occurrences: 1}, el)

	el, ok = schema.LookupPath("a.b")
	require.True(t, ok)
	assert.Equal(t, &Attribute{Name: "b", DataType: TypeString, Occurrences: 1}, el)
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		names []string
		path  string
	}{
		{[]string{"info", "city"}, "info.city"},
		{[]string{"deliveries", "0.1"}, `deliveries.0\.1`},
		{[]string{`a\b`, "c"}, `a\\b.c`},
		{[]string{"", "x"}, ".x"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.path, JoinPath(tt.names...))
			assert.Equal(t, tt.names, SplitPath(tt.path))
		})
	}
}

func TestCanonicalPath_KeepsStrayEscapes(t *testing.T) {
	assert.Equal(t, []string{`a\b`}, SplitPath(`a\b`))
	assert.Equal(t, `a\\b`, CanonicalPath(`a\b`))
	assert.Equal(t, []string{`a\`}, SplitPath(`a\`))
}

func TestSchema_Clone(t *testing.T) {
	schema, err := Aggregate(analyzeCorpus(t, corpus)...)
	require.NoError(t, err)

	c := schema.Clone()
	assert.Equal(t, schema, c)

	c.Elements[0].(*Entity).Attributes[0].Occurrences = 99
	assert.NotEqual(t, 99, schema.Elements[0].(*Entity).Attributes[0].Occurrences)
}
