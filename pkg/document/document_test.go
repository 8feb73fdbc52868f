package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap_KeepsInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("zeta", NewScalar(1))
	m.Set("alpha", NewScalar(2))
	m.Set("mid", NewScalar(3))
	m.Set("zeta", NewScalar(4))

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 4, v.(*Scalar).Value)
}

func TestDecodeYAML_Shapes(t *testing.T) {
	data := []byte(`
info:
  city: Bangalore
  dates:
    - 2017-04-05
  overs: 20
  neutral: false
  umpire: ~
innings:
  - 1st innings:
      team: Sunrisers
`)

	docs, err := DecodeYAML(data)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	root, ok := docs[0].(*Map)
	require.True(t, ok)
	assert.Equal(t, []string{"info", "innings"}, root.Keys())

	infoNode, _ := root.Get("info")
	info := infoNode.(*Map)
	assert.Equal(t, []string{"city", "dates", "overs", "neutral", "umpire"}, info.Keys())

	city, _ := info.Get("city")
	assert.Equal(t, "Bangalore", city.(*Scalar).Value)

	dates, _ := info.Get("dates")
	require.Equal(t, KindList, dates.Kind())
	first := dates.(*List).Items[0].(*Scalar)
	ts, ok := first.Time()
	require.True(t, ok)
	assert.Equal(t, time.Date(2017, 4, 5, 0, 0, 0, 0, time.UTC), ts)

	overs, _ := info.Get("overs")
	assert.Equal(t, int64(20), overs.(*Scalar).Value)

	neutral, _ := info.Get("neutral")
	assert.Equal(t, false, neutral.(*Scalar).Value)

	umpire, _ := info.Get("umpire")
	assert.True(t, umpire.(*Scalar).IsNull())
}

func TestDecodeYAML_QuotedDateStaysString(t *testing.T) {
	docs, err := DecodeYAML([]byte(`when: "2017-04-05"`))
	require.NoError(t, err)

	when, _ := docs[0].(*Map).Get("when")
	assert.Equal(t, "2017-04-05", when.(*Scalar).Value)
}

func TestDecodeYAML_MultipleDocuments(t *testing.T) {
	docs, err := DecodeYAML([]byte("a: 1\n---\nb: 2\n---\n"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, []string{"a"}, docs[0].(*Map).Keys())
	assert.Equal(t, []string{"b"}, docs[1].(*Map).Keys())
}

func TestDecodeYAML_AliasesAndMergeKeys(t *testing.T) {
	data := []byte(`
base: &base
  team: India
  venue: Delhi
match:
  <<: *base
  venue: Mumbai
  extra: 1
copy: *base
`)
	docs, err := DecodeYAML(data)
	require.NoError(t, err)

	root := docs[0].(*Map)
	matchNode, _ := root.Get("match")
	match := matchNode.(*Map)
	assert.Equal(t, []string{"team", "venue", "extra"}, match.Keys())

	venue, _ := match.Get("venue")
	assert.Equal(t, "Mumbai", venue.(*Scalar).Value)

	copyNode, _ := root.Get("copy")
	assert.Equal(t, []string{"team", "venue"}, copyNode.(*Map).Keys())
}

func TestDecodeYAML_NonStringKeys(t *testing.T) {
	docs, err := DecodeYAML([]byte("1: one\ntrue: yes\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "true"}, docs[0].(*Map).Keys())
}

func TestDecodeYAML_Invalid(t *testing.T) {
	_, err := DecodeYAML([]byte("a: [1, 2\n"))
	assert.Error(t, err)
}

func TestDecodeJSON_PreservesOrderAndNumbers(t *testing.T) {
	n, err := DecodeJSON([]byte(`{"z": 1, "a": 2.5, "m": [true, null, "x"], "o": {}}`))
	require.NoError(t, err)

	m := n.(*Map)
	assert.Equal(t, []string{"z", "a", "m", "o"}, m.Keys())

	z, _ := m.Get("z")
	assert.Equal(t, int64(1), z.(*Scalar).Value)

	a, _ := m.Get("a")
	assert.Equal(t, 2.5, a.(*Scalar).Value)

	list, _ := m.Get("m")
	items := list.(*List).Items
	require.Len(t, items, 3)
	assert.Equal(t, true, items[0].(*Scalar).Value)
	assert.True(t, items[1].(*Scalar).IsNull())
	assert.Equal(t, "x", items[2].(*Scalar).Value)

	o, _ := m.Get("o")
	assert.Equal(t, 0, o.(*Map).Len())
}

func TestDecodeJSON_Errors(t *testing.T) {
	_, err := DecodeJSON([]byte(`{"a": `))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`{"a": 1} {"b": 2}`))
	assert.Error(t, err)
}

func TestFromValue_SortsPlainMapKeys(t *testing.T) {
	n := FromValue(map[string]any{
		"b": []any{1, "two"},
		"a": map[string]any{"y": nil, "x": true},
	})

	m := n.(*Map)
	assert.Equal(t, []string{"a", "b"}, m.Keys())

	inner, _ := m.Get("a")
	assert.Equal(t, []string{"x", "y"}, inner.(*Map).Keys())

	list, _ := m.Get("b")
	assert.Equal(t, 2, list.(*List).Len())
}

func TestFromValue_TypedCollections(t *testing.T) {
	n := FromValue(map[string]any{"tags": []string{"a", "b"}})
	tags, _ := n.(*Map).Get("tags")
	require.Equal(t, KindList, tags.Kind())
	assert.Equal(t, 2, tags.(*List).Len())
}

func TestToValue_RoundTripsPlainValues(t *testing.T) {
	when := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	m := NewMap()
	m.Set("n", NewScalar(int64(7)))
	m.Set("when", NewScalar(when))
	m.Set("list", NewList(NewScalar("a"), Null()))

	v := ToValue(m).(map[string]any)
	assert.Equal(t, 7, v["n"])
	assert.Equal(t, "2020-01-02T03:04:05Z", v["when"])
	assert.Equal(t, []any{"a", nil}, v["list"])
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "map", KindMap.String())
	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "scalar", KindScalar.String())
}
