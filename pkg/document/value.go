package document

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"time"
)

// FromValue converts plain Go values into a node tree. Maps become *Map with
// keys sorted, since Go maps carry no order. Values that already are nodes
// are returned as is.
func FromValue(v any) Node {
	switch val := v.(type) {
	case nil:
		return Null()
	case Node:
		return val
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromValue(val[k]))
		}
		return m
	case []any:
		items := make([]Node, 0, len(val))
		for _, item := range val {
			items = append(items, FromValue(item))
		}
		return NewList(items...)
	case bool, string, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return NewScalar(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		return FromValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		items := make([]Node, 0, rv.Len())
		for i := range rv.Len() {
			items = append(items, FromValue(rv.Index(i).Interface()))
		}
		return NewList(items...)
	case reflect.Map:
		named := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			named[fmt.Sprintf("%v", iter.Key().Interface())] = iter.Value().Interface()
		}
		return FromValue(named)
	default:
		return NewScalar(v)
	}
}

// ToValue converts a node tree into plain values: map[string]any, []any,
// and scalars. Timestamps become RFC 3339 strings and integers become int
// where they fit, which is the value space jq and JSON Schema validators
// work with.
func ToValue(n Node) any {
	switch node := n.(type) {
	case *Map:
		out := make(map[string]any, node.Len())
		for k, v := range node.All() {
			out[k] = ToValue(v)
		}
		return out
	case *List:
		out := make([]any, len(node.Items))
		for i, item := range node.Items {
			out[i] = ToValue(item)
		}
		return out
	case *Scalar:
		return scalarValue(node)
	default:
		return nil
	}
}

func scalarValue(s *Scalar) any {
	if s == nil {
		return nil
	}

	switch v := s.Value.(type) {
	case time.Time:
		return v.Format(time.RFC3339)
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		if v >= math.MinInt && v <= math.MaxInt {
			return int(v)
		}
		return float64(v)
	case uint:
		if uint64(v) <= math.MaxInt {
			return int(v)
		}
		return float64(v)
	case uint8:
		return int(v)
	case uint16:
		return int(v)
	case uint32:
		return int(v)
	case uint64:
		if v <= math.MaxInt {
			return int(v)
		}
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}
