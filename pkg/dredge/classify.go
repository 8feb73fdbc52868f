package dredge

import (
	"encoding/json"
	"time"

	"github.com/usestring/dredger/pkg/document"
)

// Classify returns the data type of a scalar node. Maps and lists have no
// scalar type and classify as TypeVariant.
func Classify(n document.Node) DataType {
	switch v := n.(type) {
	case nil:
		return TypeNull
	case *document.Scalar:
		if v == nil {
			return TypeNull
		}
		return ClassifyValue(v.Value)
	}
	return TypeVariant
}

// ClassifyValue returns the data type of a plain scalar value. Values of
// unknown Go types fall back to TypeVariant.
func ClassifyValue(v any) DataType {
	switch v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return TypeNumber
	case string:
		return TypeString
	case time.Time:
		return TypeDate
	default:
		return TypeVariant
	}
}

// ClassifySequence folds item types into one: the first item's type while
// every item agrees, TypeVariant from the first disagreement on. An empty
// sequence is TypeNull.
func ClassifySequence(types []DataType) DataType {
	if len(types) == 0 {
		return TypeNull
	}

	result := types[0]
	for _, t := range types[1:] {
		if t != result {
			return TypeVariant
		}
	}
	return result
}

// ClassifyList applies ClassifySequence to the items of a list.
func ClassifyList(l *document.List) DataType {
	if l == nil {
		return TypeNull
	}

	types := make([]DataType, len(l.Items))
	for i, item := range l.Items {
		types[i] = Classify(item)
	}
	return ClassifySequence(types)
}
