package indexer

import (
	"github.com/usestring/dredger/pkg/dredge"
)

// ElementPath is one element of a document's schema forest.
type ElementPath struct {
	Path     string
	DataType dredge.DataType // empty for entities
}

// ElementPaths flattens a forest into element paths, joined by
// dredge.JoinPath, in visiting order.
// A path is reported once even if it names both an attribute and a relation.
func ElementPaths(forest []dredge.Element) []ElementPath {
	var out []ElementPath
	seen := make(map[ElementPath]bool)

	_ = dredge.Walk(forest, func(path []string, el dredge.Element) error {
		ep := ElementPath{Path: dredge.JoinPath(path...)}
		if a, ok := el.(*dredge.Attribute); ok {
			ep.DataType = a.DataType
		}
		if !seen[ep] {
			seen[ep] = true
			out = append(out, ep)
		}
		return nil
	})

	return out
}
