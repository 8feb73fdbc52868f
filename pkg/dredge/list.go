package dredge

import (
	"github.com/usestring/dredger/pkg/document"
)

// synthesizeList builds one entity describing every item of a designated
// list. It carries a value attribute typed string, then every attribute and
// relation found on any item. The first item to contribute a name wins; later
// items with the same name change neither type nor count.
func (a *Analyzer) synthesizeList(name string, value document.Node) *Entity {
	result := NewEntity(name, ShapeList)
	result.Attributes = append(result.Attributes, NewAttribute(ValueAttribute, TypeString))

	seenAttributes := map[string]struct{}{ValueAttribute: {}}
	seenRelations := map[string]struct{}{}

	for _, item := range listItems(value) {
		itemEntity := a.itemEntity(item)
		if itemEntity == nil {
			continue
		}

		for _, att := range itemEntity.Attributes {
			if _, ok := seenAttributes[att.Name]; ok {
				continue
			}
			seenAttributes[att.Name] = struct{}{}
			result.Attributes = append(result.Attributes, att)
		}

		for _, rel := range itemEntity.Relations {
			if _, ok := seenRelations[rel.Name]; ok {
				continue
			}
			seenRelations[rel.Name] = struct{}{}
			result.Relations = append(result.Relations, rel)
		}
	}

	return result
}

// listItems returns the items of a designated list's value. A map
// contributes its values; a scalar contributes nothing.
func listItems(value document.Node) []document.Node {
	switch v := value.(type) {
	case *document.List:
		if v == nil {
			return nil
		}
		return v.Items
	case *document.Map:
		return v.Values()
	default:
		return nil
	}
}

// itemEntity returns the entity one list item contributes.
//
// Items shaped like "- 1st innings: {...}" wrap their record in a single key;
// the item's first fragment is then an entity and it is used alone. Flat
// records such as "- {id: 1}" have an attribute first and contribute all of
// their fragments. Items that are not maps contribute nothing. A flat record
// whose first field is a map reads as a wrapped item, and its other fields
// are dropped.
func (a *Analyzer) itemEntity(item document.Node) *Entity {
	m, ok := item.(*document.Map)
	if !ok || m == nil {
		return nil
	}

	fragments := a.fragments(m)
	if len(fragments) == 0 {
		return nil
	}
	if e, ok := fragments[0].(*Entity); ok {
		return e
	}

	record := NewEntity("", ShapeObject)
	for _, el := range fragments {
		record.add(el)
	}
	return record
}
