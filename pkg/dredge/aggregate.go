package dredge

// Aggregator folds per-document forests into one Schema.
//
// Elements are matched by name at every level. Matched attributes have
// their counts summed; matched entities have their counts summed and their
// attributes and relations merged recursively. Unmatched elements are
// appended, so element order is first-seen order. Inputs are never
// modified: adopted subtrees are copied.
//
// An Aggregator is not safe for concurrent use.
type Aggregator struct {
	schema *Schema
	top    map[string]int
	scopes map[*Entity]*scope
}

// scope indexes an entity's attributes and relations by name.
type scope struct {
	attributes map[string]int
	relations  map[string]int
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		schema: &Schema{Elements: []Element{}},
		top:    make(map[string]int),
		scopes: make(map[*Entity]*scope),
	}
}

// Aggregate folds the forests of several documents into one schema.
func Aggregate(forests ...[]Element) (*Schema, error) {
	ag := NewAggregator()
	for _, forest := range forests {
		if err := ag.Add(forest); err != nil {
			return nil, err
		}
	}
	return ag.Schema(), nil
}

// Schema returns the aggregate built so far. It stays owned by the
// aggregator and changes with further calls to Add and Merge.
func (ag *Aggregator) Schema() *Schema {
	return ag.schema
}

// Add folds the forest of one document into the aggregate.
func (ag *Aggregator) Add(forest []Element) error {
	ag.schema.Documents++
	return ag.fold(forest)
}

// Merge folds a partial aggregate into this one. Aggregating documents in
// groups and merging the groups yields the same counts as adding them one
// by one.
func (ag *Aggregator) Merge(other *Schema) error {
	if other == nil {
		return nil
	}
	ag.schema.Documents += other.Documents
	return ag.fold(other.Elements)
}

func (ag *Aggregator) fold(forest []Element) error {
	for _, item := range forest {
		if item == nil {
			continue
		}
		if err := ag.addTop(item); err != nil {
			return err
		}
	}
	return nil
}

func (ag *Aggregator) addTop(item Element) error {
	name := item.ElementName()

	i, ok := ag.top[name]
	if !ok {
		ag.top[name] = len(ag.schema.Elements)
		ag.schema.Elements = append(ag.schema.Elements, CloneElement(item))
		return nil
	}
	if i < 0 || i >= len(ag.schema.Elements) || ag.schema.Elements[i].ElementName() != name {
		return errInvariant("top-level index for %q points at position %d of %d", name, i, len(ag.schema.Elements))
	}

	switch master := ag.schema.Elements[i].(type) {
	case *Attribute:
		switch it := item.(type) {
		case *Attribute:
			mergeAttribute(master, it)
		case *Entity:
			// The entity wins; the scalar observations become its value.
			promoted := it.Clone()
			ag.schema.Elements[i] = promoted
			return ag.absorb(promoted, master)
		}
	case *Entity:
		switch it := item.(type) {
		case *Entity:
			return ag.mergeEntity(master, it)
		case *Attribute:
			return ag.absorb(master, it)
		}
	}
	return nil
}

// absorb folds a scalar observation of an entity's name into the entity's
// value attribute.
func (ag *Aggregator) absorb(e *Entity, a *Attribute) error {
	e.Occurrences += a.Occurrences
	value := &Attribute{Name: ValueAttribute, DataType: a.DataType, Occurrences: a.Occurrences}
	return ag.mergeAttributeInto(e, ag.scopeOf(e), value)
}

type entityPair struct {
	master *Entity
	item   *Entity
}

// mergeEntity merges item into master using an explicit work-list, so the
// depth of the documents does not bound the Go stack.
func (ag *Aggregator) mergeEntity(master, item *Entity) error {
	work := []entityPair{{master: master, item: item}}

	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		p.master.Occurrences += p.item.Occurrences
		sc := ag.scopeOf(p.master)

		for _, att := range p.item.Attributes {
			if err := ag.mergeAttributeInto(p.master, sc, att); err != nil {
				return err
			}
		}

		for _, rel := range p.item.Relations {
			j, ok := sc.relations[rel.Name]
			if !ok {
				sc.relations[rel.Name] = len(p.master.Relations)
				p.master.Relations = append(p.master.Relations, rel.Clone())
				continue
			}
			if j < 0 || j >= len(p.master.Relations) || p.master.Relations[j].Name != rel.Name {
				return errInvariant("relation index for %q in entity %q points at position %d of %d",
					rel.Name, p.master.Name, j, len(p.master.Relations))
			}
			work = append(work, entityPair{master: p.master.Relations[j], item: rel})
		}
	}

	return nil
}

func (ag *Aggregator) mergeAttributeInto(e *Entity, sc *scope, att *Attribute) error {
	j, ok := sc.attributes[att.Name]
	if !ok {
		sc.attributes[att.Name] = len(e.Attributes)
		e.Attributes = append(e.Attributes, att.Clone())
		return nil
	}
	if j < 0 || j >= len(e.Attributes) || e.Attributes[j].Name != att.Name {
		return errInvariant("attribute index for %q in entity %q points at position %d of %d",
			att.Name, e.Name, j, len(e.Attributes))
	}
	mergeAttribute(e.Attributes[j], att)
	return nil
}

// mergeAttribute sums counts. Disagreeing types make the attribute variant.
func mergeAttribute(master, item *Attribute) {
	master.Occurrences += item.Occurrences
	if master.DataType != item.DataType {
		master.DataType = TypeVariant
	}
}

// scopeOf returns the name index of an entity owned by the aggregate,
// building it on first use.
func (ag *Aggregator) scopeOf(e *Entity) *scope {
	if sc, ok := ag.scopes[e]; ok {
		return sc
	}

	sc := &scope{
		attributes: make(map[string]int, len(e.Attributes)),
		relations:  make(map[string]int, len(e.Relations)),
	}
	for i, a := range e.Attributes {
		if _, dup := sc.attributes[a.Name]; !dup {
			sc.attributes[a.Name] = i
		}
	}
	for i, r := range e.Relations {
		if _, dup := sc.relations[r.Name]; !dup {
			sc.relations[r.Name] = i
		}
	}
	ag.scopes[e] = sc
	return sc
}
