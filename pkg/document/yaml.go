package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

const mergeKey = "<<"

// DecodeYAML parses a YAML stream and returns one node per document in the
// stream. Empty documents are skipped.
//
// Key order is preserved, aliases are resolved and merge keys are expanded.
// Unquoted timestamps such as 2017-04-05 become time.Time scalars.
func DecodeYAML(data []byte) ([]Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []Node
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		if isEmptyDocument(&root) {
			continue
		}

		n, err := fromYAML(&root)
		if err != nil {
			return nil, fmt.Errorf("convert YAML document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, n)
	}

	return docs, nil
}

// isEmptyDocument reports documents with no content, such as a trailing
// "---" separator. The parser represents those as an empty plain scalar.
func isEmptyDocument(root *yaml.Node) bool {
	if root.Kind != yaml.DocumentNode {
		return false
	}
	if len(root.Content) == 0 {
		return true
	}
	n := root.Content[0]
	return n.Kind == yaml.ScalarNode && n.Value == "" && n.Style == 0 && n.ShortTag() == "!!null"
}

// FromYAMLNode converts an already parsed yaml.v3 node tree.
func FromYAMLNode(n *yaml.Node) (Node, error) {
	if n == nil {
		return Null(), nil
	}
	return fromYAML(n)
}

func fromYAML(n *yaml.Node) (Node, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return fromYAML(n.Content[0])

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: unresolved alias %q", n.Line, n.Value)
		}
		return fromYAML(n.Alias)

	case yaml.MappingNode:
		return mappingFromYAML(n)

	case yaml.SequenceNode:
		items := make([]Node, 0, len(n.Content))
		for _, child := range n.Content {
			item, err := fromYAML(child)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return NewList(items...), nil

	case yaml.ScalarNode:
		return scalarFromYAML(n)

	default:
		return nil, fmt.Errorf("line %d: unexpected YAML node kind %d", n.Line, n.Kind)
	}
}

func mappingFromYAML(n *yaml.Node) (*Map, error) {
	m := NewMap()

	for i := 0; i+1 < len(n.Content); i += 2 {
		keyNode, valueNode := n.Content[i], n.Content[i+1]

		if isMergeKey(keyNode) {
			if err := mergeInto(m, valueNode); err != nil {
				return nil, err
			}
			continue
		}

		key, err := keyName(keyNode)
		if err != nil {
			return nil, err
		}
		value, err := fromYAML(valueNode)
		if err != nil {
			return nil, err
		}
		m.Set(key, value)
	}

	return m, nil
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Value == mergeKey && n.ShortTag() == "!!merge"
}

// mergeInto copies entries of the merged mapping(s) that m does not define yet.
// Keys set explicitly later in the mapping still override through Set.
func mergeInto(m *Map, n *yaml.Node) error {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	switch n.Kind {
	case yaml.MappingNode:
		merged, err := mappingFromYAML(n)
		if err != nil {
			return err
		}
		for key, value := range merged.All() {
			if !m.Has(key) {
				m.Set(key, value)
			}
		}
		return nil
	case yaml.SequenceNode:
		for _, child := range n.Content {
			if err := mergeInto(m, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("line %d: merge key value must be a mapping or a sequence of mappings", n.Line)
	}
}

func keyName(n *yaml.Node) (string, error) {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}

	key, err := fromYAML(n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v", ToValue(key)), nil
}

func scalarFromYAML(n *yaml.Node) (*Scalar, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil

	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return NewScalar(b), nil

	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return NewScalar(i), nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			return NewScalar(u), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return NewScalar(f), nil

	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return NewScalar(f), nil

	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			// Not a timestamp yaml.v3 can parse; keep the text.
			return NewScalar(n.Value), nil
		}
		return NewScalar(t), nil

	default:
		return NewScalar(n.Value), nil
	}
}
