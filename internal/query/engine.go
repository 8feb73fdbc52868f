// Package query provides JQ-based record selection over parsed documents.
package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/dredger/pkg/document"
)

// Engine compiles JQ selectors.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Selector picks records out of a document. Each non-null value the
// expression yields becomes one document of its own.
//
// Expressions that are paths (".matches[]", ".info.outcome") select the
// original nodes, so key order is kept. Other expressions are evaluated on
// plain values and their results converted back, which sorts map keys.
type Selector struct {
	expression string
	values     *gojq.Code
	paths      *gojq.Code
}

// Compile parses and compiles expression.
func (e *Engine) Compile(expression string) (*Selector, error) {
	values, err := compile(expression)
	if err != nil {
		return nil, err
	}

	// path() rejects expressions that build new values; those run in value
	// mode only.
	paths, err := compile("path(" + expression + ")")
	if err != nil {
		paths = nil
	}

	return &Selector{expression: expression, values: values, paths: paths}, nil
}

// Expression returns the source expression.
func (s *Selector) Expression() string {
	return s.expression
}

// Select runs the selector against doc.
func (s *Selector) Select(doc document.Node) ([]document.Node, error) {
	input := document.ToValue(doc)

	if s.paths != nil {
		if nodes, ok := s.selectPaths(doc, input); ok {
			return nodes, nil
		}
	}
	return s.selectValues(input)
}

func (s *Selector) selectPaths(doc document.Node, input any) ([]document.Node, bool) {
	out := make([]document.Node, 0)
	iter := s.paths.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if _, isErr := v.(error); isErr {
			return nil, false
		}

		path, isPath := v.([]any)
		if !isPath {
			return nil, false
		}
		node, ok := resolve(doc, path)
		if !ok {
			return nil, false
		}
		if isNull(node) {
			continue
		}
		out = append(out, node)
	}
	return out, true
}

func (s *Selector) selectValues(input any) ([]document.Node, error) {
	out := make([]document.Node, 0)
	iter := s.values.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, errors.New(formatJQError("select", err))
		}

		// Skip nil values
		if v == nil {
			continue
		}
		out = append(out, document.FromValue(v))
	}
	return out, nil
}

// resolve follows a JQ path through the node tree. Keys that are absent
// resolve to null, as they do in JQ.
func resolve(n document.Node, path []any) (document.Node, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := n.(*document.Map)
			if !ok {
				if isNull(n) {
					return nil, true
				}
				return nil, false
			}
			n, _ = m.Get(key)
		case int:
			l, ok := n.(*document.List)
			if !ok {
				if isNull(n) {
					return nil, true
				}
				return nil, false
			}
			if key < 0 {
				key += len(l.Items)
			}
			if key < 0 || key >= len(l.Items) {
				return nil, true
			}
			n = l.Items[key]
		default:
			// Slices and other non-index steps.
			return nil, false
		}
	}
	return n, true
}

func isNull(n document.Node) bool {
	if n == nil {
		return true
	}
	s, ok := n.(*document.Scalar)
	return ok && s.IsNull()
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		var parseErr *gojq.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("invalid jq expression at position %d: %w", parseErr.Offset, err)
		}
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	return code, nil
}

// formatJQError creates a helpful error message for JQ execution errors.
// It adds contextual hints to help users fix common issues.
//
// Runtime JQ errors (like "cannot iterate over: null") are plain errors
// without typed wrappers in gojq, so hints are chosen by string matching.
func formatJQError(label string, err error) string {
	var haltErr *gojq.HaltError
	if errors.As(err, &haltErr) {
		if haltErr.Value() == nil {
			return fmt.Sprintf("%s: query halted", label)
		}
		return fmt.Sprintf("%s: query halted with: %v", label, haltErr.Value())
	}

	errStr := err.Error()

	var hint string
	switch {
	case strings.Contains(errStr, "cannot iterate over: null"):
		hint = " (the path may not exist in this document)"
	case strings.Contains(errStr, "cannot index") && strings.Contains(errStr, "with"):
		hint = " (field not found or wrong type)"
	case strings.Contains(errStr, "object") && strings.Contains(errStr, "cannot be iterated"):
		hint = " (expected array but got object, try '.[]' on its values or 'to_entries')"
	case strings.Contains(errStr, "array") && strings.Contains(errStr, "cannot be indexed"):
		hint = " (expected object but got array, try adding '[]')"
	}

	return fmt.Sprintf("%s: %s%s", label, errStr, hint)
}

// ValidateExpression checks if a JQ expression is valid without executing it.
func (e *Engine) ValidateExpression(expression string) error {
	_, err := compile(expression)
	return err
}
