package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking that its output type can be
// described and validated by the SDK, and wraps the handler so that every
// error it returns carries a code.
//
// Panics if the output type fails CheckOutputSchema.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, withCodedErrors(h))
}

// withCodedErrors turns uncoded handler errors into INTERNAL errors.
// Cancellation passes through untouched.
func withCodedErrors[In, Out any](h sdkmcp.ToolHandlerFor[In, Out]) sdkmcp.ToolHandlerFor[In, Out] {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input In) (*sdkmcp.CallToolResult, Out, error) {
		res, out, err := h(ctx, req, input)
		if err == nil || errors.Is(err, context.Canceled) {
			return res, out, err
		}
		var coded *CodedError
		if errors.As(err, &coded) {
			return res, out, err
		}
		return res, out, &CodedError{Code: ErrCodeInternal, Message: "tool failed", Cause: err}
	}
}

// CheckOutputSchema panics when the output type T would fail at runtime:
//
//   - a nil slice marshals as null while the inferred schema says array;
//     add omitzero to the field or initialize it.
//   - json.RawMessage is inferred as an array of bytes but marshals as
//     arbitrary JSON; use any and types.ToAny.
//   - a type that contains itself cannot be inferred; flatten it into rows
//     the way types.SchemaRow flattens a schema tree.
//
// The untyped any output is accepted as is.
func CheckOutputSchema[T any](toolName string) {
	rt := reflect.TypeFor[T]()
	if rt == reflect.TypeFor[any]() {
		return
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	w := &typeWalker{visiting: make(map[reflect.Type]bool)}
	w.walk(rt, nil)

	if len(w.rawMessages) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s contains json.RawMessage at %s\n"+
				"  Fix: change the field type to any and fill it with types.ToAny",
			toolName, rt, strings.Join(w.rawMessages, ", "),
		))
	}
	if len(w.recursive) > 0 {
		panic(fmt.Sprintf(
			"AddTool %q: output type %s is recursive at %s\n"+
				"  Fix: flatten the tree into a list of rows with paths",
			toolName, rt, strings.Join(w.recursive, ", "),
		))
	}

	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return // the SDK reports inference failures itself
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return
	}
	var zero map[string]any
	if err := json.Unmarshal(data, &zero); err != nil {
		return
	}

	if err := resolved.Validate(&zero); err != nil {
		panic(fmt.Sprintf(
			"AddTool %q: zero value of output type %s fails schema validation: %v\n"+
				"  JSON: %s\n"+
				"  Fix: add `omitzero` to nil-defaulting slice fields, or initialize them to empty slices",
			toolName, rt, err, data,
		))
	}
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// typeWalker collects the field paths of an output type that hold
// json.RawMessage or lead back to a type being visited.
type typeWalker struct {
	visiting    map[reflect.Type]bool
	rawMessages []string
	recursive   []string
}

func (w *typeWalker) walk(t reflect.Type, path []string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == rawMessageType {
		w.rawMessages = append(w.rawMessages, strings.Join(path, "."))
		return
	}
	if w.visiting[t] {
		w.recursive = append(w.recursive, strings.Join(path, "."))
		return
	}

	switch t.Kind() {
	case reflect.Struct:
		w.visiting[t] = true
		defer delete(w.visiting, t)
		for i := range t.NumField() {
			f := t.Field(i)
			if f.IsExported() {
				w.walk(f.Type, append(path, f.Name))
			}
		}
	case reflect.Slice, reflect.Array:
		w.walk(t.Elem(), append(path, "[]"))
	case reflect.Map:
		w.walk(t.Elem(), append(path, "[value]"))
	}
}
