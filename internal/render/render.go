// Package render writes aggregate schemas for people and programs.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/dredger/pkg/dredge"
	"github.com/usestring/dredger/pkg/jsonschema"
	"github.com/usestring/dredger/pkg/types"
)

// Marker prefixes nested lines, once per level.
const Marker = "--"

var printer = message.NewPrinter(language.English)

// Text writes the schema as an indented outline. Entities print as
// "name * count", their attributes as "-- name (type) count" and nested
// relations one marker deeper. Each line ends with the share of documents
// the element was seen in.
func Text(w io.Writer, s *dredge.Schema) error {
	tw := &textWriter{w: w, documents: s.Documents}

	tw.printf("%d documents\n", s.Documents)
	for _, el := range s.Elements {
		switch v := el.(type) {
		case *dredge.Entity:
			tw.entity(v, "")
		case *dredge.Attribute:
			tw.printf(" %s (%s) %d%s\n", v.Name, v.DataType, v.Occurrences, tw.share(v.Occurrences))
		}
	}
	return tw.err
}

type textWriter struct {
	w         io.Writer
	documents int
	err       error
}

func (tw *textWriter) printf(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = printer.Fprintf(tw.w, format, args...)
}

func (tw *textWriter) entity(e *dredge.Entity, indent string) {
	tw.printf("%s %s * %d%s\n", indent, e.Name, e.Occurrences, tw.share(e.Occurrences))
	for _, a := range e.Attributes {
		tw.printf("%s%s %s (%s) %d%s\n", Marker, indent, a.Name, a.DataType, a.Occurrences, tw.share(a.Occurrences))
	}
	for _, r := range e.Relations {
		tw.entity(r, Marker+indent)
	}
}

func (tw *textWriter) share(count int) string {
	if tw.documents == 0 {
		return ""
	}
	return printer.Sprintf(" (%.0f%%)", 100*types.Ratio(count, tw.documents))
}

// JSON writes the schema as indented JSON.
func JSON(w io.Writer, s *dredge.Schema) error {
	return writeJSON(w, types.NewSchemaView(s))
}

// JSONSchema writes a JSON Schema that accepts the documents the schema was
// inferred from.
func JSONSchema(w io.Writer, s *dredge.Schema) error {
	return writeJSON(w, jsonschema.Export(s))
}

// Skipped writes one line per skipped file or document.
func Skipped(w io.Writer, skipped []types.SkippedFile) error {
	var b strings.Builder
	for _, s := range skipped {
		if s.Document < 0 {
			fmt.Fprintf(&b, "skipped %s: %s\n", s.Path, s.Reason)
		} else {
			fmt.Fprintf(&b, "skipped %s document %d: %s\n", s.Path, s.Document, s.Reason)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
