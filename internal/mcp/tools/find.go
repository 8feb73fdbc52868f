package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/dredger/pkg/dredge"
	"github.com/usestring/dredger/pkg/types"
)

// FindDocumentsInput is the input for dredger_find_documents.
type FindDocumentsInput struct {
	RunID    string `json:"run_id" jsonschema:"Run ID from infer_schema"`
	Path     string `json:"path" jsonschema:"Element path as listed by infer_schema, e.g. info.outcome.winner; a dot inside a name is written \\."`
	Missing  bool   `json:"missing,omitempty" jsonschema:"List the documents lacking the element instead"`
	DataType string `json:"data_type,omitempty" jsonschema:"Attributes only: number, string, boolean, date or null"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Max documents to return (default: 50, max: 500)"`
}

var dataTypes = []dredge.DataType{
	dredge.TypeNumber, dredge.TypeString, dredge.TypeBoolean,
	dredge.TypeDate, dredge.TypeNull, dredge.TypeVariant,
}

// ToolFindDocuments lists the documents of a run that carry an element.
func ToolFindDocuments(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input FindDocumentsInput) (*sdkmcp.CallToolResult, types.FindDocumentsOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input FindDocumentsInput) (*sdkmcp.CallToolResult, types.FindDocumentsOutput, error) {
		run, err := d.Run(input.RunID)
		if err != nil {
			return nil, types.FindDocumentsOutput{}, err
		}

		path := strings.TrimSpace(input.Path)
		if path == "" {
			return nil, types.FindDocumentsOutput{}, ErrInvalidInput("path is required")
		}
		path = dredge.CanonicalPath(path)
		el, ok := run.Result.Schema.LookupPath(path)
		if !ok {
			return nil, types.FindDocumentsOutput{}, ErrNotFound("element", path)
		}
		attr, isAttr := el.(*dredge.Attribute)

		idx := run.Result.Index
		var bm *roaring.Bitmap
		switch dt := dredge.DataType(input.DataType); {
		case dt == "":
			bm = idx.Present(path)
		case !isAttr:
			return nil, types.FindDocumentsOutput{}, ErrInvalidInput(fmt.Sprintf("%s is an entity; data_type applies to attributes", path))
		case !slices.Contains(dataTypes, dt):
			return nil, types.FindDocumentsOutput{}, ErrInvalidInput(fmt.Sprintf("unknown data_type %q", input.DataType))
		default:
			bm = idx.WithType(path, dt)
		}
		if input.Missing {
			all := idx.AllDocIDs()
			all.AndNot(bm)
			bm = all
		}

		limit := input.Limit
		if limit <= 0 {
			limit = defaultFindLimit
		}
		if limit > maxFindLimit {
			limit = maxFindLimit
		}

		output := types.FindDocumentsOutput{
			RunID:    run.ID,
			Path:     path,
			Missing:  input.Missing,
			DataType: input.DataType,
			Total:    int(bm.GetCardinality()),
		}
		for _, meta := range idx.Metas(bm) {
			if len(output.Documents) == limit {
				output.Truncated = true
				break
			}
			output.Documents = append(output.Documents, types.DocumentRef{File: meta.File, Position: meta.Position})
		}

		if isAttr {
			counts := idx.TypesOf(path)
			for _, dt := range dataTypes {
				if n, ok := counts[dt]; ok {
					output.Types = append(output.Types, types.TypeCount{DataType: string(dt), Documents: int(n)})
				}
			}
			if output.DataType == "" && attr.DataType != dredge.TypeVariant {
				output.DataType = string(attr.DataType)
			}
		}

		return nil, output, nil
	}
}
