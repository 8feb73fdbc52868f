package tools

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/dredger/internal/config"
	"github.com/usestring/dredger/internal/corpus"
	"github.com/usestring/dredger/pkg/types"
)

// InferSchemaInput is the input for dredger_infer_schema.
type InferSchemaInput struct {
	Target     string   `json:"target" jsonschema:"File or directory to analyse"`
	Lists      []string `json:"lists,omitempty" jsonschema:"Keys whose values are collections of records (default: configured lists)"`
	Select     string   `json:"select,omitempty" jsonschema:"jq expression selecting the records to analyse inside each document"`
	Extensions []string `json:"extensions,omitempty" jsonschema:"File extensions read when walking a directory (default: .yaml, .yml, .json)"`
}

// ToolInferSchema runs inference over a corpus and stores the run.
func ToolInferSchema(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferSchemaInput) (*sdkmcp.CallToolResult, types.InferSchemaOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferSchemaInput) (*sdkmcp.CallToolResult, types.InferSchemaOutput, error) {
		opts, err := d.inferOptions(input)
		if err != nil {
			return nil, types.InferSchemaOutput{}, err
		}

		res, err := d.Runner.Run(ctx, input.Target, opts)
		if err != nil {
			return nil, types.InferSchemaOutput{}, WrapRunError(input.Target, err)
		}
		run := d.Runs.Store(opts, res)

		output := types.InferSchemaOutput{
			RunID:   run.ID,
			Summary: res.Summary(),
			Schema:  types.SchemaRows(res.Schema),
			Hint:    fmt.Sprintf("Use dredger_find_documents(run_id=%q, path=...) to see which documents carry an element.", run.ID),
		}
		if res.Schema.Documents == 0 {
			output.Hint = "No documents were analysed. Check the target, extensions and select expression."
		}
		return nil, output, nil
	}
}

func (d *Deps) inferOptions(input InferSchemaInput) (corpus.Options, error) {
	target := strings.TrimSpace(input.Target)
	if target == "" {
		return corpus.Options{}, ErrInvalidInput("target is required")
	}

	sel := strings.TrimSpace(input.Select)
	if sel == "" {
		sel = d.Config.Select
	}
	if sel != "" {
		if err := d.Queries.ValidateExpression(sel); err != nil {
			return corpus.Options{}, ErrInvalidInput(err.Error())
		}
	}

	return corpus.Options{
		Lists:      orDefault(input.Lists, d.Config.Lists),
		Extensions: config.NormalizeExtensions(orDefault(input.Extensions, d.Config.Extensions)),
		Select:     sel,
		Workers:    d.Config.Workers,
	}, nil
}
