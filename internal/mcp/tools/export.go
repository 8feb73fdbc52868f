package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/dredger/pkg/jsonschema"
	"github.com/usestring/dredger/pkg/types"
)

// ExportJSONSchemaInput is the input for dredger_export_jsonschema.
type ExportJSONSchemaInput struct {
	RunID                string `json:"run_id" jsonschema:"Run ID from infer_schema"`
	Title                string `json:"title,omitempty" jsonschema:"Title of the root schema"`
	AdditionalProperties *bool  `json:"additional_properties,omitempty" jsonschema:"Set additionalProperties on every object (default: unset)"`
}

// ToolExportJSONSchema exports the schema of a stored run as JSON Schema.
func ToolExportJSONSchema(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportJSONSchemaInput) (*sdkmcp.CallToolResult, types.ExportJSONSchemaOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExportJSONSchemaInput) (*sdkmcp.CallToolResult, types.ExportJSONSchemaOutput, error) {
		run, err := d.Run(input.RunID)
		if err != nil {
			return nil, types.ExportJSONSchemaOutput{}, err
		}

		opts := jsonschema.DefaultExportOptions()
		opts.Title = input.Title
		opts.AdditionalProperties = input.AdditionalProperties

		schema, err := types.ToAny(jsonschema.ExportWithOptions(opts, run.Result.Schema))
		if err != nil {
			return nil, types.ExportJSONSchemaOutput{}, fmt.Errorf("serializing schema: %w", err)
		}

		return nil, types.ExportJSONSchemaOutput{RunID: run.ID, Schema: schema}, nil
	}
}
