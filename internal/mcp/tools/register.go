package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	// Tool 1: dredger_infer_schema
	AddTool(srv, &sdkmcp.Tool{
		Name:        "dredger_infer_schema",
		Description: "Infer the aggregate schema of a YAML or JSON corpus. target is a file or a directory walked recursively. lists names the keys whose values are collections of records (e.g. innings, deliveries). select is an optional jq expression; each value it yields is analysed as one document. Returns {run_id, summary: {files, documents, skipped}, schema: [{path, kind, shape, data_type, occurrences, ratio}], hint}. Pass run_id to find_documents or export_jsonschema.",
	}, ToolInferSchema(d))

	// Tool 2: dredger_find_documents
	AddTool(srv, &sdkmcp.Tool{
		Name:        "dredger_find_documents",
		Description: "List the documents of a run that contain an element path (e.g. info.outcome.winner), or lack it when missing=true. For attributes, data_type narrows to documents where the value had that type, which explains variant attributes. Requires run_id from infer_schema.",
	}, ToolFindDocuments(d))

	// Tool 3: dredger_export_jsonschema
	AddTool(srv, &sdkmcp.Tool{
		Name:        "dredger_export_jsonschema",
		Description: "Export the schema of a run as JSON Schema (draft 2020-12). Properties seen in every document of their parent are required. Requires run_id from infer_schema.",
	}, ToolExportJSONSchema(d))
}
