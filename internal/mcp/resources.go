package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/dredger/internal/mcp/tools"
	"github.com/usestring/dredger/pkg/jsonschema"
	"github.com/usestring/dredger/pkg/types"
)

// Resource URI scheme: dredger://
// Supported URIs:
//   dredger://run/{run_id}/schema
//   dredger://run/{run_id}/jsonschema

const uriScheme = "dredger://"

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "dredger://run/{run_id}/schema",
		Name:        "Run Schema",
		Description: "Full aggregate schema of a run as a nested tree with counts. The infer_schema tool already returns the same elements as flat rows; fetch this for the nested form.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceSchema)

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: "dredger://run/{run_id}/jsonschema",
		Name:        "Run JSON Schema",
		Description: "JSON Schema (draft 2020-12) of a run with default export options.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceJSONSchema)
}

// Resource handlers

func (s *Server) handleResourceSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	runID, view, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if view != "schema" {
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unexpected resource view: %s", view))
	}

	run, err := s.deps.Run(runID)
	if err != nil {
		return nil, err
	}
	return toResourceResult(req.Params.URI, types.NewSchemaView(run.Result.Schema))
}

func (s *Server) handleResourceJSONSchema(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	runID, view, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}
	if view != "jsonschema" {
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unexpected resource view: %s", view))
	}

	run, err := s.deps.Run(runID)
	if err != nil {
		return nil, err
	}
	return toResourceResult(req.Params.URI, jsonschema.Export(run.Result.Schema))
}

// parseResourceURI splits dredger://run/{run_id}/{view}.
func parseResourceURI(uri string) (runID, view string, err error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return "", "", tools.ErrInvalidInput(fmt.Sprintf("invalid URI scheme: %s", uri))
	}

	parts := strings.Split(strings.TrimPrefix(uri, uriScheme), "/")
	if len(parts) != 3 || parts[0] != "run" || parts[1] == "" || parts[2] == "" {
		return "", "", tools.ErrInvalidInput(fmt.Sprintf("run URI requires run ID and view: %s", uri))
	}
	return parts[1], parts[2], nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
