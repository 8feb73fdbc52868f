package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/dredger/internal/mcp/tools"
)

// AddTool registers a tool the way the builtin dredger tools are registered.
// At startup it rejects output types whose zero value fails the SDK's
// inferred schema, that hold json.RawMessage, or that contain themselves.
// At call time, errors without a code are reported as INTERNAL.
//
// Use this instead of [sdkmcp.AddTool] to get the additional checks.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
