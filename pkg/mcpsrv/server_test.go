package mcpsrv

import (
	"context"
	"path/filepath"
	"testing"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/dredger/internal/config"
)

type countInput struct{}

type countOutput struct {
	Runs int `json:"runs"`
}

func TestNewServer_AppliesOverrides(t *testing.T) {
	v := config.New()
	v.Set(config.KeyWorkers, 3)

	var built *Deps
	srv, err := NewServer(
		WithSettings(v),
		WithVersion("1.2.3"),
		WithLogFile(filepath.Join(t.TempDir(), "dredger.log")),
		WithLists("innings", "deliveries"),
		WithMaxRuns(7),
		WithDepsTool(&mcp.Tool{Name: "count_runs", Description: "Count stored runs"},
			func(d *Deps) func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, countOutput, error) {
				built = d
				return func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, countOutput, error) {
					return nil, countOutput{Runs: d.Runs.Len()}, nil
				}
			}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	d := srv.Deps()
	assert.Same(t, d, built)
	assert.Equal(t, []string{"innings", "deliveries"}, d.Config.Lists)
	assert.Equal(t, 7, d.Config.MaxRuns)
	assert.Equal(t, 3, d.Config.Workers)
	assert.NotNil(t, d.Runner)
	assert.NotNil(t, d.Cache)
	assert.NotNil(t, srv.MCPServer())
}

func TestNewServer_InvalidSettings(t *testing.T) {
	v := config.New()
	v.Set(config.KeyFormat, "xml")

	_, err := NewServer(WithSettings(v))
	assert.Error(t, err)
}

func TestAddTool_PanicsOnNilSlice(t *testing.T) {
	type badOutput struct {
		Items []string `json:"items"`
	}
	srv := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	assert.Panics(t, func() {
		AddTool(srv, &mcp.Tool{Name: "bad"}, func(context.Context, *mcp.CallToolRequest, countInput) (*mcp.CallToolResult, badOutput, error) {
			return nil, badOutput{}, nil
		})
	})
}
