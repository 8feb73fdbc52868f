package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/dredger/internal/cache"
	"github.com/usestring/dredger/internal/catalog"
	"github.com/usestring/dredger/internal/config"
	"github.com/usestring/dredger/internal/corpus"
	"github.com/usestring/dredger/internal/logging"
	"github.com/usestring/dredger/internal/mcp"
	"github.com/usestring/dredger/internal/mcp/tools"
	"github.com/usestring/dredger/internal/query"
)

// DefaultVersion is reported to clients unless WithVersion says otherwise.
const DefaultVersion = "dev"

// Server is the dredger MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin dredger tools.
//
// Configuration comes from DREDGER_* environment variables (or the viper
// instance given with WithSettings); the remaining options override it.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{version: DefaultVersion}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.settings == nil {
		cfg.settings = config.New()
	}

	appCfg, err := config.Load(cfg.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.lists != nil {
		appCfg.Lists = cfg.lists
	}
	if cfg.maxRuns > 0 {
		appCfg.MaxRuns = cfg.maxRuns
	}

	// Setup logging
	logCfg := logging.FromConfig(appCfg)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	// Create infrastructure
	fragmentCache, err := cache.NewFragmentCache(appCfg.CacheMaxItems)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create fragment cache: %w", err)
	}

	deps := &Deps{
		Config:  appCfg,
		Cache:   fragmentCache,
		Runner:  corpus.NewRunner(fragmentCache),
		Runs:    catalog.NewRunStore(appCfg.MaxRuns),
		Queries: query.NewEngine(),
	}
	toolDeps := &tools.Deps{
		Config:  deps.Config,
		Runner:  deps.Runner,
		Runs:    deps.Runs,
		Queries: deps.Queries,
	}

	// Build internal server options
	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}

	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.promptRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.resourceRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}

	// Tools that need Deps access
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(toolDeps, cfg.version, internalOpts...)
	if err != nil {
		_ = logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	slog.Debug("mcp server configured",
		slog.Any("lists", appCfg.Lists),
		slog.Int("workers", appCfg.Workers),
		slog.Int("max_runs", appCfg.MaxRuns),
	)

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport.
// The server runs until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
