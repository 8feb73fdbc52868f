package tools

import (
	"github.com/usestring/dredger/internal/catalog"
	"github.com/usestring/dredger/internal/config"
	"github.com/usestring/dredger/internal/corpus"
	"github.com/usestring/dredger/internal/query"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config  *config.Config
	Runner  *corpus.Runner
	Runs    *catalog.RunStore
	Queries *query.Engine
}

// Run retrieves a stored run by ID.
func (d *Deps) Run(runID string) (*catalog.StoredRun, error) {
	if runID == "" {
		return nil, ErrInvalidInput("run_id is required")
	}
	run, ok := d.Runs.Get(runID)
	if !ok {
		return nil, ErrNotFound("run", runID)
	}
	return run, nil
}
