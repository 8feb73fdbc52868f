package mcpsrv

import (
	"github.com/usestring/dredger/internal/cache"
	"github.com/usestring/dredger/internal/catalog"
	"github.com/usestring/dredger/internal/config"
	"github.com/usestring/dredger/internal/corpus"
	"github.com/usestring/dredger/internal/query"
)

// Deps contains all dependencies available to custom tools.
// This gives custom tools access to the same infrastructure as builtin tools.
type Deps struct {
	Config  *config.Config
	Cache   *cache.FragmentCache
	Runner  *corpus.Runner
	Runs    *catalog.RunStore
	Queries *query.Engine
}
