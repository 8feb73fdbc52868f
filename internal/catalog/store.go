// Package catalog keeps completed inference runs so later tool calls can
// refer to them by ID.
package catalog

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/usestring/dredger/internal/corpus"
)

// RunStore holds completed runs for reference by the find and export tools.
// Once full, storing a run evicts the oldest one.
type RunStore struct {
	mu      sync.RWMutex
	maxRuns int
	runs    map[string]*StoredRun // keyed by run ID
	order   []string              // run IDs, oldest first
}

// StoredRun holds one run and the options it was made with.
type StoredRun struct {
	ID        string
	Options   corpus.Options
	Result    *corpus.Result
	CreatedAt time.Time
}

// NewRunStore creates a RunStore keeping at most maxRuns runs.
func NewRunStore(maxRuns int) *RunStore {
	if maxRuns <= 0 {
		maxRuns = 1
	}
	return &RunStore{
		maxRuns: maxRuns,
		runs:    make(map[string]*StoredRun),
	}
}

// Store records a run and returns it with a fresh ID.
func (s *RunStore) Store(opts corpus.Options, res *corpus.Result) *StoredRun {
	run := &StoredRun{
		ID:        uuid.NewString(),
		Options:   opts,
		Result:    res,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.order) >= s.maxRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	return run
}

// Get retrieves a run by ID.
func (s *RunStore) Get(id string) (*StoredRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok
}

// Len returns the number of stored runs.
func (s *RunStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
