package catalog

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/dredger/internal/corpus"
	"github.com/usestring/dredger/pkg/dredge"
)

func result(target string) *corpus.Result {
	return &corpus.Result{Target: target, Schema: &dredge.Schema{}}
}

func TestRunStore_StoreAndGet(t *testing.T) {
	s := NewRunStore(4)
	opts := corpus.Options{Lists: []string{"innings"}}

	run := s.Store(opts, result("a"))
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)

	got, ok := s.Get(run.ID)
	require.True(t, ok)
	assert.Same(t, run, got)
	assert.Equal(t, "a", got.Result.Target)
	assert.Equal(t, []string{"innings"}, got.Options.Lists)
	assert.False(t, got.CreatedAt.IsZero())

	_, ok = s.Get("unknown")
	assert.False(t, ok)
}

func TestRunStore_EvictsOldest(t *testing.T) {
	s := NewRunStore(2)

	first := s.Store(corpus.Options{}, result("a"))
	second := s.Store(corpus.Options{}, result("b"))
	third := s.Store(corpus.Options{}, result("c"))

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get(first.ID)
	assert.False(t, ok)
	_, ok = s.Get(second.ID)
	assert.True(t, ok)
	_, ok = s.Get(third.ID)
	assert.True(t, ok)
}

func TestRunStore_NonPositiveCapacityKeepsLatest(t *testing.T) {
	s := NewRunStore(0)
	s.Store(corpus.Options{}, result("a"))
	last := s.Store(corpus.Options{}, result("b"))

	assert.Equal(t, 1, s.Len())
	_, ok := s.Get(last.ID)
	assert.True(t, ok)
}

func TestRunStore_ConcurrentUse(t *testing.T) {
	s := NewRunStore(8)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run := s.Store(corpus.Options{}, result("x"))
			s.Get(run.ID)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
}
