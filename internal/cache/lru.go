// Package cache provides caching utilities for document analysis.
package cache

import (
	"fmt"
	"os"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/usestring/dredger/pkg/dredge"
)

// Key identifies one analysis of one file. A file that changes size or
// modification time, or is analysed with different options, gets a new key.
type Key struct {
	Path    string
	Size    int64
	ModTime time.Time
	Options string
}

// KeyFor builds the key for a file's current state.
func KeyFor(path string, info os.FileInfo, options ...string) Key {
	return Key{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Options: strings.Join(options, "\x00"),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d|%s", k.Path, k.Size, k.ModTime.UnixNano(), k.Options)
}

// Fragments are the analysed documents of one file, one forest per document.
type Fragments [][]dredge.Element

// FragmentCache provides thread-safe LRU caching of per-file analysis
// results. Cached forests must be treated as read-only; the aggregator
// copies what it adopts.
type FragmentCache struct {
	cache *lru.Cache[string, Fragments]
}

// NewFragmentCache creates a new LRU cache with the specified maximum number of items.
func NewFragmentCache(maxItems int) (*FragmentCache, error) {
	c, err := lru.New[string, Fragments](maxItems)
	if err != nil {
		return nil, err
	}
	return &FragmentCache{cache: c}, nil
}

// Get retrieves the fragments stored under key.
// Returns the fragments and true if found, nil and false otherwise.
func (c *FragmentCache) Get(key Key) (Fragments, bool) {
	return c.cache.Get(key.String())
}

// Put adds or updates fragments in the cache.
func (c *FragmentCache) Put(key Key, fragments Fragments) {
	c.cache.Add(key.String(), fragments)
}

// Len returns the current number of items in the cache.
func (c *FragmentCache) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *FragmentCache) Purge() {
	c.cache.Purge()
}
