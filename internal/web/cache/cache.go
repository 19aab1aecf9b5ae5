// Package cache memoizes decoded wire queries. Decoding is pure for a
// given schema, so a query string always decodes to the same immutable
// IR and can be shared between requests.
package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/conduit-lang/wirequery/internal/query/ir"
)

// DefaultSize is the number of decoded queries kept when no size is
// configured
const DefaultSize = 256

// ParseCache is a bounded, thread-safe LRU of decoded queries
type ParseCache struct {
	entries *lru.Cache
	hits    atomic.Int64
	misses  atomic.Int64
}

// Stats reports cache effectiveness
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// New creates a cache holding at most size queries. A size of zero or less
// uses DefaultSize.
func New(size int) (*ParseCache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create parse cache: %w", err)
	}
	return &ParseCache{entries: entries}, nil
}

// Get returns the query cached under key
func (c *ParseCache) Get(key string) (*ir.Query, bool) {
	v, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return v.(*ir.Query), true
}

// Add caches q under key, evicting the least recently used entry when full
func (c *ParseCache) Add(key string, q *ir.Query) {
	c.entries.Add(key, q)
}

// GetOrDecode returns the cached query for key or decodes, caches and
// returns it. Decode errors are not cached.
func (c *ParseCache) GetOrDecode(key string, decode func() (*ir.Query, error)) (*ir.Query, error) {
	if q, ok := c.Get(key); ok {
		return q, nil
	}
	q, err := decode()
	if err != nil {
		return nil, err
	}
	c.Add(key, q)
	return q, nil
}

// Purge drops every entry
func (c *ParseCache) Purge() {
	c.entries.Purge()
}

// Stats returns a snapshot of the counters
func (c *ParseCache) Stats() Stats {
	return Stats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
