package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRU is a bounded, concurrency-safe least-recently-used cache with hit
// accounting.
type LRU[V any] struct {
	inner  *lru.Cache[string, V]
	hits   atomic.Int64
	misses atomic.Int64
}

func NewLRU[V any](size int) (*LRU[V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("lru cache size must be positive, got %d", size)
	}
	inner, err := lru.New[string, V](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &LRU[V]{inner: inner}, nil
}

func (c *LRU[V]) Get(key string) (V, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

func (c *LRU[V]) Add(key string, value V) {
	c.inner.Add(key, value)
}

func (c *LRU[V]) Remove(key string) {
	c.inner.Remove(key)
}

func (c *LRU[V]) Len() int {
	return c.inner.Len()
}

func (c *LRU[V]) Purge() {
	c.inner.Purge()
}

type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

func (c *LRU[V]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.inner.Len()}
}
