package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// QueryEmbeddings keeps query vectors keyed by the exact query string for
// a fixed TTL.
type QueryEmbeddings struct {
	cache *gocache.Cache
}

func NewQueryEmbeddings(ttl time.Duration) *QueryEmbeddings {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &QueryEmbeddings{cache: gocache.New(ttl, 2*ttl)}
}

func (c *QueryEmbeddings) Get(query string) ([]float32, bool) {
	if v, ok := c.cache.Get(query); ok {
		return v.([]float32), true
	}
	return nil, false
}

func (c *QueryEmbeddings) Set(query string, vector []float32) {
	if len(vector) == 0 {
		return
	}
	c.cache.SetDefault(query, vector)
}

func (c *QueryEmbeddings) Len() int {
	return c.cache.ItemCount()
}
