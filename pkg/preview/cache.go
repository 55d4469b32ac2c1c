package preview

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/symbolgraph/pkg/observability"
)

const cacheName = "pages"

// Page is a rendered response body
type Page struct {
	ContentType string
	Body        []byte
}

// PageCache keeps rendered pages in an expiring LRU
type PageCache struct {
	cache   *lru.LRU[string, *Page]
	metrics *observability.Metrics

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats is a snapshot of cache counters
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	ItemCount int     `json:"item_count"`
	HitRate   float64 `json:"hit_rate"`
}

// NewPageCache creates a cache of at most size pages, each kept for ttl.
// A zero ttl keeps pages until evicted or invalidated.
func NewPageCache(size int, ttl time.Duration, metrics *observability.Metrics) *PageCache {
	if size < 1 {
		size = 1
	}
	return &PageCache{
		cache:   lru.NewLRU[string, *Page](size, nil, ttl),
		metrics: metrics,
	}
}

// Get returns the cached page for key
func (c *PageCache) Get(key string) (*Page, bool) {
	page, ok := c.cache.Get(key)
	if !ok {
		c.misses.Add(1)
		if c.metrics != nil {
			c.metrics.RecordCacheMiss(cacheName)
		}
		return nil, false
	}

	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheHit(cacheName)
	}
	return page, true
}

// Add stores page under key
func (c *PageCache) Add(key string, page *Page) {
	c.cache.Add(key, page)
}

// Invalidate drops every cached page
func (c *PageCache) Invalidate() {
	c.cache.Purge()
}

// Stats returns cache statistics
func (c *PageCache) Stats() CacheStats {
	stats := CacheStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		ItemCount: c.cache.Len(),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
