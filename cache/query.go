package cache

import (
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/docingest/core"
)

// QueryCache stores search results keyed by normalized query, filters, and
// result count.
type QueryCache struct {
	cache *TieredCache[[]core.SearchHit]
	now   func() time.Time
}

// NewQueryCache creates a QueryCache.
func NewQueryCache(cfg Config, opts ...Option) (*QueryCache, error) {
	if cfg.Name == "" {
		cfg.Name = QueryName
	}
	c, err := New[[]core.SearchHit](cfg, JSONCodec[[]core.SearchHit]{}, opts...)
	if err != nil {
		return nil, err
	}
	return &QueryCache{cache: c, now: c.now}, nil
}

// NormalizeQuery lowercases q and collapses runs of whitespace.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// QueryKey derives the cache key for a query.
func QueryKey(query string, filters map[string]string, k int) string {
	return DeriveKey("query", NormalizeQuery(query), strings.Join(sortedPairs(filters), "\x00"), strconv.Itoa(k))
}

// Get returns cached hits for the query.
func (c *QueryCache) Get(query string, filters map[string]string, k int) ([]core.SearchHit, bool) {
	return c.cache.Get(QueryKey(query, filters, k))
}

// Set stores hits for the query.
func (c *QueryCache) Set(query string, filters map[string]string, k int, hits []core.SearchHit) error {
	return c.cache.Set(QueryKey(query, filters, k), hits)
}

// InvalidateByAge removes entries created more than maxAgeHours ago.
func (c *QueryCache) InvalidateByAge(maxAgeHours float64) int {
	cutoff := c.now().Add(-time.Duration(maxAgeHours * float64(time.Hour)))
	return c.cache.DeleteWhere(func(_ string, meta EntryMeta) bool {
		return meta.Created.Before(cutoff)
	})
}

// InvalidateBySource clears the whole cache. Query results carry no record
// of which documents they came from, so any change to doc may affect any
// entry.
func (c *QueryCache) InvalidateBySource(doc string) int {
	n := c.cache.Clear()
	c.cache.logger.Info("query cache invalidated by source update", "source", doc, "entries", n)
	return n
}

// Name implements Maintainer.
func (c *QueryCache) Name() string { return c.cache.Name() }

// Stats implements Maintainer.
func (c *QueryCache) Stats() Stats { return c.cache.Stats() }

// Clear implements Maintainer.
func (c *QueryCache) Clear() int { return c.cache.Clear() }

// CleanupExpired implements Maintainer.
func (c *QueryCache) CleanupExpired() int { return c.cache.CleanupExpired() }
