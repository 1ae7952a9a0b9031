package cache

// EmbeddingCache stores vectors keyed by content hash and embedding model.
// Switching models yields new keys, so stale vectors are never served.
type EmbeddingCache struct {
	cache *TieredCache[[]float32]
}

// NewEmbeddingCache creates an EmbeddingCache.
func NewEmbeddingCache(cfg Config, opts ...Option) (*EmbeddingCache, error) {
	if cfg.Name == "" {
		cfg.Name = EmbeddingName
	}
	c, err := New[[]float32](cfg, VectorCodec{}, opts...)
	if err != nil {
		return nil, err
	}
	return &EmbeddingCache{cache: c}, nil
}

// EmbeddingKey derives the cache key for a vector.
func EmbeddingKey(contentHash, model string) string {
	return DeriveKey("embedding", contentHash, model)
}

// Get returns the cached vector.
func (c *EmbeddingCache) Get(contentHash, model string) ([]float32, bool) {
	return c.cache.Get(EmbeddingKey(contentHash, model))
}

// Set stores a vector.
func (c *EmbeddingCache) Set(contentHash, model string, vector []float32) error {
	return c.cache.Set(EmbeddingKey(contentHash, model), vector)
}

// Has reports whether a live vector is cached, without touching counters.
func (c *EmbeddingCache) Has(contentHash, model string) bool {
	return c.cache.Exists(EmbeddingKey(contentHash, model))
}

// GetOrCompute returns the cached vector or computes and stores it.
// The bool reports a cache hit.
func (c *EmbeddingCache) GetOrCompute(contentHash, model string, compute func() ([]float32, error)) ([]float32, bool, error) {
	return c.cache.GetOrLoad(EmbeddingKey(contentHash, model), compute)
}

// Delete drops a vector.
func (c *EmbeddingCache) Delete(contentHash, model string) bool {
	return c.cache.Delete(EmbeddingKey(contentHash, model))
}

// Name implements Maintainer.
func (c *EmbeddingCache) Name() string { return c.cache.Name() }

// Stats implements Maintainer.
func (c *EmbeddingCache) Stats() Stats { return c.cache.Stats() }

// Clear implements Maintainer.
func (c *EmbeddingCache) Clear() int { return c.cache.Clear() }

// CleanupExpired implements Maintainer.
func (c *EmbeddingCache) CleanupExpired() int { return c.cache.CleanupExpired() }
