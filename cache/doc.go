// Package cache provides a disk-persisted tiered cache with per-entry TTL
// and LRU eviction, plus the three specialized caches used during
// ingestion.
//
// # Layout
//
// Each cache owns one directory. Every entry is one payload file named by
// its key, and index.json maps key -> {created, accessed, ttl_hours,
// size_bytes}. Recency for LRU eviction lives in the index, not in file
// timestamps. An in-memory LRU sits in front of the disk tier.
//
// # Specialized caches
//
//   - ExtractionCache: content hash + engine identity + options, 7 days
//   - EmbeddingCache: content hash + model, 30 days, MUS-encoded vectors
//   - QueryCache: normalized query + filters + k, 24 hours
//
// # Failure handling
//
// A payload that cannot be decoded is deleted and reported as a miss. A
// payload missing from disk is pruned from the index on the next read. An
// unreadable index is logged and the cache starts empty. A cache with
// Enabled=false does nothing and always misses.
//
// # Concurrency
//
// A cache is safe for concurrent use within one process. Processes sharing
// a directory race last-writer-wins, which is acceptable for derived data.
package cache
