// Package ingestion orchestrates a batch of source documents through
// deduplication, cached extraction, and the embedding cache boundary.
//
// For each file the Orchestrator:
//   - hashes the content once
//   - skips it if the hash is already in the dedup history (unless forced)
//   - serves the extraction from cache, or runs the fallback strategy and
//     caches the result
//   - looks up the embedding cache and, when an embedder is configured,
//     embeds and caches on a miss
//   - registers the hash in the dedup history, cache hit or not
//
// A failure in one file is recorded in the batch result and the batch moves
// on. Only an unusable source directory fails the whole call.
package ingestion
