// Package reembed warms the embedding cache for content that has already
// been ingested.
//
// It walks the dedup history, takes each document's cached extraction, and
// embeds the ones that have no vector for the configured model yet. Use it
// after switching embedding models, or after ingesting with embeddings
// disabled.
//
// The package also holds the helpers shared with ingestion: progress
// reporting, retry with exponential backoff, embedding input preparation
// and vector normalization.
package reembed
