package ingestion

import "errors"

var (
	// ErrDeduplicatorRequired is returned when a deduplicator is not provided.
	ErrDeduplicatorRequired = errors.New("deduplicator required")

	// ErrExtractorRequired is returned when an extractor is not provided.
	ErrExtractorRequired = errors.New("extractor required")

	// ErrExtractionCacheRequired is returned when an extraction cache is not provided.
	ErrExtractionCacheRequired = errors.New("extraction cache required")

	// ErrSourceDir is returned when the source directory cannot be walked.
	ErrSourceDir = errors.New("source directory unusable")
)
