package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/docingest/cache"
	"github.com/poiesic/docingest/fallback"
)

// Extractor produces an extraction for a file. *fallback.Strategy is the
// standard implementation.
type Extractor interface {
	Extract(ctx context.Context, path string) (*fallback.Outcome, error)

	// Identity names the engine set, used in extraction cache keys.
	Identity() string
}

// extractionProcessor serves extractions from cache or runs the extractor.
type extractionProcessor struct {
	extractor Extractor
	cache     *cache.ExtractionCache
	options   map[string]string
	logger    *slog.Logger
}

var _ processor = (*extractionProcessor)(nil)

func newExtractionProcessor(extractor Extractor, c *cache.ExtractionCache, options map[string]string, logger *slog.Logger) *extractionProcessor {
	return &extractionProcessor{
		extractor: extractor,
		cache:     c,
		options:   options,
		logger:    logger.With("processor", "extraction"),
	}
}

func (ep *extractionProcessor) process(ctx context.Context, it *item) error {
	identity := ep.extractor.Identity()
	if result, ok := ep.cache.Get(it.doc.ContentHash, identity, ep.options); ok {
		it.doc.Result = result
		it.doc.ExtractionCacheHit = true
		ep.logger.Debug("extraction cache hit", "name", it.doc.Name)
		return nil
	}

	outcome, err := ep.extractor.Extract(ctx, it.path)
	if err != nil {
		return err
	}
	if outcome == nil || outcome.Result == nil {
		return fmt.Errorf("extractor returned no result for %s", it.doc.Name)
	}
	it.doc.Result = outcome.Result
	ep.logger.Debug("extracted", "name", it.doc.Name, "engine", outcome.Engine,
		"score", outcome.Score.Total, "accepted", outcome.Accepted, "attempts", outcome.Attempts)

	// Cache write failures do not fail the file.
	if err := ep.cache.Set(it.doc.ContentHash, identity, ep.options, outcome.Result); err != nil {
		ep.logger.Warn("failed to cache extraction", "name", it.doc.Name, "err", err)
	}
	return nil
}
