package reembed

import (
	"context"
)

const (
	// DefaultBatchSize is the default number of documents per embedding call
	DefaultBatchSize = 32
)

// Item is one document waiting for a vector.
type Item struct {
	ContentHash string
	Name        string
	Text        string
}

// ItemIterator walks a list of items in fixed-size batches.
type ItemIterator struct {
	items     []Item
	batchSize int
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items per batch (values <= 0 use DefaultBatchSize)
func NewItemIterator(items []Item, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ItemIterator{items: items, batchSize: batchSize}
}

// Len returns the number of items.
func (it *ItemIterator) Len() int {
	return len(it.items)
}

// ForEach calls fn for each batch.
// Iteration stops on first error from fn or when all items are processed.
// Context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]Item) error) error {
	for i := 0; i < len(it.items); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+it.batchSize, len(it.items))
		if err := fn(it.items[i:end]); err != nil {
			return err
		}
	}
	return ctx.Err()
}
