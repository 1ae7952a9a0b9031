package storage

import (
	"context"

	"github.com/poiesic/docingest/core"
)

// HistoryRepository persists the dedup history table.
// The table is always loaded and saved as a whole; there is no append log.
// Implementations are not required to be safe for concurrent writers across
// processes: single-writer discipline is assumed.
type HistoryRepository interface {
	// LoadHistory returns the full hash -> record table.
	// Returns an empty map when nothing has been saved yet.
	// Returns an error wrapping core.ErrHistoryCorrupt if the table is unreadable.
	LoadHistory(ctx context.Context) (map[string]*core.ContentRecord, error)

	// SaveHistory replaces the persisted table with records.
	SaveHistory(ctx context.Context, records map[string]*core.ContentRecord) error

	// Close releases resources held by the repository.
	Close() error
}
