// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dedup

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// Deduplicator answers "has this content been processed before?".
type Deduplicator struct {
	repo    storage.HistoryRepository
	mu      sync.Mutex
	history map[string]*core.ContentRecord
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(d *Deduplicator) error {
		if now == nil {
			return errors.New("clock must not be nil")
		}
		d.now = now
		return nil
	}
}

// New creates a Deduplicator and loads the history from repo.
// An unreadable history is logged and treated as empty.
func New(repo storage.HistoryRepository, opts ...Option) (*Deduplicator, error) {
	if repo == nil {
		return nil, ErrHistoryRepositoryRequired
	}

	d := &Deduplicator{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "dedup")

	history, err := repo.LoadHistory(context.Background())
	if err != nil {
		if !errors.Is(err, core.ErrHistoryCorrupt) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		d.logger.Warn("history unreadable, starting empty", "err", err)
		history = nil
	}
	if history == nil {
		history = make(map[string]*core.ContentRecord)
	}
	d.history = history
	d.logger.Debug("history loaded", "entries", len(history))
	return d, nil
}

// IsDuplicate reports whether the content at path has been registered,
// returning the original name it was registered under. Read failures
// yield (false, "").
func (d *Deduplicator) IsDuplicate(ctx context.Context, path string) (bool, string) {
	hash, err := ComputeHash(path)
	if err != nil {
		d.logger.Debug("duplicate check skipped", "path", path, "err", err)
		return false, ""
	}
	return d.IsDuplicateHash(hash)
}

// IsDuplicateHash is IsDuplicate for an already computed content hash.
func (d *Deduplicator) IsDuplicateHash(hash string) (bool, string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.history[hash]
	if !ok {
		return false, ""
	}
	return true, record.OriginalName
}

// Register hashes the file at path and stores or overwrites its history
// entry. The whole table is persisted before returning.
func (d *Deduplicator) Register(ctx context.Context, path string, metadata map[string]any) (string, error) {
	hash, err := ComputeHash(path)
	if err != nil {
		return "", err
	}
	if err := d.RegisterHash(ctx, path, hash, metadata); err != nil {
		return "", err
	}
	return hash, nil
}

// RegisterHash is Register for an already computed content hash.
func (d *Deduplicator) RegisterHash(ctx context.Context, path, hash string, metadata map[string]any) error {
	if err := core.ValidateContentHash(hash); err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	record := &core.ContentRecord{
		ContentHash:   hash,
		OriginalName:  filepath.Base(path),
		AbsolutePath:  absPath,
		SizeBytes:     info.Size(),
		ProcessedAt:   d.now(),
		ExtraMetadata: metadata,
	}
	if err := core.ValidateContentRecord(record); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	previous, existed := d.history[hash]
	d.history[hash] = record
	if err := d.repo.SaveHistory(ctx, d.history); err != nil {
		if existed {
			d.history[hash] = previous
		} else {
			delete(d.history, hash)
		}
		return fmt.Errorf("failed to persist history: %w", err)
	}

	d.logger.Debug("registered", "hash", hash, "name", record.OriginalName)
	return nil
}

// Unregister removes the history entry for the content at path so it will
// be processed again. Reports whether an entry was removed.
func (d *Deduplicator) Unregister(ctx context.Context, path string) (bool, error) {
	hash, err := ComputeHash(path)
	if err != nil {
		return false, err
	}
	return d.UnregisterHash(ctx, hash)
}

// UnregisterHash removes the history entry for hash.
func (d *Deduplicator) UnregisterHash(ctx context.Context, hash string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	previous, ok := d.history[hash]
	if !ok {
		return false, nil
	}
	delete(d.history, hash)
	if err := d.repo.SaveHistory(ctx, d.history); err != nil {
		d.history[hash] = previous
		return false, fmt.Errorf("failed to persist history: %w", err)
	}
	return true, nil
}

// Lookup returns a copy of the history entry for hash.
func (d *Deduplicator) Lookup(hash string) (*core.ContentRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.history[hash]
	if !ok {
		return nil, false
	}
	clone := *record
	clone.ExtraMetadata = maps.Clone(record.ExtraMetadata)
	return &clone, true
}

// Records returns copies of all history entries, oldest first.
func (d *Deduplicator) Records() []*core.ContentRecord {
	d.mu.Lock()
	records := make([]*core.ContentRecord, 0, len(d.history))
	for _, record := range d.history {
		clone := *record
		clone.ExtraMetadata = maps.Clone(record.ExtraMetadata)
		records = append(records, &clone)
	}
	d.mu.Unlock()

	slices.SortFunc(records, func(a, b *core.ContentRecord) int {
		if c := a.ProcessedAt.Compare(b.ProcessedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ContentHash, b.ContentHash)
	})
	return records
}

// Len returns the number of history entries.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.history)
}
