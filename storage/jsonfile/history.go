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

// Package jsonfile stores the dedup history as a single JSON table file.
package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// HistoryRepository implements storage.HistoryRepository on one JSON file.
// Saves write a temp file in the same directory and rename it over the
// table, so a crash never leaves a half-written file behind.
type HistoryRepository struct {
	path   string
	mu     sync.Mutex
	closed bool
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// Open returns a repository backed by the file at path.
// The parent directory is created if needed; the file itself is created on
// the first save.
func Open(path string) (*HistoryRepository, error) {
	if path == "" {
		return nil, storage.ErrPathRequired
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	return &HistoryRepository{path: path}, nil
}

// Path returns the table file location.
func (r *HistoryRepository) Path() string {
	return r.path
}

// LoadHistory reads the table file. A missing file is an empty history.
func (r *HistoryRepository) LoadHistory(ctx context.Context) (map[string]*core.ContentRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, storage.ErrHistoryClosed
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]*core.ContentRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	records, err := storage.UnmarshalHistory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrHistoryCorrupt, r.path, err)
	}
	return records, nil
}

// SaveHistory rewrites the whole table.
func (r *HistoryRepository) SaveHistory(ctx context.Context, records map[string]*core.ContentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return storage.ErrHistoryClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := storage.MarshalHistory(records)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".history-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

// Close marks the repository closed.
func (r *HistoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
