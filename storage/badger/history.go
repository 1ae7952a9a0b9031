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

package badger

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// HistoryRepository implements storage.HistoryRepository for BadgerDB.
// Each record lives under its own key. A save writes only the keys whose
// value changed and deletes the ones no longer in the table.
type HistoryRepository struct {
	backend   *Backend
	ownsStore bool
	closed    atomic.Bool
}

var _ storage.HistoryRepository = (*HistoryRepository)(nil)

// NewHistoryRepository creates a HistoryRepository on an open backend.
// The caller keeps ownership of backend.
func NewHistoryRepository(backend *Backend) *HistoryRepository {
	return &HistoryRepository{backend: backend}
}

// OpenHistory opens a backend at path and returns a repository that closes
// it on Close.
func OpenHistory(path string) (*HistoryRepository, error) {
	backend, err := OpenBackend(path, false, nil)
	if err != nil {
		return nil, err
	}
	return &HistoryRepository{backend: backend, ownsStore: true}, nil
}

// LoadHistory reads every record under the history prefix.
func (r *HistoryRepository) LoadHistory(ctx context.Context) (map[string]*core.ContentRecord, error) {
	if r.closed.Load() {
		return nil, storage.ErrHistoryClosed
	}

	records := make(map[string]*core.ContentRecord)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(historyPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			hash := hashFromHistoryKey(item.Key())
			err := item.Value(func(val []byte) error {
				record, err := storage.UnmarshalContentRecord(val)
				if err != nil {
					return fmt.Errorf("%w: key %s: %w", core.ErrHistoryCorrupt, hash, err)
				}
				record.ContentHash = hash
				records[hash] = record
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// SaveHistory replaces the stored table with records. The diff against
// the stored keys is applied through a write batch, so a table of any
// size can be saved; an interrupted save leaves a mix of old and new
// entries, each of which is still a complete record.
func (r *HistoryRepository) SaveHistory(ctx context.Context, records map[string]*core.ContentRecord) error {
	if r.closed.Load() {
		return storage.ErrHistoryClosed
	}

	stored, err := r.storedValues(ctx)
	if err != nil {
		return err
	}

	return r.backend.WriteBatch(func(wb *badger.WriteBatch) error {
		for hash := range stored {
			if _, ok := records[hash]; ok {
				continue
			}
			if err := wb.Delete(makeHistoryKey(hash)); err != nil {
				return err
			}
		}

		for hash, record := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			record.ContentHash = hash
			value, err := storage.MarshalContentRecord(record)
			if err != nil {
				return err
			}
			if old, ok := stored[hash]; ok && bytes.Equal(old, value) {
				continue
			}
			if err := wb.Set(makeHistoryKey(hash), value); err != nil {
				return err
			}
		}
		return nil
	})
}

// storedValues returns the raw value of every history key.
func (r *HistoryRepository) storedValues(ctx context.Context) (map[string][]byte, error) {
	stored := make(map[string][]byte)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(historyPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			stored[hashFromHistoryKey(item.Key())] = value
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Close marks the repository closed and releases the backend if owned.
func (r *HistoryRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.ownsStore {
		return r.backend.Close()
	}
	return nil
}
