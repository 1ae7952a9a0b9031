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

// Package dedup detects byte-identical inputs by content hash.
//
// A Deduplicator keeps a hash -> core.ContentRecord table in memory and
// persists the whole table through a storage.HistoryRepository on every
// mutation. Two files with the same bytes map to the same record no matter
// their names or locations.
//
// # Usage
//
//	repo, _ := jsonfile.Open(historyPath)
//	d, err := dedup.New(repo, dedup.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	if dup, name := d.IsDuplicate(ctx, path); dup {
//	    logger.Info("skipping duplicate", "path", path, "original", name)
//	}
//	hash, err := d.Register(ctx, path, nil)
//
// # Failure handling
//
// Duplicate detection is advisory: IsDuplicate returns (false, "") when the
// file cannot be read. A history table that cannot be decoded is logged and
// replaced by an empty one.
//
// # Concurrency
//
// A Deduplicator is safe for concurrent use within one process. Persistence
// is read-modify-write of the whole table, so two processes sharing one
// history will lose updates.
package dedup
