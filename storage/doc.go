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

// Package storage provides the persistence abstraction for the dedup history.
//
// The history is a single durable table mapping content hash to a
// core.ContentRecord. It is rewritten in full on every mutation, so
// implementations only need to load and save the whole table.
//
// # Backends
//
//   - jsonfile: one JSON file, replaced atomically via temp file + rename
//   - badger: one BadgerDB key per hash, replaced inside a single transaction
//
// Open a backend and hand it to the deduplicator:
//
//	repo, err := jsonfile.Open("/var/lib/docingest/history.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	d, err := dedup.New(repo)
//
// # Corruption
//
// A table that cannot be decoded is reported as core.ErrHistoryCorrupt.
// Callers treat that as an empty history rather than a fatal error.
//
// # Concurrency
//
// Loading and saving are whole-table operations with read-modify-write
// semantics in the caller. Two processes saving concurrently will lose
// updates; single-writer discipline is required.
package storage
