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

package core

import "errors"

// Ingestion errors
var (
	// ErrNotFound indicates a source file does not exist.
	ErrNotFound = errors.New("source file not found")

	// ErrAllBackendsFailed indicates every extraction attempt for a file failed or timed out.
	ErrAllBackendsFailed = errors.New("all backends failed")

	// ErrCacheCorrupt indicates a cache payload could not be decoded.
	ErrCacheCorrupt = errors.New("cache entry corrupt")

	// ErrHistoryCorrupt indicates the dedup history table could not be read.
	ErrHistoryCorrupt = errors.New("dedup history corrupt")

	// ErrEngineTimeout indicates an engine did not answer within its deadline.
	ErrEngineTimeout = errors.New("engine timed out")

	// ErrEngineUnavailable indicates an engine reported itself unavailable.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrInvalidRecord indicates a ContentRecord failed validation.
	ErrInvalidRecord = errors.New("invalid content record")

	// ErrInvalidHash indicates a content hash is not a hex SHA-256 digest.
	ErrInvalidHash = errors.New("invalid content hash")
)
