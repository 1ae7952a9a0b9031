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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/docingest/core"
)

// MarshalContentRecord serializes a ContentRecord to bytes.
func MarshalContentRecord(record *core.ContentRecord) ([]byte, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return data, nil
}

// UnmarshalContentRecord deserializes a ContentRecord from bytes.
func UnmarshalContentRecord(data []byte) (*core.ContentRecord, error) {
	var record core.ContentRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return &record, nil
}

// MarshalHistory serializes a full history table.
func MarshalHistory(records map[string]*core.ContentRecord) ([]byte, error) {
	if records == nil {
		records = map[string]*core.ContentRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return data, nil
}

// UnmarshalHistory deserializes a full history table.
// Entries whose key does not match their ContentHash are repaired by key.
func UnmarshalHistory(data []byte) (map[string]*core.ContentRecord, error) {
	records := map[string]*core.ContentRecord{}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	for hash, record := range records {
		if record == nil {
			delete(records, hash)
			continue
		}
		record.ContentHash = hash
	}
	return records, nil
}
