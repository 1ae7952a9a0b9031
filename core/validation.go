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

import (
	"encoding/hex"
	"fmt"
)

// ContentHashLength is the length of a hex-encoded SHA-256 digest.
const ContentHashLength = 64

// ValidateContentHash checks that hash is a lowercase hex SHA-256 digest.
func ValidateContentHash(hash string) error {
	if len(hash) != ContentHashLength {
		return fmt.Errorf("%w: length %d", ErrInvalidHash, len(hash))
	}
	if _, err := hex.DecodeString(hash); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHash, err)
	}
	for _, r := range hash {
		if r >= 'A' && r <= 'F' {
			return fmt.Errorf("%w: must be lowercase", ErrInvalidHash)
		}
	}
	return nil
}

// ValidateContentRecord validates a ContentRecord according to domain rules.
//
// Validation rules:
//   - ContentHash must be a valid digest
//   - OriginalName must not be empty
//   - SizeBytes must not be negative
//
// NOT validated:
//   - AbsolutePath (the file may have moved since it was registered)
//   - ExtraMetadata (free-form)
func ValidateContentRecord(record *ContentRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if err := ValidateContentHash(record.ContentHash); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	if record.OriginalName == "" {
		return fmt.Errorf("%w: empty filename", ErrInvalidRecord)
	}
	if record.SizeBytes < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidRecord, record.SizeBytes)
	}
	return nil
}
