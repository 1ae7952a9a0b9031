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
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/poiesic/docingest/core"
)

// BlockSize is the read size used while hashing. Memory use is bounded by
// it regardless of file size.
const BlockSize = 64 * 1024

// ComputeHash returns the lowercase hex SHA-256 digest of the file at path.
// A missing file yields an error wrapping core.ErrNotFound.
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", core.ErrNotFound, path)
		}
		return "", err
	}
	defer f.Close()

	return HashReader(f)
}

// HashReader returns the hex SHA-256 digest of everything read from r.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	buf := make([]byte, BlockSize)
	if _, err := io.CopyBuffer(h, r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
