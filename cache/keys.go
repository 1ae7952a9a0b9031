package cache

import (
	"encoding/binary"
	"encoding/hex"
	"regexp"
	"slices"

	"github.com/go-crypt/x/blake2b"
)

// DeriveKey hashes parts into a 64-character hex key with BLAKE2b-256.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func DeriveKey(parts ...string) string {
	h, _ := blake2b.New(32, nil)
	var prefix [binary.MaxVarintLen64]byte
	for _, p := range parts {
		n := binary.PutUvarint(prefix[:], uint64(len(p)))
		h.Write(prefix[:n])
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// sortedPairs flattens a map into "k=v" strings in key order.
func sortedPairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + m[k]
	}
	return pairs
}

var safeFileName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// fileName maps a cache key to its payload file name.
// Keys that are not safe file names are hashed.
func fileName(key string) string {
	if safeFileName.MatchString(key) {
		return key
	}
	return DeriveKey(key)
}
