package badger

import "strings"

// Key prefixes for different data types
const (
	historyPrefix = "hist:"
)

// makeHistoryKey generates a key for a history record by content hash.
func makeHistoryKey(hash string) []byte {
	return []byte(historyPrefix + hash)
}

// hashFromHistoryKey recovers the content hash from a history key.
func hashFromHistoryKey(key []byte) string {
	return strings.TrimPrefix(string(key), historyPrefix)
}
