package dedup

import "errors"

var (
	// ErrHistoryRepositoryRequired is returned when a history repository is not provided.
	ErrHistoryRepositoryRequired = errors.New("history repository required")
)
