package cache

import "errors"

var (
	// ErrDirRequired is returned when an enabled cache has no directory.
	ErrDirRequired = errors.New("cache directory required")

	// ErrCodecRequired is returned when a cache is created without a codec.
	ErrCodecRequired = errors.New("cache codec required")
)
