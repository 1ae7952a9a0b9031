package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFile is returned when no reader handles a file type.
var ErrUnsupportedFile = errors.New("unsupported file type")

// TextSource returns the plain text of a document.
type TextSource func(ctx context.Context, path string) (string, error)

// ReadUTF8 reads a file that is already text.
func ReadUTF8(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not UTF-8 text", ErrUnsupportedFile, filepath.Base(path))
	}
	return string(data), nil
}

// ByExtension dispatches to a TextSource by lowercase file extension,
// using fallback for everything else.
func ByExtension(sources map[string]TextSource, fallback TextSource) TextSource {
	return func(ctx context.Context, path string) (string, error) {
		if src, ok := sources[strings.ToLower(filepath.Ext(path))]; ok {
			return src(ctx, path)
		}
		if fallback == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(path))
		}
		return fallback(ctx, path)
	}
}
