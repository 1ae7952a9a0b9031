package ingestion

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// Discover lists the regular files under dir in lexical order. Hidden
// files and directories are skipped. When extensions is non-empty only
// files with one of those (lowercase, dotted) extensions are returned.
func Discover(dir string, extensions []string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// Unreadable subtrees are skipped, not fatal.
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(extensions) > 0 && !slices.Contains(extensions, strings.ToLower(filepath.Ext(path))) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceDir, err)
	}
	slices.Sort(paths)
	return paths, nil
}
