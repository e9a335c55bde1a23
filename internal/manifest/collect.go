package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Collect returns every regular file under root/subdir as a path relative to root.
// A missing subtree yields an empty result: subtrees are optional.
func Collect(root, subdir string, excludes []string) ([]string, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
		}
	}

	start := filepath.Join(root, filepath.FromSlash(subdir))

	info, err := os.Stat(start)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("stat subtree %s: %w", subdir, err)
	}

	if !info.IsDir() {
		return nil, nil
	}

	var files []string

	// WalkDir visits entries in lexical order, which keeps the result stable.
	err = filepath.WalkDir(start, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", path, relErr)
		}

		rel = filepath.ToSlash(rel)
		if IsExcluded(rel, excludes) {
			return nil
		}

		files = append(files, rel)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk subtree %s: %w", subdir, err)
	}

	return files, nil
}

// IsExcluded reports whether the slash-separated relative path matches any pattern.
func IsExcluded(rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}

	return false
}
