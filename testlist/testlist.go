// Package testlist discovers Lua test files on disk.
package testlist

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultPatterns are the filename globs recognized as test files.
var DefaultPatterns = []string{"*_spec.lua", "*_test.lua"}

// Discover walks root and returns every file matching one of the patterns,
// sorted for a deterministic dispatch order. Hidden directories are skipped,
// as are files and directories whose base name matches an exclude glob.
// Nil patterns means DefaultPatterns.
func Discover(root string, patterns, excludes []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		excluded, excludeErr := matchesAny(excludes, d.Name())
		if excludeErr != nil {
			return excludeErr
		}
		if d.IsDir() {
			if path != root && (excluded || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded {
			return nil
		}
		ok, matchErr := matchesAny(patterns, d.Name())
		if matchErr != nil {
			return matchErr
		}
		if ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover test files under %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}

func matchesAny(patterns []string, name string) (bool, error) {
	for _, pattern := range patterns {
		ok, err := filepath.Match(pattern, name)
		if err != nil {
			return false, fmt.Errorf("invalid test file pattern %q: %w", pattern, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
