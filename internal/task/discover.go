package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VideoExtensions lists the supported source extensions (lowercase, with
// leading dot). Matching is case-insensitive.
var VideoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
	".m4v": true,
}

// IsVideo reports whether path has an extension in exts.
func IsVideo(path string, exts map[string]bool) bool {
	return exts[strings.ToLower(filepath.Ext(path))]
}

// Discover returns the eligible videos at input. A directory is listed
// without recursion in lexical order (the order os.ReadDir returns); a file
// is returned on its own when its extension is allowed. An empty result is
// not an error.
func Discover(input string, exts map[string]bool) ([]string, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	if !fi.IsDir() {
		if IsVideo(input, exts) {
			return []string{input}, nil
		}
		return nil, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("list input: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsVideo(e.Name(), exts) {
			continue
		}
		files = append(files, filepath.Join(input, e.Name()))
	}
	return files, nil
}
