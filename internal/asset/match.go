package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/backmassage/framestamp/internal/config"
)

// DefaultPatterns are the asset file names probed for a video named {name},
// in priority order.
var DefaultPatterns = []string{
	"{name}_thumb.png",
	"{name}_thumbnail.png",
	"{name}.png",
	"thumb_{name}.png",
}

// NameMatch probes filename patterns against an ordered list of candidate
// directories. Directory order wins over pattern order: every pattern is
// tried in the first directory before the second directory is consulted.
//
// Each directory is listed once and indexed by NFC-normalized entry name,
// so lookups are plain map hits and decomposed names still match. When no
// pattern matches exactly in a directory, a case-folded lookup runs before
// the next directory, as on case-insensitive filesystems.
type NameMatch struct {
	dirs     []string
	patterns []string
	strategy config.Strategy

	mu      sync.Mutex
	indexes map[string]*dirIndex
}

// dirIndex maps names of the regular files in one directory to their
// on-disk names.
type dirIndex struct {
	exact  map[string]string // NFC name -> on-disk name
	folded map[string]string // case-folded NFC name -> first on-disk name
}

// NewNameMatch returns a resolver over dirs. Missing directories are
// tolerated and simply never match.
func NewNameMatch(dirs, patterns []string) *NameMatch {
	return &NameMatch{
		dirs:     append([]string(nil), dirs...),
		patterns: append([]string(nil), patterns...),
		strategy: config.StrategyMatch,
		indexes:  make(map[string]*dirIndex),
	}
}

// NewDirectorySearch is NameMatch scoped to one directory, which must exist.
func NewDirectorySearch(dir string, patterns []string) (*NameMatch, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("search directory: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("search directory: %s is not a directory", dir)
	}
	m := NewNameMatch([]string{dir}, patterns)
	m.strategy = config.StrategyDirectory
	return m, nil
}

// Strategy implements Resolver.
func (m *NameMatch) Strategy() config.Strategy { return m.strategy }

// Resolve returns the first existing match for videoPath.
func (m *NameMatch) Resolve(videoPath string) (string, error) {
	name := BaseName(videoPath)
	candidates := Candidates(name, m.patterns)

	for _, dir := range m.dirs {
		idx, err := m.index(dir)
		if err != nil {
			return "", err
		}
		for _, c := range candidates {
			if onDisk, ok := idx.exact[c]; ok {
				return filepath.Join(dir, onDisk), nil
			}
		}
		fold := cases.Fold()
		for _, c := range candidates {
			if onDisk, ok := idx.folded[fold.String(c)]; ok {
				return filepath.Join(dir, onDisk), nil
			}
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNotFound, name)
}

// Candidates expands patterns for one base name.
func Candidates(name string, patterns []string) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = norm.NFC.String(strings.ReplaceAll(p, "{name}", name))
	}
	return out
}

// index lists dir once and caches the regular files it contains. Symlinks
// count only when they resolve to a regular file.
func (m *NameMatch) index(dir string) (*dirIndex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.indexes[dir]; ok {
		return idx, nil
	}

	idx := &dirIndex{exact: make(map[string]string), folded: make(map[string]string)}
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list asset directory %s: %w", dir, err)
	}
	fold := cases.Fold()
	for _, e := range entries {
		switch {
		case e.Type().IsRegular():
		case e.Type()&fs.ModeSymlink != 0:
			if !Exists(filepath.Join(dir, e.Name())) {
				continue
			}
		default:
			continue
		}
		key := norm.NFC.String(e.Name())
		if _, dup := idx.exact[key]; !dup {
			idx.exact[key] = e.Name()
		}
		fkey := fold.String(key)
		if _, dup := idx.folded[fkey]; !dup {
			idx.folded[fkey] = e.Name()
		}
	}
	m.indexes[dir] = idx
	return idx, nil
}
