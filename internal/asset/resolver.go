// Package asset pairs videos with overlay images. Each [config.Strategy] has
// a Resolver; a run builds exactly one and uses it for every video.
//
// Resolvers never modify the filesystem. Construction validates whatever the
// strategy needs up front (the shared image, the search directory, the
// manifest) so a bad configuration fails the run before any task exists.
package asset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/backmassage/framestamp/internal/config"
)

// Sentinel errors returned by Resolve.
var (
	// ErrNotFound means no asset matches the video; the caller drops the
	// task with a warning.
	ErrNotFound = errors.New("no matching asset")
	// ErrSkipped means the manifest explicitly excludes the video.
	ErrSkipped = errors.New("skipped by manifest")
)

// Resolver yields zero or one asset path for a video.
type Resolver interface {
	// Resolve returns the asset for videoPath, or an error wrapping
	// ErrNotFound or ErrSkipped.
	Resolve(videoPath string) (string, error)
	// Strategy reports which strategy the resolver implements.
	Strategy() config.Strategy
}

// New builds the resolver selected by cfg.Strategy. inputDir is the
// directory being enumerated; NameMatch searches it after the default asset
// directory.
func New(cfg *config.Config, inputDir string) (Resolver, error) {
	switch cfg.Strategy {
	case config.StrategyShared:
		return NewShared(cfg.PrimarySharedAsset())
	case config.StrategyMatch:
		return NewNameMatch(cfg.CandidateDirs(inputDir), DefaultPatterns), nil
	case config.StrategyDirectory:
		return NewDirectorySearch(cfg.SearchDir, DefaultPatterns)
	case config.StrategyManual:
		entries, err := LoadManifest(cfg.ManifestFile)
		if err != nil {
			return nil, err
		}
		return NewManual(entries, filepath.Dir(cfg.ManifestFile)), nil
	default:
		return nil, fmt.Errorf("unknown asset strategy %q", cfg.Strategy)
	}
}

// Shared returns one pre-validated asset for every video.
type Shared struct {
	path string
}

// NewShared checks that path is an existing regular file. A missing shared
// asset aborts the whole run, so this runs before enumeration.
func NewShared(path string) (*Shared, error) {
	if err := requireFile(path); err != nil {
		return nil, fmt.Errorf("shared asset: %w", err)
	}
	return &Shared{path: path}, nil
}

// Resolve returns the shared asset regardless of videoPath.
func (s *Shared) Resolve(string) (string, error) { return s.path, nil }

// Strategy implements Resolver.
func (s *Shared) Strategy() config.Strategy { return config.StrategyShared }

// BaseName returns the video's file name without extension, normalized to
// NFC so decomposed names written by macOS compare equal to composed ones.
func BaseName(videoPath string) string {
	name := filepath.Base(videoPath)
	return norm.NFC.String(strings.TrimSuffix(name, filepath.Ext(name)))
}

// requireFile reports a descriptive error unless path is a regular file.
func requireFile(path string) error {
	if path == "" {
		return errors.New("no path given")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", path)
	}
	return nil
}

// Exists reports whether path is an existing regular file.
func Exists(path string) bool {
	return requireFile(path) == nil
}
