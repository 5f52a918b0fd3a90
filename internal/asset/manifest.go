package asset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/backmassage/framestamp/internal/config"
)

// SkipSentinel in a manifest's asset field removes the video from the run.
const SkipSentinel = "skip"

// ManifestEntry pairs one video (by file name) with its asset.
type ManifestEntry struct {
	Video string `yaml:"video"`
	Asset string `yaml:"asset"`
}

// LoadManifest reads a YAML list of {video, asset} entries. It replaces the
// interactive per-video prompt: every answer is collected before the run.
func LoadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var entries []ManifestEntry
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.Video) == "" || strings.TrimSpace(e.Asset) == "" {
			return nil, fmt.Errorf("manifest %s: entry %d needs both video and asset", path, i+1)
		}
		key := norm.NFC.String(filepath.Base(e.Video))
		if seen[key] {
			return nil, fmt.Errorf("manifest %s: video %q listed twice", path, e.Video)
		}
		seen[key] = true
	}
	return entries, nil
}

// Manual resolves videos from a pre-collected manifest.
type Manual struct {
	assets map[string]string // NFC video file name -> asset path or SkipSentinel
}

// NewManual indexes entries by video file name. Relative asset paths are
// taken relative to baseDir (normally the manifest's own directory).
func NewManual(entries []ManifestEntry, baseDir string) *Manual {
	m := &Manual{assets: make(map[string]string, len(entries))}
	for _, e := range entries {
		a := strings.TrimSpace(e.Asset)
		if !strings.EqualFold(a, SkipSentinel) && !filepath.IsAbs(a) {
			a = filepath.Join(baseDir, a)
		}
		m.assets[norm.NFC.String(filepath.Base(e.Video))] = a
	}
	return m
}

// Strategy implements Resolver.
func (m *Manual) Strategy() config.Strategy { return config.StrategyManual }

// Resolve looks videoPath up by file name. Unlisted videos and listed assets
// that do not exist resolve to ErrNotFound; the skip sentinel to ErrSkipped.
func (m *Manual) Resolve(videoPath string) (string, error) {
	name := norm.NFC.String(filepath.Base(videoPath))
	a, ok := m.assets[name]
	switch {
	case !ok:
		return "", fmt.Errorf("%w: %q is not in the manifest", ErrNotFound, name)
	case strings.EqualFold(a, SkipSentinel):
		return "", ErrSkipped
	case !Exists(a):
		return "", fmt.Errorf("%w: %s", ErrNotFound, a)
	}
	return a, nil
}
