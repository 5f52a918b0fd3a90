package task

import (
	"errors"
	"os"

	"github.com/google/uuid"

	"github.com/backmassage/framestamp/internal/asset"
)

// Logger is the minimal logging interface needed by Enumerate.
type Logger interface {
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Debug(string, ...interface{})
}

// Options controls how eligible videos become tasks.
type Options struct {
	OutputDir    string
	Suffix       string
	Extensions   map[string]bool // nil means VideoExtensions.
	SharedAssets []string        // Appended after the resolved primary asset.
	SkipExisting bool            // Drop tasks whose output already exists.
}

// Enumeration is the outcome of one pass over the input location.
type Enumeration struct {
	Tasks    []VideoTask
	Eligible int      // Videos with an allowed extension.
	Missing  []string // Videos dropped because no asset matched.
	Skipped  []string // Videos the manifest excluded.
	Existing []string // Videos dropped by SkipExisting.
}

// Enumerate lists the eligible videos at input and pairs each with an
// output path and its assets. A video whose asset cannot be resolved is
// dropped with a warning; the run continues. Only an unreadable input
// location is an error. Labels carry the video's position among all
// eligible videos, so gaps show which ones were dropped.
func Enumerate(input string, resolver asset.Resolver, opts Options, log Logger) (Enumeration, error) {
	exts := opts.Extensions
	if exts == nil {
		exts = VideoExtensions
	}

	files, err := Discover(input, exts)
	if err != nil {
		return Enumeration{}, err
	}

	en := Enumeration{Eligible: len(files)}
	collisions := NewCollisionResolver()

	for i, path := range files {
		label := VideoTask{Index: i + 1, Total: len(files)}.Label()
		name := VideoTask{InputPath: path}.Name()

		primary, err := resolver.Resolve(path)
		switch {
		case errors.Is(err, asset.ErrSkipped):
			log.Info("[%s] Skipping %s (manifest)", label, name)
			en.Skipped = append(en.Skipped, name)
			continue
		case err != nil:
			log.Warn("[%s] No asset for %s, skipping: %v", label, name, err)
			en.Missing = append(en.Missing, name)
			continue
		}

		out := collisions.Resolve(path, OutputPath(path, opts.OutputDir, opts.Suffix))
		if opts.SkipExisting {
			if _, err := os.Stat(out); err == nil {
				log.Info("[%s] Skip (exists): %s", label, out)
				en.Existing = append(en.Existing, name)
				continue
			}
		}

		assets := make([]string, 0, 1+len(opts.SharedAssets))
		assets = append(assets, primary)
		assets = append(assets, opts.SharedAssets...)

		t := VideoTask{
			ID:         uuid.NewString(),
			Index:      i + 1,
			Total:      len(files),
			InputPath:  path,
			OutputPath: out,
			AssetPaths: assets,
		}
		log.Debug("[%s] %s -> %s (asset %s)", label, name, out, primary)
		en.Tasks = append(en.Tasks, t)
	}
	return en, nil
}
