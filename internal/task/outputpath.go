package task

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// OutputPath builds {outputDir}/{base}{suffix}{ext}, keeping the source
// extension as written.
func OutputPath(inputPath, outputDir, suffix string) string {
	name := filepath.Base(inputPath)
	ext := filepath.Ext(name)
	return filepath.Join(outputDir, strings.TrimSuffix(name, ext)+suffix+ext)
}

// CollisionResolver keeps output paths unique within one enumeration pass.
// Paths are compared case-insensitively so "clip.mp4" and "clip.MP4" do not
// overwrite each other on case-insensitive filesystems; the later input gets
// a " - dupN" variant. All methods are goroutine-safe.
type CollisionResolver struct {
	mu       sync.Mutex
	owners   map[string]string // folded output path -> input path that owns it
	counters map[string]int    // folded base output path -> next dup counter
}

// NewCollisionResolver creates a ready-to-use resolver.
func NewCollisionResolver() *CollisionResolver {
	return &CollisionResolver{
		owners:   make(map[string]string),
		counters: make(map[string]int),
	}
}

// Resolve returns the final output path for input. An unclaimed path (or
// one already owned by input) is returned as-is.
func (cr *CollisionResolver) Resolve(input, requested string) string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	key := strings.ToLower(requested)
	if owner, exists := cr.owners[key]; !exists || owner == input {
		cr.owners[key] = input
		return requested
	}

	dir := filepath.Dir(requested)
	base := filepath.Base(requested)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	counter := cr.counters[key]
	if counter == 0 {
		counter = 1
	}
	for {
		candidate := filepath.Join(dir, fmt.Sprintf("%s - dup%d%s", stem, counter, ext))
		ckey := strings.ToLower(candidate)
		if owner, exists := cr.owners[ckey]; !exists || owner == input {
			cr.counters[key] = counter + 1
			cr.owners[ckey] = input
			return candidate
		}
		counter++
	}
}
