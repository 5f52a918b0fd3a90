// Package task turns an input location into the ordered list of overlay
// jobs for a run. Each VideoTask is built once here and then consumed by
// exactly one worker.
package task

import (
	"fmt"
	"path/filepath"
)

// VideoTask is one independent overlay job. It is immutable after
// enumeration and shares no mutable state with other tasks.
type VideoTask struct {
	ID         string   // Random UUID, unique per enumeration pass.
	Index      int      // 1-based position among eligible videos.
	Total      int      // Number of eligible videos before asset filtering.
	InputPath  string   // Source video; never written.
	OutputPath string   // Destination in the output directory.
	AssetPaths []string // AssetPaths[0] is the resolved primary asset.
}

// Label returns the "index/total" progress label.
func (t VideoTask) Label() string {
	return fmt.Sprintf("%d/%d", t.Index, t.Total)
}

// Name returns the source file name, used as the task's identifier in
// logs and summaries.
func (t VideoTask) Name() string {
	return filepath.Base(t.InputPath)
}

// PrimaryAsset returns AssetPaths[0], or "" when the task has none.
func (t VideoTask) PrimaryAsset() string {
	if len(t.AssetPaths) == 0 {
		return ""
	}
	return t.AssetPaths[0]
}
