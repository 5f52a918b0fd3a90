package pipeline

import (
	"time"

	"github.com/backmassage/framestamp/internal/results"
)

// RunStats tracks enumeration counters and the aggregated task outcomes of
// a batch run.
type RunStats struct {
	RunID string

	Eligible   int // Videos with an allowed extension.
	Enumerated int // Tasks handed to the pool.
	Missing    int // Dropped: no asset matched.
	Skipped    int // Dropped: manifest said skip.
	Existing   int // Dropped: output already present.

	results.Summary

	Wall     time.Duration
	Warnings int
}

// ExitCode is 1 when any task failed, 0 otherwise. A run with nothing to
// do succeeds.
func (s *RunStats) ExitCode() int {
	if s.Failed > 0 {
		return 1
	}
	return 0
}
