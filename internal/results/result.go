// Package results collects per-task outcomes from concurrent workers and
// turns them into the end-of-run summary and metrics.
package results

import (
	"time"

	"github.com/backmassage/framestamp/internal/task"
)

// Outcome is the final state of one task.
type Outcome int

const (
	Succeeded Outcome = iota
	Failed
)

func (o Outcome) String() string {
	if o == Succeeded {
		return "succeeded"
	}
	return "failed"
}

// Result is produced exactly once per task and never modified after.
type Result struct {
	Task        task.VideoTask
	Outcome     Outcome
	Elapsed     time.Duration
	Err         error // Nil on success.
	OutputBytes int64 // Size of the written output, when known.
}

// Success builds a Succeeded result.
func Success(t task.VideoTask, elapsed time.Duration, outputBytes int64) Result {
	return Result{Task: t, Outcome: Succeeded, Elapsed: elapsed, OutputBytes: outputBytes}
}

// Failure builds a Failed result carrying err.
func Failure(t task.VideoTask, elapsed time.Duration, err error) Result {
	return Result{Task: t, Outcome: Failed, Elapsed: elapsed, Err: err}
}

// Reason returns the human-readable failure reason, or "" on success.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
