package results

import (
	"sync"
	"time"
)

// Summary is the end-of-run report.
type Summary struct {
	Total        int
	Succeeded    int
	Failed       int
	FailedNames  []string // Source file names, in completion order.
	TotalElapsed time.Duration
	MeanElapsed  time.Duration
	OutputBytes  int64
}

// Aggregator accumulates results from any number of goroutines. It is the
// only writer of its counters.
type Aggregator struct {
	mu          sync.Mutex
	succeeded   int
	failed      int
	failedNames []string
	elapsed     time.Duration
	outputBytes int64

	metrics *Metrics
}

// NewAggregator returns an empty Aggregator. metrics may be nil.
func NewAggregator(metrics *Metrics) *Aggregator {
	return &Aggregator{metrics: metrics}
}

// Record adds one result. Safe for concurrent use.
func (a *Aggregator) Record(r Result) {
	a.mu.Lock()
	switch r.Outcome {
	case Succeeded:
		a.succeeded++
		a.outputBytes += r.OutputBytes
	default:
		a.failed++
		a.failedNames = append(a.failedNames, r.Task.Name())
	}
	a.elapsed += r.Elapsed
	a.mu.Unlock()

	a.metrics.Observe(r)
}

// Summarize returns a snapshot. Succeeded + Failed always equals the
// number of recorded results.
func (a *Aggregator) Summarize() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Total:        a.succeeded + a.failed,
		Succeeded:    a.succeeded,
		Failed:       a.failed,
		FailedNames:  append([]string(nil), a.failedNames...),
		TotalElapsed: a.elapsed,
		OutputBytes:  a.outputBytes,
	}
	if s.Total > 0 {
		s.MeanElapsed = a.elapsed / time.Duration(s.Total)
	}
	return s
}
