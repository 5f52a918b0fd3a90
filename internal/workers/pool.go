// Package workers runs overlay tasks on a bounded pool of goroutines.
//
// Each task runs in isolation: an error or panic becomes a Failed result
// for that task alone. Run blocks until every submitted task has a result.
package workers

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/backmassage/framestamp/internal/results"
	"github.com/backmassage/framestamp/internal/task"
)

// HardCap bounds concurrent tasks regardless of CPU count or request. Each
// running task holds decoded frames in memory.
const HardCap = 4

// Failure reasons produced by the pool itself.
var (
	ErrCancelled = errors.New("cancelled")
	ErrPanic     = errors.New("task panicked")
)

// Func processes one task. It returns the output size in bytes when known.
type Func func(ctx context.Context, t task.VideoTask) (int64, error)

// Hooks observe pool occupancy. Calls are serialized by the pool.
type Hooks interface {
	TaskStarted()
	TaskFinished()
}

// MaxWorkers returns min(runtime.NumCPU(), HardCap).
func MaxWorkers() int {
	return min(runtime.NumCPU(), HardCap)
}

// Clamp returns requested bounded to [1, MaxWorkers()]. Zero or negative
// means MaxWorkers().
func Clamp(requested int) int {
	limit := MaxWorkers()
	if requested <= 0 || requested > limit {
		return limit
	}
	return requested
}

// Pool is a bounded worker pool. One Pool may run several batches, one at
// a time.
type Pool struct {
	workers int
	hooks   Hooks

	mu     sync.Mutex
	active int
	peak   int
}

// New returns a Pool with Clamp(workers) goroutines. hooks may be nil.
func New(workers int, hooks Hooks) *Pool {
	return &Pool{workers: Clamp(workers), hooks: hooks}
}

// Workers returns the effective concurrency bound.
func (p *Pool) Workers() int { return p.workers }

// Peak returns the highest number of tasks that were running at once.
func (p *Pool) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// Run executes fn for every task and returns one result per task in
// completion order. onResult, if set, is called for each result from a
// single goroutine as results arrive. Tasks not yet started when ctx is
// cancelled fail with ErrCancelled; running tasks are left to finish.
func (p *Pool) Run(ctx context.Context, tasks []task.VideoTask, fn Func, onResult func(results.Result)) []results.Result {
	jobs := make(chan task.VideoTask)
	out := make(chan results.Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers && i < len(tasks); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				out <- p.runOne(ctx, t, fn)
			}
		}()
	}

	go func() {
		for _, t := range tasks {
			jobs <- t
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	collected := make([]results.Result, 0, len(tasks))
	for r := range out {
		if onResult != nil {
			onResult(r)
		}
		collected = append(collected, r)
	}
	return collected
}

// runOne is the isolation boundary for a single task.
func (p *Pool) runOne(ctx context.Context, t task.VideoTask, fn Func) (r results.Result) {
	if err := ctx.Err(); err != nil {
		return results.Failure(t, 0, fmt.Errorf("%w: %v", ErrCancelled, err))
	}

	p.enter()
	defer p.exit()

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r = results.Failure(t, time.Since(start), fmt.Errorf("%w: %v", ErrPanic, rec))
		}
	}()

	n, err := fn(ctx, t)
	if err != nil {
		return results.Failure(t, time.Since(start), err)
	}
	return results.Success(t, time.Since(start), n)
}

func (p *Pool) enter() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	if p.hooks != nil {
		p.hooks.TaskStarted()
	}
}

func (p *Pool) exit() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active--
	if p.hooks != nil {
		p.hooks.TaskFinished()
	}
}
