// Package retry runs a task again after transient failures, with bounded
// exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"
)

const defaultMaxBackoff = 30 * time.Second

// Config represents retry configuration.
type Config struct {
	MaxRetries     int           // Extra attempts after the first; 0 disables retry.
	InitialBackoff time.Duration // Wait before the first retry.
	MaxBackoff     time.Duration // Cap on any single wait (default: 30s).

	// Retryable decides whether an error is worth another attempt. Nil
	// means nothing is retried.
	Retryable func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the retry
// budget is spent. Context cancellation is checked between attempts and
// interrupts the backoff wait; fn itself is never interrupted.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if cfg.Retryable == nil || !cfg.Retryable(err) {
			return err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		wait := Backoff(attempt, cfg.InitialBackoff, cfg.MaxBackoff)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (retry abandoned: %v)", err, ctx.Err())
		}
	}
	if cfg.MaxRetries == 0 {
		return err
	}
	return fmt.Errorf("gave up after %d attempts: %w", cfg.MaxRetries+1, err)
}

// Backoff returns 2^attempt * initial, capped at max.
func Backoff(attempt int, initial, max time.Duration) time.Duration {
	if initial <= 0 {
		return 0
	}
	if attempt > 30 {
		return max
	}
	d := time.Duration(1<<uint(attempt)) * initial
	if d > max || d <= 0 {
		return max
	}
	return d
}
