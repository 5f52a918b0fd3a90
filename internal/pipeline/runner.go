package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/framestamp/internal/asset"
	"github.com/backmassage/framestamp/internal/config"
	"github.com/backmassage/framestamp/internal/display"
	"github.com/backmassage/framestamp/internal/ffmpeg"
	"github.com/backmassage/framestamp/internal/logging"
	"github.com/backmassage/framestamp/internal/overlay"
	"github.com/backmassage/framestamp/internal/results"
	"github.com/backmassage/framestamp/internal/retry"
	"github.com/backmassage/framestamp/internal/task"
	"github.com/backmassage/framestamp/internal/workers"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "framestamp"

// Option customizes a Run.
type Option func(*runOptions)

type runOptions struct {
	runID         string
	compositor    overlay.Compositor
	fadeAvailable bool
	retryable     func(error) bool
}

// WithRunID fixes the run ID instead of generating one.
func WithRunID(id string) Option {
	return func(o *runOptions) { o.runID = id }
}

// WithCompositor replaces the ffmpeg compositor.
func WithCompositor(c overlay.Compositor) Option {
	return func(o *runOptions) { o.compositor = c }
}

// WithFadeAvailable tells the default compositor whether the local ffmpeg
// has the fade filter. Defaults to true.
func WithFadeAvailable(ok bool) Option {
	return func(o *runOptions) { o.fadeAvailable = ok }
}

// WithRetryable replaces the transient-error classifier.
func WithRetryable(fn func(error) bool) Option {
	return func(o *runOptions) { o.retryable = fn }
}

// Run is the top-level batch entry point. It resolves assets, enumerates
// tasks, runs them on the worker pool, and returns aggregate stats. The
// returned error is a configuration error; task failures are only counted.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, opts ...Option) (RunStats, error) {
	o := runOptions{fadeAvailable: true, retryable: ffmpeg.IsTransient}
	for _, fn := range opts {
		fn(&o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if o.compositor == nil {
		o.compositor = ffmpeg.NewCompositor(ffmpeg.Options{
			NoFade:  !o.fadeAvailable,
			DryRun:  cfg.DryRun,
			Verbose: cfg.Verbose,
			Log:     log,
		})
	}

	start := time.Now()
	stats := RunStats{RunID: o.runID}

	// --- Configuration: everything here aborts before any task runs ---
	if err := cfg.CheckPaths(); err != nil {
		return stats, err
	}
	resolver, err := asset.New(cfg, inputDir(cfg.InputPath))
	if err != nil {
		return stats, err
	}
	spec := overlay.FromConfig(cfg)
	extra := overlay.ExtraAssets(cfg)
	if err := spec.Validate(1 + len(extra)); err != nil {
		return stats, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return stats, fmt.Errorf("create output directory: %w", err)
	}

	en, err := task.Enumerate(cfg.InputPath, resolver, task.Options{
		OutputDir:    cfg.OutputDir,
		Suffix:       cfg.Suffix(),
		SharedAssets: extra,
		SkipExisting: cfg.SkipExisting,
	}, log)
	if err != nil {
		return stats, err
	}
	stats.Eligible = en.Eligible
	stats.Enumerated = len(en.Tasks)
	stats.Missing = len(en.Missing)
	stats.Skipped = len(en.Skipped)
	stats.Existing = len(en.Existing)

	metrics := results.NewMetrics(MetricsNamespace, o.runID)
	agg := results.NewAggregator(metrics)
	pool := workers.New(cfg.Workers, metrics)
	logBatchHeader(cfg, log, &stats, resolver.Strategy(), pool.Workers())

	if len(en.Tasks) == 0 {
		log.Warn("No videos to process")
	} else {
		engine := overlay.NewEngine(o.compositor, spec, log)
		pool.Run(ctx, en.Tasks, processFunc(cfg, log, engine, metrics, o.retryable), func(r results.Result) {
			agg.Record(r)
			logResult(log, r)
		})
		if ctx.Err() != nil {
			log.Warn("Interrupted: tasks not yet started were cancelled")
		}
	}

	stats.Summary = agg.Summarize()
	stats.Wall = time.Since(start)
	stats.Warnings = log.Warnings()
	logSummary(cfg, log, &stats)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteFile(cfg.MetricsFile); err != nil {
			log.Warn("Cannot write metrics file %s: %v", cfg.MetricsFile, err)
		} else {
			log.Debug("Metrics written to %s", cfg.MetricsFile)
		}
	}
	return stats, nil
}

// processFunc returns the per-task operation run by each worker: apply
// the overlay with bounded retry on transient failures.
func processFunc(
	cfg *config.Config,
	log *logging.Logger,
	engine *overlay.Engine,
	metrics *results.Metrics,
	retryable func(error) bool,
) workers.Func {
	return func(ctx context.Context, t task.VideoTask) (int64, error) {
		log.Info("[%s] Processing %s", t.Label(), t.Name())
		log.Debug("[%s] assets: %s", t.Label(), strings.Join(t.AssetPaths, ", "))

		job := overlay.Job{
			Label:  t.Label(),
			Input:  t.InputPath,
			Output: t.OutputPath,
			Assets: t.AssetPaths,
		}
		err := retry.Do(ctx, retry.Config{
			MaxRetries:     cfg.Retries,
			InitialBackoff: cfg.RetryBackoff,
			Retryable:      retryable,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				metrics.Retry()
				log.Warn("[%s] Retry %d/%d in %s: %v", t.Label(), attempt, cfg.Retries, wait, err)
				os.Remove(t.OutputPath)
			},
		}, func(ctx context.Context) error {
			return engine.Apply(ctx, job)
		})
		if err != nil {
			if errors.Is(err, overlay.ErrWrite) && !cfg.DryRun {
				os.Remove(t.OutputPath)
			}
			return 0, err
		}

		var size int64
		if fi, err := os.Stat(t.OutputPath); err == nil {
			size = fi.Size()
		}
		return size, nil
	}
}

// inputDir returns the directory that holds the input videos.
func inputDir(input string) string {
	if fi, err := os.Stat(input); err == nil && !fi.IsDir() {
		return filepath.Dir(input)
	}
	return input
}

// --- Logging helpers ---

func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats, strategy config.Strategy, poolSize int) {
	log.Info("Run ID: %s", stats.RunID)
	log.Info("Found %d eligible videos, %d to process", stats.Eligible, stats.Enumerated)
	log.Info("Mode: %s, strategy: %s, workers: %d", cfg.Mode, strategy, poolSize)

	if cfg.Mode == config.ModeWatermark {
		log.Info("Watermark: %s at (%d,%d) for the whole video", cfg.PrimarySharedAsset(), cfg.MainX, cfg.MainY)
		log.Info("End watermark: %s at (%d,%d) for the last %ss", cfg.WatermarkEnd, cfg.EndX, cfg.EndY, display.FormatSeconds(cfg.EndWindow))
	} else if cfg.ThumbAppend {
		log.Info("Thumbnail: %ss after the video ends, fade %ss", display.FormatSeconds(cfg.ThumbDuration), display.FormatSeconds(cfg.ThumbFade))
	} else {
		log.Info("Thumbnail: last %ss of the video, fade %ss", display.FormatSeconds(cfg.ThumbDuration), display.FormatSeconds(cfg.ThumbFade))
	}

	if cfg.Retries > 0 {
		log.Info("Retry policy: up to %d retries on transient errors, backoff from %s", cfg.Retries, cfg.RetryBackoff)
	} else {
		log.Info("Retry policy: none")
	}
	if cfg.SkipExisting {
		log.Info("Existing outputs: skip")
	}
	if cfg.DryRun {
		log.Warn("DRY RUN: commands are logged, nothing is encoded")
	}
}

func logResult(log *logging.Logger, r results.Result) {
	label := r.Task.Label()
	if r.Outcome == results.Succeeded {
		log.Success("[%s] %s done in %s -> %s", label, r.Task.Name(), display.FormatElapsed(r.Elapsed), filepath.Base(r.Task.OutputPath))
		return
	}
	log.Error("[%s] %s failed: %s", label, r.Task.Name(), r.Reason())
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d failed (of %d)", stats.Succeeded, stats.Failed, stats.Total)
	if stats.Missing > 0 || stats.Skipped > 0 || stats.Existing > 0 {
		log.Info("Not queued: %d without asset, %d skipped by manifest, %d already present",
			stats.Missing, stats.Skipped, stats.Existing)
	}
	if stats.Failed > 0 {
		log.Error("Failed videos: %s", strings.Join(stats.FailedNames, ", "))
	}
	log.Info("Summary report:")
	log.Info("  Run ID: %s", stats.RunID)
	log.Info("  Total time: %s", display.FormatElapsed(stats.Wall))
	if stats.Total > 0 {
		log.Info("  Average per video: %s", display.FormatElapsed(stats.MeanElapsed))
	}
	log.Info("  Warnings: %d", stats.Warnings)

	if cfg.DryRun {
		log.Info("  Output written: n/a (dry run)")
		return
	}
	log.Info("  Output written: %s", display.FormatBytes(stats.OutputBytes))
}
