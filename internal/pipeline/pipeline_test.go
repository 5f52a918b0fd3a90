package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/framestamp/internal/config"
	"github.com/backmassage/framestamp/internal/ffmpeg"
	"github.com/backmassage/framestamp/internal/logging"
	"github.com/backmassage/framestamp/internal/overlay"
	"github.com/backmassage/framestamp/internal/probe"
)

// fakeCompositor writes a small file instead of encoding. Sources whose
// name contains "broken" fail to open; "busy" fails the first write with a
// transient error.
type fakeCompositor struct {
	mu     sync.Mutex
	writes map[string]int
}

type fakeSource struct{ path string }

func (fakeSource) Info() overlay.SourceInfo {
	return overlay.SourceInfo{Duration: 10, Width: 1280, Height: 720, FrameRate: 25, HasAudio: true}
}
func (fakeSource) Close() error { return nil }

type fakeClip struct{}

func (fakeClip) Resize(int, int) error            { return nil }
func (fakeClip) SetPosition(int, int) error       { return nil }
func (fakeClip) SetWindow(float64, float64) error { return nil }
func (fakeClip) Fade(float64) error               { return nil }
func (fakeClip) Close() error                     { return nil }

type fakeComposite struct {
	f   *fakeCompositor
	src string
}

func (c fakeComposite) Write(_ context.Context, path string, _ overlay.Encoding) error {
	c.f.mu.Lock()
	c.f.writes[c.src]++
	n := c.f.writes[c.src]
	c.f.mu.Unlock()
	if strings.Contains(c.src, "busy") && n == 1 {
		return &ffmpeg.ExecError{Stderr: "Device or resource busy", Err: errors.New("exit status 1")}
	}
	return os.WriteFile(path, []byte("encoded"), 0o644)
}
func (fakeComposite) Close() error { return nil }

func newFake() *fakeCompositor { return &fakeCompositor{writes: map[string]int{}} }

func (f *fakeCompositor) OpenSource(_ context.Context, path string) (overlay.Source, error) {
	if strings.Contains(path, "broken") {
		return nil, errors.New("moov atom not found")
	}
	return fakeSource{path: path}, nil
}
func (f *fakeCompositor) OpenImage(context.Context, string) (overlay.Clip, error) {
	return fakeClip{}, nil
}
func (f *fakeCompositor) Composite(_ context.Context, src overlay.Source, _ []overlay.Clip, _ float64) (overlay.Composite, error) {
	return fakeComposite{f: f, src: src.(fakeSource).path}, nil
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	return p
}

func newLogger(t *testing.T) (*logging.Logger, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	log, err := logging.New(logging.Options{Stdout: &out, Stderr: &out})
	require.NoError(t, err)
	return log, &out
}

type fixture struct {
	root, in, out, assets string
	cfg                   config.Config
}

func newFixture(t *testing.T, videos ...string) *fixture {
	root := t.TempDir()
	f := &fixture{
		root:   root,
		in:     filepath.Join(root, "in"),
		out:    filepath.Join(root, "out"),
		assets: filepath.Join(root, "assets"),
	}
	for _, v := range videos {
		touch(t, f.in, v)
	}
	require.NoError(t, os.MkdirAll(f.assets, 0o755))
	f.cfg = config.DefaultConfig()
	f.cfg.InputPath = f.in
	f.cfg.OutputDir = f.out
	f.cfg.AssetDir = f.assets
	f.cfg.RetryBackoff = 0
	return f
}

func TestRun_EndToEndMissingAsset(t *testing.T) {
	f := newFixture(t, "a.mp4", "b.mp4", "c.mov")
	touch(t, f.assets, "a_thumb.png")
	touch(t, f.assets, "c.png")
	log, out := newLogger(t)

	stats, err := Run(context.Background(), &f.cfg, log, WithCompositor(newFake()), WithRunID("run-e2e"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	assert.Equal(t, 3, stats.Eligible)
	assert.Equal(t, 2, stats.Enumerated)
	assert.Equal(t, 1, stats.Missing)
	assert.Equal(t, 1, stats.Warnings)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 0, stats.ExitCode())

	assert.FileExists(t, filepath.Join(f.out, "a_with_thumbnail.mp4"))
	assert.FileExists(t, filepath.Join(f.out, "c_with_thumbnail.mov"))
	assert.NoFileExists(t, filepath.Join(f.out, "b_with_thumbnail.mp4"))
	assert.Equal(t, int64(2*len("encoded")), stats.OutputBytes)
	assert.Contains(t, out.String(), "Run ID: run-e2e")
	assert.Contains(t, out.String(), "No asset for b.mp4")
}

func TestRun_FailureIsIsolatedAndTransientIsRetried(t *testing.T) {
	f := newFixture(t, "broken.mp4", "busy.mp4", "fine.mp4")
	logo := touch(t, f.root, "logo.png")
	f.cfg.Strategy = config.StrategyShared
	f.cfg.SharedAsset = logo
	f.cfg.MetricsFile = filepath.Join(f.root, "metrics.prom")
	fake := newFake()
	log, out := newLogger(t)

	stats, err := Run(context.Background(), &f.cfg, log, WithCompositor(fake), WithRunID("r1"))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, []string{"broken.mp4"}, stats.FailedNames)
	assert.Equal(t, 1, stats.ExitCode())
	assert.Equal(t, 2, fake.writes[filepath.Join(f.in, "busy.mp4")], "one retry after the transient failure")
	assert.Contains(t, out.String(), "unreadable source")

	b, err := os.ReadFile(f.cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), `framestamp_tasks_total{outcome="failed",run_id="r1"} 1`)
	assert.Contains(t, string(b), `framestamp_task_retries_total{run_id="r1"} 1`)
}

func TestRun_CustomRetryClassifier(t *testing.T) {
	f := newFixture(t, "busy.mp4")
	logo := touch(t, f.root, "logo.png")
	f.cfg.Strategy = config.StrategyShared
	f.cfg.SharedAsset = logo
	fake := newFake()
	log, _ := newLogger(t)
	defer log.Close()

	never := func(error) bool { return false }
	stats, err := Run(context.Background(), &f.cfg, log, WithCompositor(fake), WithRetryable(never))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, fake.writes[filepath.Join(f.in, "busy.mp4")], "no retry when the classifier declines")
	assert.NoFileExists(t, filepath.Join(f.out, "busy_with_thumbnail.mp4"))
}

func TestRun_ConfigErrorsAbortBeforeWork(t *testing.T) {
	f := newFixture(t, "a.mp4")
	f.cfg.Strategy = config.StrategyShared
	f.cfg.SharedAsset = filepath.Join(f.root, "missing.png")
	log, _ := newLogger(t)
	defer log.Close()

	fake := newFake()
	_, err := Run(context.Background(), &f.cfg, log, WithCompositor(fake))
	assert.Error(t, err)
	assert.Empty(t, fake.writes)

	g := newFixture(t)
	g.cfg.InputPath = filepath.Join(g.root, "absent")
	_, err = Run(context.Background(), &g.cfg, log, WithCompositor(fake))
	assert.Error(t, err)
}

func TestRun_OutputInsideInputIsRejected(t *testing.T) {
	log, _ := newLogger(t)
	defer log.Close()
	fake := newFake()

	f := newFixture(t, "a.mp4")
	touch(t, f.assets, "a_thumb.png")
	f.cfg.OutputDir = filepath.Join(f.in, "out")
	_, err := Run(context.Background(), &f.cfg, log, WithCompositor(fake))
	require.Error(t, err)
	assert.NoDirExists(t, f.cfg.OutputDir)

	g := newFixture(t, "a.mp4")
	touch(t, g.assets, "a_thumb.png")
	g.cfg.InputPath = filepath.Join(g.in, "a.mp4")
	g.cfg.OutputDir = g.in
	_, err = Run(context.Background(), &g.cfg, log, WithCompositor(fake))
	require.Error(t, err)

	assert.Empty(t, fake.writes)
	assert.NoFileExists(t, filepath.Join(g.in, "a_with_thumbnail.mp4"))
}

func TestRun_TwiceSameOutputNames(t *testing.T) {
	f := newFixture(t, "a.mp4", "b.mov", "c.mkv")
	for _, a := range []string{"a_thumb.png", "b_thumbnail.png", "c.png"} {
		touch(t, f.assets, a)
	}
	listing := func() []string {
		entries, err := os.ReadDir(f.out)
		require.NoError(t, err)
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return names
	}

	var runs [][]string
	for i := 0; i < 2; i++ {
		log, _ := newLogger(t)
		stats, err := Run(context.Background(), &f.cfg, log, WithCompositor(newFake()))
		require.NoError(t, err)
		require.NoError(t, log.Close())
		assert.Equal(t, 3, stats.Succeeded)
		runs = append(runs, listing())
	}

	want := []string{"a_with_thumbnail.mp4", "b_with_thumbnail.mov", "c_with_thumbnail.mkv"}
	assert.Equal(t, want, runs[0])
	assert.Equal(t, runs[0], runs[1])
	for _, name := range runs[1] {
		assert.NotContains(t, name, "dup")
	}
}

func TestRun_NothingEligibleSucceeds(t *testing.T) {
	f := newFixture(t, "notes.txt")
	log, _ := newLogger(t)
	defer log.Close()

	stats, err := Run(context.Background(), &f.cfg, log, WithCompositor(newFake()))
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.ExitCode())
}

func TestRun_SingleVideoWatermarkDryRun(t *testing.T) {
	f := newFixture(t, "clip.mp4", "other.mp4")
	logo := touch(t, f.root, "logo.png")
	f.cfg.Mode = config.ModeWatermark
	f.cfg.Strategy = config.StrategyShared
	f.cfg.SharedAsset = logo
	f.cfg.WatermarkEnd = filepath.Join(f.root, "subscribe.png") // missing: falls back to logo
	f.cfg.InputPath = filepath.Join(f.in, "clip.mp4")
	f.cfg.DryRun = true

	pr, err := probe.ParseJSON([]byte(`{"streams":[{"index":0,"codec_type":"video","width":1080,"height":1920,"avg_frame_rate":"30/1"}],"format":{"duration":"20"}}`))
	require.NoError(t, err)
	log, out := newLogger(t)
	comp := ffmpeg.NewCompositor(ffmpeg.Options{
		DryRun: true,
		Log:    log,
		Probe:  func(context.Context, string) (*probe.ProbeResult, error) { return pr, nil },
	})

	stats, err := Run(context.Background(), &f.cfg, log, WithCompositor(comp))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Succeeded)
	assert.NoFileExists(t, filepath.Join(f.out, "clip_watermarked.mp4"))
	assert.Contains(t, out.String(), "[dry-run] ffmpeg")
	assert.Contains(t, out.String(), "overlay=235:960:enable='between(t,15.000,20.000)'")
	assert.Contains(t, out.String(), "end watermark asset")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t, "a.mp4", "b.mp4")
	logo := touch(t, f.root, "logo.png")
	f.cfg.Strategy = config.StrategyShared
	f.cfg.SharedAsset = logo
	log, _ := newLogger(t)
	defer log.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := Run(ctx, &f.cfg, log, WithCompositor(newFake()))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Failed)
	assert.Equal(t, 2, stats.Total)
}
