package ffmpeg

import (
	"context"
	"errors"
	"fmt"

	"github.com/backmassage/framestamp/internal/overlay"
	"github.com/backmassage/framestamp/internal/probe"
)

var errClosed = errors.New("handle already closed")

// Logger is what the Compositor logs through in dry-run and verbose mode.
type Logger interface {
	Info(string, ...interface{})
	Debug(string, ...interface{})
}

// Options configures a Compositor.
type Options struct {
	FfmpegPath  string // Default "ffmpeg".
	FfprobePath string // Default "ffprobe".
	// NoFade makes Clip.Fade report overlay.ErrFadeUnavailable, set when
	// the fade filter is missing from the local ffmpeg build.
	NoFade  bool
	DryRun  bool // Log the command instead of running it.
	Verbose bool
	Runner  Runner // Default Executor{Tee: Verbose}.
	// Probe replaces ffprobe; used by tests.
	Probe func(ctx context.Context, path string) (*probe.ProbeResult, error)
	Log   Logger
}

// Compositor implements overlay.Compositor with ffmpeg.
type Compositor struct {
	opts Options
}

var _ overlay.Compositor = (*Compositor)(nil)

// NewCompositor fills option defaults and returns a Compositor.
func NewCompositor(opts Options) *Compositor {
	if opts.FfmpegPath == "" {
		opts.FfmpegPath = "ffmpeg"
	}
	if opts.FfprobePath == "" {
		opts.FfprobePath = "ffprobe"
	}
	if opts.Runner == nil {
		opts.Runner = Executor{Tee: opts.Verbose}
	}
	if opts.Probe == nil {
		bin := opts.FfprobePath
		opts.Probe = func(ctx context.Context, path string) (*probe.ProbeResult, error) {
			return probe.ProbeWith(ctx, bin, path)
		}
	}
	return &Compositor{opts: opts}
}

// OpenSource probes path.
func (c *Compositor) OpenSource(ctx context.Context, path string) (overlay.Source, error) {
	pr, err := c.opts.Probe(ctx, path)
	if err != nil {
		return nil, err
	}
	if pr.PrimaryVideo == nil {
		return nil, fmt.Errorf("%s: no video stream", path)
	}
	w, h := pr.FrameSize()
	if c.opts.Log != nil {
		c.opts.Log.Debug("probe %s: %s, %.3fs, %.2f fps, audio=%t",
			path, pr.Resolution(), pr.Duration(), pr.FrameRate(), pr.HasAudio())
	}
	return &source{
		path: path,
		info: overlay.SourceInfo{
			Duration:  pr.Duration(),
			Width:     w,
			Height:    h,
			FrameRate: pr.FrameRate(),
			HasAudio:  pr.HasAudio(),
		},
	}, nil
}

// OpenImage records path as a still input.
func (c *Compositor) OpenImage(_ context.Context, path string) (overlay.Clip, error) {
	return &clip{layer: Layer{Path: path}, noFade: c.opts.NoFade}, nil
}

// Composite collects src and clips into a graph ready to Write.
func (c *Compositor) Composite(_ context.Context, src overlay.Source, clips []overlay.Clip, extend float64) (overlay.Composite, error) {
	s, ok := src.(*source)
	if !ok || s.closed {
		return nil, errors.New("source not opened by this compositor")
	}
	g := &Graph{
		Input:    s.path,
		Duration: s.info.Duration,
		Extend:   extend,
		HasAudio: s.info.HasAudio,
		Verbose:  c.opts.Verbose,
	}
	for _, oc := range clips {
		cl, ok := oc.(*clip)
		if !ok || cl.closed {
			return nil, errors.New("clip not opened by this compositor")
		}
		g.Layers = append(g.Layers, cl.layer)
	}
	return &composite{c: c, graph: g}, nil
}

type source struct {
	path   string
	info   overlay.SourceInfo
	closed bool
}

func (s *source) Info() overlay.SourceInfo { return s.info }

func (s *source) Close() error {
	if s.closed {
		return errClosed
	}
	s.closed = true
	return nil
}

type clip struct {
	layer  Layer
	noFade bool
	closed bool
}

func (c *clip) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid size %dx%d", w, h)
	}
	c.layer.Cover, c.layer.Width, c.layer.Height = true, w, h
	return nil
}

func (c *clip) SetPosition(x, y int) error {
	c.layer.X, c.layer.Y = x, y
	return nil
}

func (c *clip) SetWindow(start, end float64) error {
	if end <= start || start < 0 {
		return fmt.Errorf("invalid window %.3f-%.3f", start, end)
	}
	c.layer.Start, c.layer.End = start, end
	return nil
}

func (c *clip) Fade(d float64) error {
	if c.noFade {
		return overlay.ErrFadeUnavailable
	}
	c.layer.Fade = d
	return nil
}

func (c *clip) Close() error {
	if c.closed {
		return errClosed
	}
	c.closed = true
	return nil
}

type composite struct {
	c      *Compositor
	graph  *Graph
	closed bool
}

// Write builds the command and runs it. In dry-run mode it only logs it.
func (cp *composite) Write(ctx context.Context, path string, enc overlay.Encoding) error {
	if cp.closed {
		return errClosed
	}
	cp.graph.Output = path
	cp.graph.Encoding = enc
	args := Build(cp.c.opts.FfmpegPath, cp.graph)

	if cp.c.opts.DryRun {
		if cp.c.opts.Log != nil {
			cp.c.opts.Log.Info("[dry-run] %s", CommandString(args))
		}
		return nil
	}
	err := cp.run(ctx, args)

	// An ffmpeg built without the fade filter fails at graph setup, before
	// any frame is written. Encode once more with fades stripped.
	var ee *ExecError
	if err != nil && errors.As(err, &ee) && MatchFadeMissing(ee.Stderr) && cp.graph.hasFade() {
		if cp.c.opts.Log != nil {
			cp.c.opts.Log.Info("fade filter unavailable, encoding %s without fades", path)
		}
		cp.graph.stripFades()
		err = cp.run(ctx, Build(cp.c.opts.FfmpegPath, cp.graph))
	}
	return err
}

func (cp *composite) run(ctx context.Context, args []string) error {
	if cp.c.opts.Log != nil {
		cp.c.opts.Log.Debug("exec: %s", CommandString(args))
	}
	return cp.c.opts.Runner.Run(ctx, args)
}

func (cp *composite) Close() error {
	if cp.closed {
		return errClosed
	}
	cp.closed = true
	return nil
}
