package overlay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Failure reasons. A failed Apply wraps exactly one of these.
var (
	ErrUnreadableSource = errors.New("unreadable source")
	ErrAssetNotFound    = errors.New("asset not found")
	ErrOverlay          = errors.New("overlay build failed")
	ErrComposite        = errors.New("composite failed")
	ErrWrite            = errors.New("write failed")
	ErrCancelled        = errors.New("cancelled")
)

// Logger is the subset of the process logger the Engine needs.
type Logger interface {
	Warn(string, ...interface{})
	Debug(string, ...interface{})
}

// Job is one overlay application.
type Job struct {
	Label  string // Progress label for log lines, e.g. "2/7".
	Input  string
	Output string
	Assets []string
}

// Engine applies a Spec through a Compositor. It holds no per-task state
// and is safe to share between workers.
type Engine struct {
	comp Compositor
	spec Spec
	enc  Encoding
	log  Logger
}

// NewEngine returns an Engine that encodes with DefaultEncoding.
func NewEngine(comp Compositor, spec Spec, log Logger) *Engine {
	return &Engine{comp: comp, spec: spec, enc: DefaultEncoding(), log: log}
}

// Apply runs the job. Cancellation is observed between stages; once the
// write starts it runs to completion. Every handle opened here is closed
// before Apply returns.
func (e *Engine) Apply(ctx context.Context, job Job) (err error) {
	if err := e.spec.Validate(len(job.Assets)); err != nil {
		return fmt.Errorf("%w: %v", ErrOverlay, err)
	}

	var handles []io.Closer
	defer func() {
		for i := len(handles) - 1; i >= 0; i-- {
			if cerr := handles[i].Close(); cerr != nil {
				e.log.Debug("[%s] release: %v", job.Label, cerr)
			}
		}
	}()

	if err := checkCancelled(ctx); err != nil {
		return err
	}
	src, err := e.comp.OpenSource(ctx, job.Input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadableSource, err)
	}
	handles = append(handles, src)
	info := src.Info()
	if info.Duration <= 0 || info.Width <= 0 || info.Height <= 0 {
		return fmt.Errorf("%w: no duration or frame size", ErrUnreadableSource)
	}

	assets, err := e.layerAssets(job)
	if err != nil {
		return err
	}

	windows := make([]Window, len(e.spec.Layers))
	for i, l := range e.spec.Layers {
		windows[i] = Schedule(l, info.Duration)
		if windows[i].FullLength && l.Policy == PolicyTrailing {
			e.log.Debug("[%s] %s: source %.2fs not longer than %.2fs window, showing full length",
				job.Label, l.Name, info.Duration, l.Window)
		}
	}

	clips := make([]Clip, 0, len(e.spec.Layers))
	for i, l := range e.spec.Layers {
		if err := checkCancelled(ctx); err != nil {
			return err
		}
		clip, err := e.comp.OpenImage(ctx, assets[i])
		if err != nil {
			return fmt.Errorf("%w: open %s: %v", ErrOverlay, assets[i], err)
		}
		handles = append(handles, clip)
		if err := e.shape(job, clip, l, windows[i], info); err != nil {
			return err
		}
		clips = append(clips, clip)
	}

	if err := checkCancelled(ctx); err != nil {
		return err
	}
	comp, err := e.comp.Composite(ctx, src, clips, Extension(windows))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrComposite, err)
	}
	handles = append(handles, comp)

	if err := checkCancelled(ctx); err != nil {
		return err
	}
	enc := e.enc
	enc.FrameRate = info.FrameRate
	// The encode is not preemptible; let it finish even if the run is
	// cancelled meanwhile.
	if err := comp.Write(context.WithoutCancel(ctx), job.Output, enc); err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return nil
}

// layerAssets returns the asset path for each layer, applying the primary
// fallback for layers that allow it.
func (e *Engine) layerAssets(job Job) ([]string, error) {
	paths := make([]string, len(e.spec.Layers))
	for i, l := range e.spec.Layers {
		p := job.Assets[l.Asset]
		if fileExists(p) {
			paths[i] = p
			continue
		}
		if l.FallbackToPrimary && l.Asset != 0 && fileExists(job.Assets[0]) {
			e.log.Warn("[%s] %s asset %s not found, using %s", job.Label, l.Name, p, job.Assets[0])
			paths[i] = job.Assets[0]
			continue
		}
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, p)
	}
	return paths, nil
}

func (e *Engine) shape(job Job, clip Clip, l Layer, w Window, info SourceInfo) error {
	if l.Placement.Cover {
		if err := clip.Resize(info.Width, info.Height); err != nil {
			return fmt.Errorf("%w: resize %s: %v", ErrOverlay, l.Name, err)
		}
	} else if err := clip.SetPosition(l.Placement.X, l.Placement.Y); err != nil {
		return fmt.Errorf("%w: position %s: %v", ErrOverlay, l.Name, err)
	}

	if err := clip.SetWindow(w.Start, w.End); err != nil {
		return fmt.Errorf("%w: schedule %s: %v", ErrOverlay, l.Name, err)
	}

	fade := FadeFor(l.Fade, w)
	if fade == 0 {
		if l.Fade > 0 {
			e.log.Debug("[%s] %s: fade %.2fs skipped for %.2fs window", job.Label, l.Name, l.Fade, w.Length())
		}
		return nil
	}
	if err := clip.Fade(fade); err != nil {
		if errors.Is(err, ErrFadeUnavailable) {
			e.log.Warn("[%s] %s: fade unavailable, continuing without it", job.Label, l.Name)
			return nil
		}
		return fmt.Errorf("%w: fade %s: %v", ErrOverlay, l.Name, err)
	}
	return nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCancelled, err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}
