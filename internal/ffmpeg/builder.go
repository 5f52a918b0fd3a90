package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/framestamp/internal/overlay"
)

// Layer is one image input in the filter graph.
type Layer struct {
	Path   string
	Cover  bool // Scale to Width x Height at 0,0.
	Width  int
	Height int
	X, Y   int
	Start  float64
	End    float64
	Fade   float64
}

// Graph is everything needed to build one overlay encode.
type Graph struct {
	Input    string
	Output   string
	Duration float64 // Source duration, seconds.
	Extend   float64 // Seconds to hold the last frame past the source end.
	HasAudio bool
	Layers   []Layer
	Encoding overlay.Encoding
	Verbose  bool
}

// Build constructs the complete ffmpeg argument slice for g, starting with
// the binary name.
func Build(bin string, g *Graph) []string {
	args := make([]string, 0, 48)

	// --- Preamble ---
	args = append(args, bin, "-hide_banner", "-nostdin", "-y")
	if g.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Inputs: source, then one looped still per layer ---
	args = append(args, "-i", g.Input)
	total := g.Duration + g.Extend
	for _, l := range g.Layers {
		args = append(args,
			"-loop", "1",
			"-framerate", rate(g.Encoding.FrameRate),
			"-t", secs(total),
			"-i", l.Path,
		)
	}

	// --- Filter graph and maps ---
	args = append(args, "-filter_complex", FilterComplex(g), "-map", "[vout]")
	if g.HasAudio {
		if g.Extend > 0 {
			args = append(args, "-map", "[aout]")
		} else {
			args = append(args, "-map", "0:a?")
		}
	}

	// --- Encode ---
	enc := g.Encoding
	args = append(args,
		"-c:v", enc.VideoCodec,
		"-preset", enc.Preset,
		"-crf", strconv.Itoa(enc.CRF),
		"-pix_fmt", enc.PixFmt,
	)
	if enc.FrameRate > 0 {
		args = append(args, "-r", rate(enc.FrameRate))
	}
	if g.HasAudio {
		args = append(args, "-c:a", enc.AudioCodec)
	} else {
		args = append(args, "-an")
	}

	// --- Output ---
	args = append(args, "-t", secs(total), g.Output)
	return args
}

// FilterComplex renders the -filter_complex value: each still is scaled or
// left as is, converted to rgba, optionally faded on its alpha channel, and
// overlaid on the running base during its window. The final video label is
// [vout] and, when extending with audio, the padded audio is [aout].
func FilterComplex(g *Graph) string {
	var chains []string

	base := "[0:v]"
	if g.Extend > 0 {
		chains = append(chains, fmt.Sprintf("[0:v]tpad=stop_mode=clone:stop_duration=%s[base]", secs(g.Extend)))
		base = "[base]"
		if g.HasAudio {
			chains = append(chains, fmt.Sprintf("[0:a]apad=pad_dur=%s[aout]", secs(g.Extend)))
		}
	}

	if len(g.Layers) == 0 {
		return strings.Join(append(chains, base+"null[vout]"), ";")
	}

	for i, l := range g.Layers {
		fb := newFilterChain()
		if l.Cover {
			fb.scale(l.Width, l.Height)
		}
		fb.add("format=rgba")
		if l.Fade > 0 {
			fb.add(fmt.Sprintf("fade=t=in:st=%s:d=%s:alpha=1", secs(l.Start), secs(l.Fade)))
			fb.add(fmt.Sprintf("fade=t=out:st=%s:d=%s:alpha=1", secs(l.End-l.Fade), secs(l.Fade)))
		}
		ov := fmt.Sprintf("[ov%d]", i)
		chains = append(chains, fmt.Sprintf("[%d:v]%s%s", i+1, fb.build(), ov))

		out := fmt.Sprintf("[v%d]", i)
		if i == len(g.Layers)-1 {
			out = "[vout]"
		}
		x, y := l.X, l.Y
		if l.Cover {
			x, y = 0, 0
		}
		chains = append(chains, fmt.Sprintf("%s%soverlay=%d:%d:enable='between(t,%s,%s)'%s",
			base, ov, x, y, secs(l.Start), secs(l.End), out))
		base = out
	}
	return strings.Join(chains, ";")
}

// filterChain collects comma-joined filters for one input.
type filterChain struct{ filters []string }

func newFilterChain() *filterChain { return &filterChain{} }

func (fc *filterChain) scale(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	fc.filters = append(fc.filters, fmt.Sprintf("scale=%d:%d", w, h))
}

func (fc *filterChain) add(f string) { fc.filters = append(fc.filters, f) }

func (fc *filterChain) build() string { return strings.Join(fc.filters, ",") }

// secs formats seconds with millisecond precision.
func secs(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// rate formats a frame rate, falling back to 30 when unknown.
func rate(fps float64) string {
	if fps <= 0 {
		fps = 30
	}
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

// CommandString renders args for logs, quoting anything with spaces or
// filter-graph punctuation.
func CommandString(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " '\";[]()") {
			parts[i] = strconv.Quote(a)
			continue
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}

func (g *Graph) hasFade() bool {
	for _, l := range g.Layers {
		if l.Fade > 0 {
			return true
		}
	}
	return false
}

func (g *Graph) stripFades() {
	for i := range g.Layers {
		g.Layers[i].Fade = 0
	}
}
