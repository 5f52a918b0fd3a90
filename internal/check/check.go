// Package check provides system diagnostics (the check subcommand) and
// pre-run dependency validation (CheckDeps) for ffmpeg, ffprobe, the H.264
// and AAC encoders, and the filters the overlay graph uses.
package check

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrFfmpegNotFound   = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound  = errors.New("ffprobe not found on PATH")
	ErrEncoderMissing   = errors.New("ffmpeg lacks a required encoder (libx264, aac)")
	ErrFilterMissing    = errors.New("ffmpeg lacks a required filter (overlay, scale, format)")
	ErrTestEncodeFailed = errors.New("overlay test encode failed")
)

// Required encoders and filters. Fade is optional: without it overlays are
// drawn without fading.
var (
	requiredEncoders = []string{"libx264", "aac"}
	requiredFilters  = []string{"overlay", "scale", "format"}
	optionalFilters  = []string{"fade", "tpad", "apad"}
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Checker probes the local ffmpeg installation. The zero value uses PATH
// and real child processes.
type Checker struct {
	Ffmpeg  string // Default "ffmpeg".
	Ffprobe string // Default "ffprobe".

	LookPath func(string) (string, error)
	Output   func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Report is what CheckDeps learned about the installation.
type Report struct {
	FfmpegVersion string
	FadeAvailable bool
	Missing       []string // Optional filters that are absent.
}

func (c *Checker) ffmpeg() string {
	if c.Ffmpeg == "" {
		return "ffmpeg"
	}
	return c.Ffmpeg
}

func (c *Checker) ffprobe() string {
	if c.Ffprobe == "" {
		return "ffprobe"
	}
	return c.Ffprobe
}

func (c *Checker) lookPath(name string) error {
	if c.LookPath != nil {
		_, err := c.LookPath(name)
		return err
	}
	_, err := exec.LookPath(name)
	return err
}

func (c *Checker) output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if c.Output != nil {
		return c.Output(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// RunCheck runs the interactive check flow: prints the ffmpeg version,
// encoder and filter availability, and a short test encode. It is
// informational only and does not stop on failure.
func (c *Checker) RunCheck(ctx context.Context, log Logger) {
	log.Info("=== System Check ===")

	if err := c.lookPath(c.ffmpeg()); err != nil {
		log.Error("ffmpeg not found")
		return
	}
	if v, err := c.version(ctx); err != nil {
		log.Warn("ffmpeg found but -version failed: %v", err)
	} else {
		log.Success("ffmpeg: %s", v)
	}
	if err := c.lookPath(c.ffprobe()); err != nil {
		log.Error("ffprobe not found")
	} else {
		log.Success("ffprobe found")
	}

	encoders, err := c.list(ctx, "-encoders")
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
	}
	for _, e := range requiredEncoders {
		reportItem(log, "encoder", e, encoders[e], true)
	}

	filters, err := c.list(ctx, "-filters")
	if err != nil {
		log.Warn("Could not list filters: %v", err)
	}
	for _, f := range requiredFilters {
		reportItem(log, "filter", f, filters[f], true)
	}
	for _, f := range optionalFilters {
		reportItem(log, "filter", f, filters[f], false)
	}

	log.Info("Testing overlay encode...")
	if c.testEncode(ctx) {
		log.Success("Overlay test encode works")
	} else {
		log.Error("Overlay test encode failed")
	}
}

func reportItem(log Logger, kind, name string, ok, required bool) {
	switch {
	case ok:
		log.Success("%s %s available", kind, name)
	case required:
		log.Error("%s %s missing", kind, name)
	default:
		log.Warn("%s %s missing (optional)", kind, name)
	}
}

// CheckDeps is the pre-run validation: ffmpeg and ffprobe must be on PATH,
// the required encoders and filters must exist, and a one-frame overlay
// encode must succeed. A missing fade filter is reported, not fatal.
func (c *Checker) CheckDeps(ctx context.Context) (Report, error) {
	var rep Report
	if err := c.lookPath(c.ffmpeg()); err != nil {
		return rep, ErrFfmpegNotFound
	}
	if err := c.lookPath(c.ffprobe()); err != nil {
		return rep, ErrFfprobeNotFound
	}
	if v, err := c.version(ctx); err == nil {
		rep.FfmpegVersion = v
	}

	encoders, err := c.list(ctx, "-encoders")
	if err != nil {
		return rep, err
	}
	for _, e := range requiredEncoders {
		if !encoders[e] {
			return rep, ErrEncoderMissing
		}
	}

	filters, err := c.list(ctx, "-filters")
	if err != nil {
		return rep, err
	}
	for _, f := range requiredFilters {
		if !filters[f] {
			return rep, ErrFilterMissing
		}
	}
	for _, f := range optionalFilters {
		if !filters[f] {
			rep.Missing = append(rep.Missing, f)
		}
	}
	rep.FadeAvailable = filters["fade"]

	if !c.testEncode(ctx) {
		return rep, ErrTestEncodeFailed
	}
	return rep, nil
}

// --- internal helpers ---

func (c *Checker) version(ctx context.Context) (string, error) {
	out, err := c.output(ctx, c.ffmpeg(), "-version")
	if err != nil {
		return "", err
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	return firstLine, nil
}

// list runs `ffmpeg -hide_banner <flag>` and returns the set of names in
// the second column of its table (encoders and filters share the layout).
func (c *Checker) list(ctx context.Context, flag string) (map[string]bool, error) {
	out, err := c.output(ctx, c.ffmpeg(), "-hide_banner", flag)
	if err != nil {
		return map[string]bool{}, err
	}
	return parseTable(string(out)), nil
}

func parseTable(out string) map[string]bool {
	names := make(map[string]bool)
	past := false
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		// Rows start after the "------" separator of the legend.
		if strings.HasPrefix(fields[0], "---") {
			past = true
			continue
		}
		if !past || len(fields) < 2 {
			continue
		}
		names[fields[1]] = true
	}
	return names
}

// testEncode overlays a generated still on a generated clip with the
// production encoder settings.
func (c *Checker) testEncode(ctx context.Context) bool {
	_, err := c.output(ctx, c.ffmpeg(), testEncodeArgs()...)
	return err == nil
}

func testEncodeArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.2",
		"-f", "lavfi", "-i", "color=white:s=64x64:d=0.2",
		"-filter_complex", "[1:v]format=rgba[ov];[0:v][ov]overlay=8:8:enable='between(t,0,0.2)'",
		"-c:v", "libx264", "-preset", "medium", "-crf", "23", "-pix_fmt", "yuv420p",
		"-f", "null", "-",
	}
}
