// Package ffmpeg is the ffmpeg/ffprobe-backed overlay.Compositor.
//
// Handles returned by the Compositor are descriptions, not decoded frames:
// opening a source probes it, opening an image records the path, and the
// clip setters record scale, position, timing, and fade. Write turns the
// whole description into one ffmpeg command (builder.go) and runs it
// (executor.go). A failed run is an *ExecError carrying the stderr tail,
// which IsTransient classifies for the retry policy (errors.go).
package ffmpeg
