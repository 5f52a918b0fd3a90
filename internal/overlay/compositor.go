package overlay

import (
	"context"
	"errors"
)

// ErrFadeUnavailable is returned by Clip.Fade when the video engine cannot
// fade. The Engine treats it as a warning, not a failure.
var ErrFadeUnavailable = errors.New("fade not available")

// SourceInfo describes an opened source video.
type SourceInfo struct {
	Duration  float64 // Seconds.
	Width     int
	Height    int
	FrameRate float64
	HasAudio  bool
}

// Encoding holds the fixed output encode parameters.
type Encoding struct {
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
	PixFmt     string
	FrameRate  float64 // Taken from the source.
}

// DefaultEncoding returns H.264 CRF 23 at the medium preset with AAC audio.
func DefaultEncoding() Encoding {
	return Encoding{
		VideoCodec: "libx264",
		AudioCodec: "aac",
		Preset:     "medium",
		CRF:        23,
		PixFmt:     "yuv420p",
	}
}

// Source is an opened source video.
type Source interface {
	Info() SourceInfo
	Close() error
}

// Clip is an image opened as a timed overlay clip.
type Clip interface {
	Resize(width, height int) error
	SetPosition(x, y int) error
	SetWindow(start, end float64) error
	// Fade sets fade-in at the window start and fade-out at its end.
	Fade(d float64) error
	Close() error
}

// Composite is the layered result of a source and its clips.
type Composite interface {
	// Write encodes the composite to path. It blocks until the encode ends.
	Write(ctx context.Context, path string, enc Encoding) error
	Close() error
}

// Compositor is the video engine. Handles it returns belong to one task
// and must not be shared across goroutines.
type Compositor interface {
	OpenSource(ctx context.Context, path string) (Source, error)
	OpenImage(ctx context.Context, path string) (Clip, error)
	// Composite layers clips over src in order. extend > 0 lengthens the
	// output past the source end by holding its last frame.
	Composite(ctx context.Context, src Source, clips []Clip, extend float64) (Composite, error)
}
