package probe

import (
	"strconv"
	"strings"
)

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
}

// VideoStream holds the parsed properties of a single video stream.
// Attached pictures (cover art) are never selected.
type VideoStream struct {
	Index        int
	Codec        string
	Width        int
	Height       int
	Duration     float64
	AvgFrameRate string
	RFrameRate   string
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index      int
	Codec      string
	Channels   int
	SampleRate int
}

// ProbeResult is the fully parsed output of a single ffprobe JSON call.
// PrimaryVideo is the first non-attached-pic video stream (nil if none).
type ProbeResult struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
	AudioStreams []AudioStream
}

// Duration returns the source duration in seconds: the container value when
// present, otherwise the primary video stream's own duration.
func (p *ProbeResult) Duration() float64 {
	if p.Format.Duration > 0 {
		return p.Format.Duration
	}
	if p.PrimaryVideo != nil {
		return p.PrimaryVideo.Duration
	}
	return 0
}

// FrameSize returns the primary video's width and height, or zeros.
func (p *ProbeResult) FrameSize() (int, int) {
	if p.PrimaryVideo == nil {
		return 0, 0
	}
	return p.PrimaryVideo.Width, p.PrimaryVideo.Height
}

// FrameRate returns frames per second from avg_frame_rate, falling back to
// r_frame_rate. Zero means unknown.
func (p *ProbeResult) FrameRate() float64 {
	if p.PrimaryVideo == nil {
		return 0
	}
	if fps := ParseRate(p.PrimaryVideo.AvgFrameRate); fps > 0 {
		return fps
	}
	return ParseRate(p.PrimaryVideo.RFrameRate)
}

// HasAudio reports whether the source carries at least one audio stream.
func (p *ProbeResult) HasAudio() bool {
	return len(p.AudioStreams) > 0
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (p *ProbeResult) Resolution() string {
	w, h := p.FrameSize()
	if w <= 0 || h <= 0 {
		return "unknown"
	}
	return strconv.Itoa(w) + "x" + strconv.Itoa(h)
}

// ParseRate parses an ffprobe rational ("30000/1001") or plain number
// ("25") into a float. Malformed input and "0/0" return 0.
func ParseRate(s string) float64 {
	s = strings.TrimSpace(s)
	num, den, found := strings.Cut(s, "/")
	if !found {
		return parseFloat(s)
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
