package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ProbeWith runs a single ffprobe JSON call against path using the given
// ffprobe binary and returns the parsed result. A file ffprobe cannot read,
// or one without a video stream, is an error; the last line ffprobe wrote
// to stderr is folded into it.
func ProbeWith(ctx context.Context, ffprobe, path string) (*ProbeResult, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("ffprobe %q: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	pr, err := ParseJSON(out)
	if err != nil {
		return nil, err
	}
	if pr.PrimaryVideo == nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, ErrNoVideo)
	}
	return pr, nil
}

// ErrNoVideo means the file has no drawable video stream.
var ErrNoVideo = errors.New("no video stream")

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var doc probeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	pr := &ProbeResult{
		Format: FormatInfo{
			Filename:   doc.Format.Filename,
			FormatName: doc.Format.FormatName,
			Duration:   doc.Format.Duration.float(),
			Size:       int64(doc.Format.Size.float()),
			BitRate:    int64(doc.Format.BitRate.float()),
		},
	}
	for _, s := range doc.Streams {
		switch s.CodecType {
		case "video":
			if pr.PrimaryVideo != nil || s.Disposition["attached_pic"] == 1 {
				continue
			}
			pr.PrimaryVideo = &VideoStream{
				Index:        s.Index,
				Codec:        s.CodecName,
				Width:        s.Width,
				Height:       s.Height,
				Duration:     s.Duration.float(),
				AvgFrameRate: s.AvgFrameRate,
				RFrameRate:   s.RFrameRate,
			}
		case "audio":
			pr.AudioStreams = append(pr.AudioStreams, AudioStream{
				Index:      s.Index,
				Codec:      s.CodecName,
				Channels:   s.Channels,
				SampleRate: int(s.SampleRate.float()),
			})
		}
	}
	return pr, nil
}

// probeDoc mirrors the parts of `ffprobe -print_format json` we read.
type probeDoc struct {
	Format struct {
		Filename   string    `json:"filename"`
		FormatName string    `json:"format_name"`
		Duration   numString `json:"duration"`
		Size       numString `json:"size"`
		BitRate    numString `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		Index        int            `json:"index"`
		CodecName    string         `json:"codec_name"`
		CodecType    string         `json:"codec_type"`
		Width        int            `json:"width"`
		Height       int            `json:"height"`
		Duration     numString      `json:"duration"`
		AvgFrameRate string         `json:"avg_frame_rate"`
		RFrameRate   string         `json:"r_frame_rate"`
		Channels     int            `json:"channels"`
		SampleRate   numString      `json:"sample_rate"`
		Disposition  map[string]int `json:"disposition"`
	} `json:"streams"`
}

// numString is a number ffprobe prints as a JSON string. Missing or
// malformed values read as zero.
type numString string

func (n numString) float() float64 {
	return parseFloat(string(n))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
