// Package overlay applies one overlay job to one video.
//
// A [Spec] describes the layers to draw and when to draw them. The [Engine]
// turns a Spec plus a source into a timed composite through a [Compositor],
// which is the only thing that touches the video engine. Every handle the
// Engine opens is released before Apply returns, on every path.
package overlay

import (
	"errors"
	"fmt"

	"github.com/backmassage/framestamp/internal/config"
)

// Policy decides when a layer is visible relative to the source.
type Policy int

const (
	// PolicyEntire shows the layer for the whole source.
	PolicyEntire Policy = iota
	// PolicyTrailing shows the layer for the last Window seconds. A source
	// no longer than Window shows it for its full length instead.
	PolicyTrailing
	// PolicyAppend shows the layer for Window seconds after the source
	// ends, holding the last frame and padding audio.
	PolicyAppend
)

func (p Policy) String() string {
	switch p {
	case PolicyEntire:
		return "entire"
	case PolicyTrailing:
		return "trailing"
	case PolicyAppend:
		return "append"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Placement is either "cover the whole frame" or a fixed top-left offset.
type Placement struct {
	Cover bool
	X, Y  int
}

// Cover returns a Placement that scales the layer to the frame size.
func Cover() Placement { return Placement{Cover: true} }

// At returns a Placement at fixed pixel coordinates.
func At(x, y int) Placement { return Placement{X: x, Y: y} }

func (p Placement) String() string {
	if p.Cover {
		return "cover"
	}
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Layer is one image drawn over the source.
type Layer struct {
	Name      string    // Used in log lines only.
	Asset     int       // Index into the task's asset list.
	Placement Placement
	Policy    Policy
	Window    float64 // Seconds; ignored by PolicyEntire.
	Fade      float64 // Fade in and out, seconds; 0 disables.

	// FallbackToPrimary lets a missing asset reuse asset 0 with a warning
	// instead of failing the task.
	FallbackToPrimary bool
}

// Spec is the immutable overlay configuration for a whole run.
type Spec struct {
	Layers []Layer
}

// Validate checks the layer list against the number of assets each task
// carries.
func (s Spec) Validate(assets int) error {
	if len(s.Layers) == 0 {
		return errors.New("overlay spec has no layers")
	}
	for _, l := range s.Layers {
		if l.Asset < 0 || l.Asset >= assets {
			return fmt.Errorf("layer %q: asset index %d out of range (have %d)", l.Name, l.Asset, assets)
		}
		if l.Policy != PolicyEntire && l.Window <= 0 {
			return fmt.Errorf("layer %q: %s policy needs a positive window", l.Name, l.Policy)
		}
		if l.Fade < 0 {
			return fmt.Errorf("layer %q: negative fade", l.Name)
		}
		if l.Placement.X < 0 || l.Placement.Y < 0 {
			return fmt.Errorf("layer %q: negative position", l.Name)
		}
	}
	return nil
}

// FromConfig builds the Spec for the configured mode.
//
// Thumbnail mode draws one full-frame layer over the tail of the source,
// or after it when ThumbAppend is set. Watermark mode draws the primary
// asset for the whole source and the end asset (task asset 1) for the
// last EndWindow seconds.
func FromConfig(cfg *config.Config) Spec {
	if cfg.Mode == config.ModeWatermark {
		return Spec{Layers: []Layer{
			{
				Name:      "watermark",
				Asset:     0,
				Placement: At(cfg.MainX, cfg.MainY),
				Policy:    PolicyEntire,
			},
			{
				Name:              "end watermark",
				Asset:             1,
				Placement:         At(cfg.EndX, cfg.EndY),
				Policy:            PolicyTrailing,
				Window:            cfg.EndWindow,
				FallbackToPrimary: true,
			},
		}}
	}

	policy := PolicyTrailing
	if cfg.ThumbAppend {
		policy = PolicyAppend
	}
	return Spec{Layers: []Layer{{
		Name:      "thumbnail",
		Asset:     0,
		Placement: Cover(),
		Policy:    policy,
		Window:    cfg.ThumbDuration,
		Fade:      cfg.ThumbFade,
	}}}
}

// ExtraAssets returns the shared assets every task carries after its
// resolved primary asset.
func ExtraAssets(cfg *config.Config) []string {
	if cfg.Mode == config.ModeWatermark {
		return []string{cfg.WatermarkEnd}
	}
	return nil
}
