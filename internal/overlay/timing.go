package overlay

// Window is the interval, in output seconds, during which a layer is drawn.
type Window struct {
	Start float64
	End   float64
	// Extend is how far the output runs past the source end. Only
	// PolicyAppend sets it.
	Extend float64
	// FullLength is set when a trailing window was widened to the whole
	// source because the source is not longer than the window.
	FullLength bool
}

// Length returns End - Start.
func (w Window) Length() float64 { return w.End - w.Start }

// Schedule places a layer on a source of the given duration.
func Schedule(l Layer, duration float64) Window {
	switch l.Policy {
	case PolicyTrailing:
		if duration <= l.Window {
			return Window{Start: 0, End: duration, FullLength: true}
		}
		return Window{Start: duration - l.Window, End: duration}
	case PolicyAppend:
		return Window{Start: duration, End: duration + l.Window, Extend: l.Window}
	default:
		return Window{Start: 0, End: duration}
	}
}

// FadeFor returns the fade duration to apply to a layer drawn over w, or 0
// when the configured fade is not strictly less than half the window.
func FadeFor(fade float64, w Window) float64 {
	if fade <= 0 || fade >= w.Length()/2 {
		return 0
	}
	return fade
}

// Extension returns the largest Extend across windows.
func Extension(ws []Window) float64 {
	var ext float64
	for _, w := range ws {
		if w.Extend > ext {
			ext = w.Extend
		}
	}
	return ext
}
