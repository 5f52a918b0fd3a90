// Package probe provides ffprobe-based inspection of source videos. A single
// JSON call per file yields everything the overlay engine needs: duration,
// frame size, frame rate, and whether there is an audio stream to carry over.
package probe
