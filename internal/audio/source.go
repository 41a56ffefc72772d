// Package audio provides microphone frame capture and PCM encoding helpers.
package audio

import (
	"context"
	"time"
)

// Source yields fixed-duration PCM16LE mono frames from a live input
// device. A Source is owned by exactly one recording attempt; Close
// releases the underlying device and must be safe to call once the
// attempt ends for any reason.
type Source interface {
	// ReadFrame blocks for at most one frame interval and returns the next
	// frame. It honors ctx cancellation between and during reads.
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}

// Opener acquires a Source for one recording attempt.
type Opener interface {
	Open(ctx context.Context) (Source, error)
}

// Config describes the capture format shared by all sources.
type Config struct {
	SampleRate    int
	FrameDuration time.Duration
}

// FrameSamples returns the number of int16 samples per frame.
func (c Config) FrameSamples() int {
	return c.SampleRate * int(c.FrameDuration/time.Millisecond) / 1000
}

// FrameBytes returns the size of one PCM16LE frame in bytes.
func (c Config) FrameBytes() int {
	return c.FrameSamples() * 2
}
