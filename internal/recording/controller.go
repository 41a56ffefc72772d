// Package recording turns a live frame sequence into one finished
// utterance, or reports that nothing usable was captured.
package recording

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/audio"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/vad"
)

// Outcome describes how a recording attempt ended.
type Outcome string

const (
	// OutcomeCaptured means at least one speech frame was observed and the
	// utterance buffer is complete.
	OutcomeCaptured Outcome = "captured"
	// OutcomeNoSpeech means the attempt ended without a single speech
	// frame; downstream stages must not be invoked.
	OutcomeNoSpeech Outcome = "no_speech"
	// OutcomeCancelled means the attempt was cut short deliberately, e.g.
	// by a wake-word interrupt or shutdown. Not an error.
	OutcomeCancelled Outcome = "cancelled"
)

// Utterance is one complete captured speech segment.
type Utterance struct {
	PCM        []byte
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Result is the terminal report of one recording attempt.
type Result struct {
	Outcome   Outcome
	Utterance *Utterance
}

// Config bounds a single recording attempt. SilenceTimeout is a rolling
// window: it resets on every speech frame and accumulates on every
// silence frame, from the moment recording starts. MaxDuration is a hard
// ceiling independent of speech activity.
type Config struct {
	SampleRate     int
	FrameDuration  time.Duration
	SilenceTimeout time.Duration
	MaxDuration    time.Duration
}

// Capture acquires a source from the opener, runs one recording attempt,
// and releases the device before returning. The device is never shared:
// the source is closed on every path out of this function.
func Capture(ctx context.Context, opener audio.Opener, classifier vad.Classifier, cfg Config) (Result, error) {
	src, err := opener.Open(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("open audio source: %w", err)
	}
	defer src.Close()
	return Run(ctx, src, classifier, cfg)
}

// Run consumes frames from src until the rolling silence window fills,
// the hard ceiling is reached, or ctx is cancelled. Time is accounted in
// whole frames, so the loop observes cancellation at least once per frame
// interval. A source read error is returned as an error; cancellation is
// a Result, not an error.
func Run(ctx context.Context, src audio.Source, classifier vad.Classifier, cfg Config) (Result, error) {
	var (
		buf        []byte
		elapsed    time.Duration
		silence    time.Duration
		speechSeen bool
	)

	for {
		if ctx.Err() != nil {
			return Result{Outcome: OutcomeCancelled}, nil
		}

		frame, err := src.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				return Result{Outcome: OutcomeCancelled}, nil
			}
			return Result{}, fmt.Errorf("read frame: %w", err)
		}

		buf = append(buf, frame...)
		elapsed += cfg.FrameDuration

		if classifier.IsSpeech(frame) {
			speechSeen = true
			silence = 0
		} else {
			silence += cfg.FrameDuration
		}

		if silence >= cfg.SilenceTimeout || elapsed >= cfg.MaxDuration {
			break
		}
	}

	if !speechSeen {
		return Result{Outcome: OutcomeNoSpeech}, nil
	}
	return Result{
		Outcome: OutcomeCaptured,
		Utterance: &Utterance{
			PCM:        buf,
			SampleRate: cfg.SampleRate,
			Channels:   1,
			Duration:   elapsed,
		},
	}, nil
}
