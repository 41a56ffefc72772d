package recording

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/audio"
)

// scriptedSource replays a fixed frame sequence. After the script runs out
// it keeps yielding silence frames so timer-driven termination can be
// exercised without a real device.
type scriptedSource struct {
	frames [][]byte
	next   int
	closed bool
	err    error
}

func (s *scriptedSource) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil && s.next >= len(s.frames) {
		return nil, s.err
	}
	if s.next < len(s.frames) {
		f := s.frames[s.next]
		s.next++
		return f, nil
	}
	return make([]byte, frameBytes), nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

// markClassifier treats any frame whose first byte is nonzero as speech.
type markClassifier struct{}

func (markClassifier) IsSpeech(frame []byte) bool {
	return len(frame) > 0 && frame[0] != 0
}

const frameBytes = 960

func speechFrame() []byte {
	f := make([]byte, frameBytes)
	f[0] = 1
	return f
}

func silenceFrame() []byte {
	return make([]byte, frameBytes)
}

func testConfig() Config {
	return Config{
		SampleRate:     16000,
		FrameDuration:  30 * time.Millisecond,
		SilenceTimeout: 150 * time.Millisecond,
		MaxDuration:    600 * time.Millisecond,
	}
}

func TestRunAllSilenceReportsNoSpeech(t *testing.T) {
	src := &scriptedSource{}
	res, err := Run(context.Background(), src, markClassifier{}, testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Outcome != OutcomeNoSpeech {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeNoSpeech)
	}
	if res.Utterance != nil {
		t.Fatalf("Utterance = %+v, want nil for no-speech result", res.Utterance)
	}
}

func TestRunStopsAtSilenceTimeoutAfterSpeech(t *testing.T) {
	cfg := testConfig()
	var frames [][]byte
	for i := 0; i < 10; i++ {
		frames = append(frames, speechFrame())
	}
	src := &scriptedSource{frames: frames}

	res, err := Run(context.Background(), src, markClassifier{}, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Outcome != OutcomeCaptured {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeCaptured)
	}
	// 10 speech frames (300ms) + 5 silence frames (150ms) = 450ms.
	want := 450 * time.Millisecond
	if res.Utterance.Duration != want {
		t.Fatalf("Duration = %s, want %s", res.Utterance.Duration, want)
	}
	if len(res.Utterance.PCM) != 15*frameBytes {
		t.Fatalf("len(PCM) = %d, want %d", len(res.Utterance.PCM), 15*frameBytes)
	}
}

func TestRunHardCeilingBoundsLongSpeech(t *testing.T) {
	cfg := testConfig()
	var frames [][]byte
	for i := 0; i < 100; i++ {
		frames = append(frames, speechFrame())
	}
	src := &scriptedSource{frames: frames}

	res, err := Run(context.Background(), src, markClassifier{}, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Outcome != OutcomeCaptured {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeCaptured)
	}
	if res.Utterance.Duration != cfg.MaxDuration {
		t.Fatalf("Duration = %s, want ceiling %s", res.Utterance.Duration, cfg.MaxDuration)
	}
}

func TestRunSilenceWindowResetsOnSpeech(t *testing.T) {
	cfg := testConfig()
	// 4 silence frames (120ms, just under the window), one speech frame
	// resetting it, then silence until the window fills again.
	frames := [][]byte{silenceFrame(), silenceFrame(), silenceFrame(), silenceFrame(), speechFrame()}
	src := &scriptedSource{frames: frames}

	res, err := Run(context.Background(), src, markClassifier{}, cfg)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Outcome != OutcomeCaptured {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeCaptured)
	}
	// 5 scripted frames + 5 post-reset silence frames.
	want := 300 * time.Millisecond
	if res.Utterance.Duration != want {
		t.Fatalf("Duration = %s, want %s", res.Utterance.Duration, want)
	}
}

func TestRunCancellationIsDistinctFromNoSpeech(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &scriptedSource{}

	res, err := Run(ctx, src, markClassifier{}, testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeCancelled)
	}
}

func TestRunSourceErrorSurfaces(t *testing.T) {
	src := &scriptedSource{err: errors.New("device unplugged")}
	_, err := Run(context.Background(), src, markClassifier{}, testConfig())
	if err == nil {
		t.Fatalf("Run() error = nil, want device error")
	}
}

type sourceOpener struct {
	src *scriptedSource
}

func (o sourceOpener) Open(_ context.Context) (audio.Source, error) {
	return o.src, nil
}

func TestCaptureReleasesSourceOnCompletion(t *testing.T) {
	src := &scriptedSource{}
	res, err := Capture(context.Background(), sourceOpener{src}, markClassifier{}, testConfig())
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if res.Outcome != OutcomeNoSpeech {
		t.Fatalf("Outcome = %q, want %q", res.Outcome, OutcomeNoSpeech)
	}
	if !src.closed {
		t.Fatalf("source not closed after Capture returned")
	}
}
