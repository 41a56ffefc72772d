package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioOpener opens the default input device for one recording
// attempt. Initialize/Terminate are paired per attempt so the device is
// fully released between recordings.
type PortAudioOpener struct {
	cfg Config
}

func NewPortAudioOpener(cfg Config) *PortAudioOpener {
	return &PortAudioOpener{cfg: cfg}
}

func (o *PortAudioOpener) Open(_ context.Context) (Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	buf := make([]int16, o.cfg.FrameSamples())
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(o.cfg.SampleRate), len(buf), buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("start input stream: %w", err)
	}

	return &portAudioSource{stream: stream, buf: buf}, nil
}

type portAudioSource struct {
	stream    *portaudio.Stream
	buf       []int16
	closeOnce sync.Once
	closeErr  error
}

func (s *portAudioSource) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Read blocks for roughly one frame interval, which bounds how stale a
	// cancellation can get.
	if err := s.stream.Read(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("read input stream: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame := make([]byte, len(s.buf)*2)
	for i, sample := range s.buf {
		frame[i*2] = byte(sample)
		frame[i*2+1] = byte(sample >> 8)
	}
	return frame, nil
}

func (s *portAudioSource) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stream.Stop()
		s.closeErr = s.stream.Close()
		_ = portaudio.Terminate()
	})
	return s.closeErr
}
