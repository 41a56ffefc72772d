package audio

import (
	"context"
	"time"
)

// MockOpener yields silence-only sources paced at the real frame cadence,
// so the daemon can run end to end on machines without a microphone.
type MockOpener struct {
	cfg Config
}

func NewMockOpener(cfg Config) *MockOpener {
	return &MockOpener{cfg: cfg}
}

func (o *MockOpener) Open(_ context.Context) (Source, error) {
	return &mockSource{
		cfg:    o.cfg,
		ticker: time.NewTicker(o.cfg.FrameDuration),
	}, nil
}

type mockSource struct {
	cfg    Config
	ticker *time.Ticker
}

func (s *mockSource) ReadFrame(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.ticker.C:
		return make([]byte, s.cfg.FrameBytes()), nil
	}
}

func (s *mockSource) Close() error {
	s.ticker.Stop()
	return nil
}
