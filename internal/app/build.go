package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/audio"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/bus"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/config"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/history"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/httpapi"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/observability"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/recording"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/session"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/vad"
)

// BuildResult holds the assembled components and their teardown.
type BuildResult struct {
	Config    config.Config
	Machine   *session.Machine
	Adapter   *bus.Adapter
	Transport *bus.MQTTTransport
	API       *httpapi.Server
	Metrics   *observability.Metrics
	History   history.Store

	// Cleanup should be called on shutdown to release external resources.
	Cleanup func() error
}

// Build assembles the full coordinator from configuration. Nothing is
// started: the caller runs the machine, connects the transport, and
// serves the API.
func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	store, err := history.NewStore(ctx, cfg.DatabaseURL, cfg.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("history store init failed: %w", err)
	}

	audioCfg := audio.Config{SampleRate: cfg.SampleRate, FrameDuration: cfg.FrameDuration}
	var opener audio.Opener
	switch cfg.AudioProvider {
	case "portaudio":
		opener = audio.NewPortAudioOpener(audioCfg)
	case "mock":
		opener = audio.NewMockOpener(audioCfg)
		log.Printf("audio provider: mock (silence only)")
	default:
		_ = store.Close()
		return nil, fmt.Errorf("invalid audio provider: %q", cfg.AudioProvider)
	}

	classifier := vad.NewEnergy(cfg.VADAggressiveness)
	recordCfg := recording.Config{
		SampleRate:     cfg.SampleRate,
		FrameDuration:  cfg.FrameDuration,
		SilenceTimeout: cfg.SilenceTimeout,
		MaxDuration:    cfg.MaxRecordingDuration,
	}
	recorder := func(rctx context.Context) (recording.Result, error) {
		return recording.Capture(rctx, opener, classifier, recordCfg)
	}

	machine := session.NewMachine(recorder, store, metrics, session.Config{
		TranscriptionTimeout: cfg.TranscriptionTimeout,
		PersonaTimeout:       cfg.PersonaTimeout,
	})

	transport := bus.NewMQTTTransport(bus.MQTTConfig{
		BrokerURL:      cfg.BrokerURL,
		ClientID:       cfg.BrokerClientID,
		ReconnectMin:   cfg.BusReconnectMin,
		ReconnectMax:   cfg.BusReconnectMax,
		PublishTimeout: cfg.BusPublishTimeout,
		OnConnect: func() {
			metrics.BusConnected.Set(1)
			machine.Post(session.Event{Kind: session.EventBusUp})
		},
		OnConnectionLost: func(err error) {
			log.Printf("bus: connection lost: %v", err)
			metrics.BusConnected.Set(0)
			machine.Post(session.Event{Kind: session.EventBusDown})
		},
	})

	adapter := bus.NewAdapter(transport, bus.DefaultTopics(strings.TrimSpace(cfg.TopicPrefix)), machine, metrics)
	machine.SetOutbound(adapter)

	api := httpapi.New(cfg, machine, store)
	machine.SetObserver(api.Notify)

	cleanup := func() error {
		transport.Close()
		return store.Close()
	}

	return &BuildResult{
		Config:    cfg,
		Machine:   machine,
		Adapter:   adapter,
		Transport: transport,
		API:       api,
		Metrics:   metrics,
		History:   store,
		Cleanup:   cleanup,
	}, nil
}
