package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	setCoreEnvEmpty(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want %q", cfg.BindAddr, ":8080")
	}
	if cfg.TopicPrefix != "assistant" {
		t.Fatalf("TopicPrefix = %q, want %q", cfg.TopicPrefix, "assistant")
	}
	if cfg.AudioProvider != "portaudio" {
		t.Fatalf("AudioProvider = %q, want %q", cfg.AudioProvider, "portaudio")
	}
	if cfg.SampleRate != 16000 {
		t.Fatalf("SampleRate = %d, want 16000", cfg.SampleRate)
	}
	if cfg.FrameDuration != 30*time.Millisecond {
		t.Fatalf("FrameDuration = %v, want 30ms", cfg.FrameDuration)
	}
	if cfg.SilenceTimeout != 1500*time.Millisecond {
		t.Fatalf("SilenceTimeout = %v, want 1.5s", cfg.SilenceTimeout)
	}
	if cfg.MaxRecordingDuration != 15*time.Second {
		t.Fatalf("MaxRecordingDuration = %v, want 15s", cfg.MaxRecordingDuration)
	}
	if cfg.VADAggressiveness != 2 {
		t.Fatalf("VADAggressiveness = %d, want 2", cfg.VADAggressiveness)
	}
}

func TestLoadUsesExplicitValues(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("MQTT_BROKER_URL", "tcp://broker:1883")
	t.Setenv("RECORD_SILENCE_TIMEOUT", "2s")
	t.Setenv("AUDIO_PROVIDER", "mock")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BrokerURL != "tcp://broker:1883" {
		t.Fatalf("BrokerURL = %q, want explicit value", cfg.BrokerURL)
	}
	if cfg.SilenceTimeout != 2*time.Second {
		t.Fatalf("SilenceTimeout = %v, want 2s", cfg.SilenceTimeout)
	}
	if cfg.AudioProvider != "mock" {
		t.Fatalf("AudioProvider = %q, want mock", cfg.AudioProvider)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("RECORD_SILENCE_TIMEOUT", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want parse error")
	}
}

func TestLoadRejectsInvalidAudioProvider(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AUDIO_PROVIDER", "tape")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want provider error")
	}
}

func TestLoadRejectsOutOfRangeAggressiveness(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("VAD_AGGRESSIVENESS", "5")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want range error")
	}
}

func TestLoadRejectsSilenceTimeoutBelowFrame(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("AUDIO_FRAME_DURATION", "30ms")
	t.Setenv("RECORD_SILENCE_TIMEOUT", "10ms")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want validation error")
	}
}

func TestLoadRejectsMaxDurationBelowSilenceTimeout(t *testing.T) {
	setCoreEnvEmpty(t)
	t.Setenv("RECORD_SILENCE_TIMEOUT", "2s")
	t.Setenv("RECORD_MAX_DURATION", "1s")

	if _, err := Load(); err == nil {
		t.Fatalf("Load() error = nil, want validation error")
	}
}

func setCoreEnvEmpty(t *testing.T) {
	t.Helper()
	keys := []string{
		"APP_BIND_ADDR",
		"APP_SHUTDOWN_TIMEOUT",
		"APP_METRICS_NAMESPACE",
		"APP_ALLOW_ANY_ORIGIN",
		"MQTT_BROKER_URL",
		"MQTT_CLIENT_ID",
		"MQTT_TOPIC_PREFIX",
		"MQTT_RECONNECT_MIN",
		"MQTT_RECONNECT_MAX",
		"MQTT_PUBLISH_TIMEOUT",
		"AUDIO_PROVIDER",
		"AUDIO_SAMPLE_RATE",
		"AUDIO_FRAME_DURATION",
		"VAD_AGGRESSIVENESS",
		"RECORD_SILENCE_TIMEOUT",
		"RECORD_MAX_DURATION",
		"TRANSCRIPTION_TIMEOUT",
		"PERSONA_TIMEOUT",
		"DATABASE_URL",
		"HISTORY_LIMIT",
	}
	for _, key := range keys {
		t.Setenv(key, "")
	}
}
