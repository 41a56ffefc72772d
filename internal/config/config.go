package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice session coordinator.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	BrokerURL         string
	BrokerClientID    string
	TopicPrefix       string
	BusReconnectMin   time.Duration
	BusReconnectMax   time.Duration
	BusPublishTimeout time.Duration

	AudioProvider string
	SampleRate    int
	FrameDuration time.Duration

	VADAggressiveness int

	SilenceTimeout       time.Duration
	MaxRecordingDuration time.Duration

	TranscriptionTimeout time.Duration
	PersonaTimeout       time.Duration

	DatabaseURL  string
	HistoryLimit int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "sentient"),
		AllowAnyOrigin:   false,
		BrokerURL:        envOrDefault("MQTT_BROKER_URL", "tcp://localhost:1883"),
		BrokerClientID:   envOrDefault("MQTT_CLIENT_ID", "sentient-core"),
		TopicPrefix:      envOrDefault("MQTT_TOPIC_PREFIX", "assistant"),
		AudioProvider:    envOrDefault("AUDIO_PROVIDER", "portaudio"),
		// Whisper-style pipelines expect 16 kHz mono PCM; 30 ms frames keep
		// the recording cancellation latency bounded at one frame interval.
		SampleRate:           16000,
		FrameDuration:        30 * time.Millisecond,
		VADAggressiveness:    2,
		SilenceTimeout:       1500 * time.Millisecond,
		MaxRecordingDuration: 15 * time.Second,
		TranscriptionTimeout: 10 * time.Second,
		PersonaTimeout:       20 * time.Second,
		DatabaseURL:          stringsTrimSpace("DATABASE_URL"),
		HistoryLimit:         256,
		ShutdownTimeout:      15 * time.Second,
		BusReconnectMin:      time.Second,
		BusReconnectMax:      30 * time.Second,
		BusPublishTimeout:    5 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}
	cfg.BusReconnectMin, err = durationFromEnv("MQTT_RECONNECT_MIN", cfg.BusReconnectMin)
	if err != nil {
		return Config{}, err
	}
	cfg.BusReconnectMax, err = durationFromEnv("MQTT_RECONNECT_MAX", cfg.BusReconnectMax)
	if err != nil {
		return Config{}, err
	}
	cfg.BusPublishTimeout, err = durationFromEnv("MQTT_PUBLISH_TIMEOUT", cfg.BusPublishTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SampleRate, err = intFromEnv("AUDIO_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return Config{}, err
	}
	cfg.FrameDuration, err = durationFromEnv("AUDIO_FRAME_DURATION", cfg.FrameDuration)
	if err != nil {
		return Config{}, err
	}
	cfg.VADAggressiveness, err = intFromEnv("VAD_AGGRESSIVENESS", cfg.VADAggressiveness)
	if err != nil {
		return Config{}, err
	}
	cfg.SilenceTimeout, err = durationFromEnv("RECORD_SILENCE_TIMEOUT", cfg.SilenceTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxRecordingDuration, err = durationFromEnv("RECORD_MAX_DURATION", cfg.MaxRecordingDuration)
	if err != nil {
		return Config{}, err
	}
	cfg.TranscriptionTimeout, err = durationFromEnv("TRANSCRIPTION_TIMEOUT", cfg.TranscriptionTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.PersonaTimeout, err = durationFromEnv("PERSONA_TIMEOUT", cfg.PersonaTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryLimit, err = intFromEnv("HISTORY_LIMIT", cfg.HistoryLimit)
	if err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.BrokerURL) == "" {
		return Config{}, fmt.Errorf("MQTT_BROKER_URL must not be empty")
	}
	if strings.TrimSpace(cfg.TopicPrefix) == "" {
		return Config{}, fmt.Errorf("MQTT_TOPIC_PREFIX must not be empty")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.AudioProvider)) {
	case "portaudio", "mock":
		cfg.AudioProvider = strings.ToLower(strings.TrimSpace(cfg.AudioProvider))
	default:
		return Config{}, fmt.Errorf("invalid AUDIO_PROVIDER: %q (expected portaudio|mock)", cfg.AudioProvider)
	}
	if cfg.SampleRate <= 0 {
		return Config{}, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if cfg.FrameDuration < 10*time.Millisecond || cfg.FrameDuration > 100*time.Millisecond {
		return Config{}, fmt.Errorf("AUDIO_FRAME_DURATION must be between 10ms and 100ms")
	}
	if cfg.VADAggressiveness < 0 || cfg.VADAggressiveness > 3 {
		return Config{}, fmt.Errorf("VAD_AGGRESSIVENESS must be between 0 and 3")
	}
	if cfg.SilenceTimeout < cfg.FrameDuration {
		return Config{}, fmt.Errorf("RECORD_SILENCE_TIMEOUT must be at least one frame duration")
	}
	if cfg.MaxRecordingDuration <= cfg.SilenceTimeout {
		return Config{}, fmt.Errorf("RECORD_MAX_DURATION must exceed RECORD_SILENCE_TIMEOUT")
	}
	if cfg.TranscriptionTimeout <= 0 {
		return Config{}, fmt.Errorf("TRANSCRIPTION_TIMEOUT must be positive")
	}
	if cfg.PersonaTimeout <= 0 {
		return Config{}, fmt.Errorf("PERSONA_TIMEOUT must be positive")
	}
	if cfg.HistoryLimit <= 0 {
		return Config{}, fmt.Errorf("HISTORY_LIMIT must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
