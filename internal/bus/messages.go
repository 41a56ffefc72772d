package bus

// Payload shapes for every topic the coordinator speaks. All payloads are
// structured JSON records; unknown or malformed inbound payloads are
// dropped with a logged warning, never raised into the session.

type WakeDetected struct {
	Confidence  float64 `json:"confidence"`
	TimestampMS int64   `json:"ts_ms"`
}

type TranscriptionResult struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

type PersonaResponse struct {
	Text    string `json:"text"`
	Emotion string `json:"emotion"`
}

type TTSStarted struct {
	PlaybackID string `json:"playback_id"`
	Text       string `json:"text"`
}

type TTSCompleted struct {
	PlaybackID string `json:"playback_id"`
}

type AvatarState struct {
	State    string         `json:"state"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type AudioForTranscription struct {
	AudioBase64 string `json:"audio_base64"`
	SampleRate  int    `json:"sample_rate"`
	Format      string `json:"format"`
}

type TextForResponse struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type StopPlayback struct {
	Reason string `json:"reason"`
}
