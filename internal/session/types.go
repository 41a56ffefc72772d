package session

import (
	"github.com/thotsl4yer69/sentient-core-sub001/internal/recording"
)

// State is the interaction phase of the single live session.
type State string

const (
	StateIdle       State = "idle"
	StateAlert      State = "alert"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateThinking   State = "thinking"
	StateResponding State = "responding"
	StateSpeaking   State = "speaking"
	StateError      State = "error"
)

// EventKind identifies the closed set of inbound events the machine
// dispatches over. Every external stimulus, including timer expiry and
// bus connectivity changes, arrives through the same ordered queue.
type EventKind string

const (
	EventWakeDetected    EventKind = "wake_detected"
	EventRecordingDone   EventKind = "recording_done"
	EventTranscription   EventKind = "transcription_result"
	EventPersonaResponse EventKind = "persona_response"
	EventTTSStarted      EventKind = "tts_started"
	EventTTSCompleted    EventKind = "tts_completed"
	EventRequestTimeout  EventKind = "request_timeout"
	EventBusDown         EventKind = "bus_down"
	EventBusUp           EventKind = "bus_up"
)

// Stage names the downstream request a timeout event belongs to.
type Stage string

const (
	StageTranscription Stage = "transcription"
	StagePersona       Stage = "persona"
)

// Event is one inbound stimulus. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// wake_detected
	Confidence  float64
	TimestampMS int64

	// recording_done
	Recording    recording.Result
	RecordingErr error

	// transcription_result / persona_response
	Text     string
	Language string
	Emotion  string

	// tts_started / tts_completed
	PlaybackID string

	// request_timeout
	Stage     Stage
	RequestID string
}

// Notification is the visual/state signal emitted once per transition.
type Notification struct {
	State    State          `json:"state"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Snapshot is a read-only copy of the live session for the HTTP surface.
type Snapshot struct {
	State          State   `json:"state"`
	SessionID      string  `json:"session_id"`
	WakeConfidence float64 `json:"wake_confidence"`
	Speaking       bool    `json:"speaking"`
	PlaybackID     string  `json:"playback_id,omitempty"`
	BusConnected   bool    `json:"bus_connected"`
}

// Outbound carries the machine's commands to the bus. Implemented by the
// bus adapter; faked in tests.
type Outbound interface {
	PublishAvatarState(state string, metadata map[string]any) error
	PublishAudioForTranscription(wav []byte, sampleRate int, format string) error
	PublishTextForResponse(text, source string) error
	PublishStopPlayback(reason string) error
}
