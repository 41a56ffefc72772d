package bus

// Topics maps the logical topics of the message-bus contract onto
// concrete broker topic names under a configurable prefix.
type Topics struct {
	WakeDetected          string
	TranscriptionResult   string
	PersonaResponse       string
	TTSStarted            string
	TTSCompleted          string
	AvatarState           string
	AudioForTranscription string
	TextForResponse       string
	StopPlayback          string
}

// DefaultTopics returns the topic layout under the given prefix.
func DefaultTopics(prefix string) Topics {
	return Topics{
		WakeDetected:          prefix + "/wake/detected",
		TranscriptionResult:   prefix + "/stt/result",
		PersonaResponse:       prefix + "/persona/response",
		TTSStarted:            prefix + "/tts/started",
		TTSCompleted:          prefix + "/tts/completed",
		AvatarState:           prefix + "/avatar/state",
		AudioForTranscription: prefix + "/stt/audio",
		TextForResponse:       prefix + "/persona/request",
		StopPlayback:          prefix + "/tts/stop",
	}
}
