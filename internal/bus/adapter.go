// Package bus is the only component touching the external pub/sub
// transport. The adapter translates topic payloads to and from internal
// session events; it applies no business logic of its own.
package bus

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"strings"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/observability"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/session"
)

// EventSink receives translated inbound events; in production this is the
// session machine's queue.
type EventSink interface {
	Post(ev session.Event)
}

// Adapter is the boundary translator between broker topics and session
// events. It implements session.Outbound for the command direction.
type Adapter struct {
	transport Transport
	topics    Topics
	sink      EventSink
	metrics   *observability.Metrics
}

func NewAdapter(transport Transport, topics Topics, sink EventSink, metrics *observability.Metrics) *Adapter {
	return &Adapter{
		transport: transport,
		topics:    topics,
		sink:      sink,
		metrics:   metrics,
	}
}

// Start registers every inbound subscription. Safe to call before the
// transport has connected; the transport replays registrations on connect.
func (a *Adapter) Start() error {
	subs := []struct {
		topic   string
		handler Handler
	}{
		{a.topics.WakeDetected, a.handleWakeDetected},
		{a.topics.TranscriptionResult, a.handleTranscriptionResult},
		{a.topics.PersonaResponse, a.handlePersonaResponse},
		{a.topics.TTSStarted, a.handleTTSStarted},
		{a.topics.TTSCompleted, a.handleTTSCompleted},
	}
	for _, s := range subs {
		if err := a.transport.Subscribe(s.topic, s.handler); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) handleWakeDetected(topic string, payload []byte) {
	var msg WakeDetected
	if !a.decode(topic, payload, &msg) {
		return
	}
	if msg.Confidence < 0 || msg.Confidence > 1 {
		log.Printf("bus: dropping %s payload with confidence %v outside [0,1]", topic, msg.Confidence)
		return
	}
	a.countInbound(topic)
	a.sink.Post(session.Event{
		Kind:        session.EventWakeDetected,
		Confidence:  msg.Confidence,
		TimestampMS: msg.TimestampMS,
	})
}

func (a *Adapter) handleTranscriptionResult(topic string, payload []byte) {
	var msg TranscriptionResult
	if !a.decode(topic, payload, &msg) {
		return
	}
	a.countInbound(topic)
	// Empty text is a valid result (nothing intelligible was said); the
	// machine decides what to do with it.
	a.sink.Post(session.Event{
		Kind:     session.EventTranscription,
		Text:     msg.Text,
		Language: msg.Language,
	})
}

func (a *Adapter) handlePersonaResponse(topic string, payload []byte) {
	var msg PersonaResponse
	if !a.decode(topic, payload, &msg) {
		return
	}
	a.countInbound(topic)
	a.sink.Post(session.Event{
		Kind:    session.EventPersonaResponse,
		Text:    msg.Text,
		Emotion: msg.Emotion,
	})
}

func (a *Adapter) handleTTSStarted(topic string, payload []byte) {
	var msg TTSStarted
	if !a.decode(topic, payload, &msg) {
		return
	}
	if strings.TrimSpace(msg.PlaybackID) == "" {
		log.Printf("bus: dropping %s payload without playback_id", topic)
		return
	}
	a.countInbound(topic)
	a.sink.Post(session.Event{
		Kind:       session.EventTTSStarted,
		PlaybackID: msg.PlaybackID,
		Text:       msg.Text,
	})
}

func (a *Adapter) handleTTSCompleted(topic string, payload []byte) {
	var msg TTSCompleted
	if !a.decode(topic, payload, &msg) {
		return
	}
	if strings.TrimSpace(msg.PlaybackID) == "" {
		log.Printf("bus: dropping %s payload without playback_id", topic)
		return
	}
	a.countInbound(topic)
	a.sink.Post(session.Event{
		Kind:       session.EventTTSCompleted,
		PlaybackID: msg.PlaybackID,
	})
}

// PublishAvatarState implements session.Outbound.
func (a *Adapter) PublishAvatarState(state string, metadata map[string]any) error {
	return a.publish(a.topics.AvatarState, AvatarState{State: state, Metadata: metadata})
}

// PublishAudioForTranscription implements session.Outbound. The audio is
// shipped base64-encoded so the payload stays a plain JSON record.
func (a *Adapter) PublishAudioForTranscription(wav []byte, sampleRate int, format string) error {
	return a.publish(a.topics.AudioForTranscription, AudioForTranscription{
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
		SampleRate:  sampleRate,
		Format:      format,
	})
}

// PublishTextForResponse implements session.Outbound.
func (a *Adapter) PublishTextForResponse(text, source string) error {
	return a.publish(a.topics.TextForResponse, TextForResponse{Text: text, Source: source})
}

// PublishStopPlayback implements session.Outbound.
func (a *Adapter) PublishStopPlayback(reason string) error {
	return a.publish(a.topics.StopPlayback, StopPlayback{Reason: reason})
}

func (a *Adapter) publish(topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := a.transport.Publish(topic, payload); err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.BusMessages.WithLabelValues("out", topic).Inc()
	}
	return nil
}

func (a *Adapter) decode(topic string, payload []byte, v any) bool {
	if err := json.Unmarshal(payload, v); err != nil {
		log.Printf("bus: dropping malformed %s payload: %v", topic, err)
		return false
	}
	return true
}

func (a *Adapter) countInbound(topic string) {
	if a.metrics != nil {
		a.metrics.BusMessages.WithLabelValues("in", topic).Inc()
	}
}
