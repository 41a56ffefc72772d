// Package session holds the single live voice session and the state
// machine that drives it. All mutation happens on one goroutine draining
// one ordered event queue; there is no concurrent dispatch.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/thotsl4yer69/sentient-core-sub001/internal/audio"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/history"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/observability"
	"github.com/thotsl4yer69/sentient-core-sub001/internal/recording"
)

// Recorder runs one complete recording attempt. It must release the
// audio device before returning and honor ctx cancellation within one
// frame interval.
type Recorder func(ctx context.Context) (recording.Result, error)

// Config bounds the machine's downstream waits.
type Config struct {
	TranscriptionTimeout time.Duration
	PersonaTimeout       time.Duration
}

const (
	eventQueueSize          = 64
	historySaveTimeout      = 2 * time.Second
	responsePreviewMaxRunes = 96
)

// Machine coordinates one live session. Construct with NewMachine, wire
// the outbound side with SetOutbound, then drive it with Run.
type Machine struct {
	recorder Recorder
	store    history.Store
	metrics  *observability.Metrics
	cfg      Config

	out      Outbound
	observer func(Notification)

	events chan Event
	runCtx context.Context

	// mu guards the fields read by Snapshot from other goroutines. All
	// writes still happen on the dispatch goroutine.
	mu             sync.Mutex
	state          State
	sessionID      string
	wakeConfidence float64
	speaking       bool
	playbackID     string
	online         bool

	requestID       string
	timeoutTimer    *time.Timer
	recordCancel    context.CancelFunc
	pendingUserText string
}

// NewMachine creates an idle machine. store and metrics may be nil.
func NewMachine(recorder Recorder, store history.Store, metrics *observability.Metrics, cfg Config) *Machine {
	return &Machine{
		recorder: recorder,
		store:    store,
		metrics:  metrics,
		cfg:      cfg,
		events:   make(chan Event, eventQueueSize),
		state:    StateIdle,
	}
}

// SetOutbound wires the command side. Must be called before Run.
func (m *Machine) SetOutbound(out Outbound) { m.out = out }

// SetObserver registers a hook invoked with every avatar notification,
// after it has been published. Must be called before Run.
func (m *Machine) SetObserver(fn func(Notification)) { m.observer = fn }

// Post enqueues an event for dispatch. It never blocks; if the queue is
// full the event is dropped with a warning, which keeps slow dispatch
// from backing up into the bus client's delivery goroutines.
func (m *Machine) Post(ev Event) {
	select {
	case m.events <- ev:
	default:
		log.Printf("session: event queue full, dropping %s", ev.Kind)
	}
}

// Run dispatches events until ctx is cancelled.
func (m *Machine) Run(ctx context.Context) {
	m.runCtx = ctx
	for {
		select {
		case <-ctx.Done():
			m.cancelRecording()
			m.disarmTimeout()
			return
		case ev := <-m.events:
			m.dispatch(ev)
		}
	}
}

// Snapshot returns a copy of the live session for read-only observers.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:          m.state,
		SessionID:      m.sessionID,
		WakeConfidence: m.wakeConfidence,
		Speaking:       m.speaking,
		PlaybackID:     m.playbackID,
		BusConnected:   m.online,
	}
}

func (m *Machine) dispatch(ev Event) {
	switch ev.Kind {
	case EventWakeDetected:
		m.handleWake(ev)
	case EventRecordingDone:
		m.handleRecordingDone(ev)
	case EventTranscription:
		m.handleTranscription(ev)
	case EventPersonaResponse:
		m.handlePersona(ev)
	case EventTTSStarted:
		m.handleTTSStarted(ev)
	case EventTTSCompleted:
		m.handleTTSCompleted(ev)
	case EventRequestTimeout:
		m.handleTimeout(ev)
	case EventBusDown:
		m.handleBusDown()
	case EventBusUp:
		m.handleBusUp()
	default:
		log.Printf("session: unknown event kind %q", ev.Kind)
	}
}

func (m *Machine) handleWake(ev Event) {
	if !m.online {
		log.Printf("session: dropping wake event, bus disconnected")
		m.countWake("dropped_offline")
		return
	}

	switch m.state {
	case StateIdle:
		m.countWake("started")
		m.beginInteraction(ev, false)
	case StateSpeaking:
		// The designated interrupt path: stop playback first so exactly
		// one stop command precedes the listening transition.
		if err := m.out.PublishStopPlayback("wake_word_interrupt"); err != nil {
			log.Printf("session: stop-playback publish failed: %v", err)
		}
		m.mu.Lock()
		m.speaking = false
		m.playbackID = ""
		m.mu.Unlock()
		m.countWake("interrupt")
		m.beginInteraction(ev, true)
	default:
		// One interaction in flight; a second wake has no effect.
		log.Printf("session: ignoring wake event in state %s", m.state)
		m.countWake("ignored")
	}
}

func (m *Machine) beginInteraction(ev Event, interrupt bool) {
	m.mu.Lock()
	m.sessionID = uuid.NewString()
	m.wakeConfidence = ev.Confidence
	m.mu.Unlock()
	m.pendingUserText = ""

	if !interrupt {
		m.transition(StateAlert, map[string]any{"wake_confidence": ev.Confidence})
	}
	m.transition(StateListening, nil)
	m.startRecording()
}

func (m *Machine) startRecording() {
	rctx, cancel := context.WithCancel(m.runCtx)
	m.recordCancel = cancel
	go func() {
		res, err := m.recorder(rctx)
		cancel()
		m.Post(Event{Kind: EventRecordingDone, Recording: res, RecordingErr: err})
	}()
}

func (m *Machine) cancelRecording() {
	if m.recordCancel != nil {
		m.recordCancel()
		m.recordCancel = nil
	}
}

func (m *Machine) handleRecordingDone(ev Event) {
	m.recordCancel = nil

	if m.state != StateListening {
		// Completion of an attempt that was already aborted (bus loss or
		// shutdown); nothing left to drive.
		return
	}

	if ev.RecordingErr != nil {
		log.Printf("session: recording failed: %v", ev.RecordingErr)
		m.countRecording("error")
		m.fault("microphone capture failed")
		return
	}

	res := ev.Recording
	m.countRecording(string(res.Outcome))

	switch res.Outcome {
	case recording.OutcomeCancelled:
		// Deliberate control flow, never an error.
		return
	case recording.OutcomeNoSpeech:
		m.transition(StateIdle, nil)
	case recording.OutcomeCaptured:
		utt := res.Utterance
		wav, err := audio.EncodeWAVPCM16LE(utt.PCM, utt.SampleRate)
		if err != nil {
			log.Printf("session: utterance encode failed: %v", err)
			m.fault("utterance encode failed")
			return
		}
		if err := m.out.PublishAudioForTranscription(wav, utt.SampleRate, "wav"); err != nil {
			log.Printf("session: transcription publish failed: %v", err)
			m.fault("transcription dispatch failed")
			return
		}
		if m.metrics != nil {
			m.metrics.ObserveRecordingDuration(utt.Duration)
		}
		m.armTimeout(StageTranscription, m.cfg.TranscriptionTimeout)
		m.transition(StateProcessing, nil)
	}
}

func (m *Machine) handleTranscription(ev Event) {
	if m.state != StateProcessing {
		log.Printf("session: ignoring transcription result in state %s", m.state)
		return
	}
	m.disarmTimeout()

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		// Nothing was actually said; return to idle without a downstream call.
		m.transition(StateIdle, nil)
		return
	}

	m.pendingUserText = text
	if err := m.out.PublishTextForResponse(text, "voice"); err != nil {
		log.Printf("session: persona publish failed: %v", err)
		m.fault("persona dispatch failed")
		return
	}
	m.armTimeout(StagePersona, m.cfg.PersonaTimeout)
	m.transition(StateThinking, nil)
}

func (m *Machine) handlePersona(ev Event) {
	if m.state != StateThinking {
		log.Printf("session: ignoring persona response in state %s", m.state)
		return
	}
	m.disarmTimeout()
	m.saveExchange(ev)

	meta := map[string]any{"text": previewText(ev.Text)}
	if strings.TrimSpace(ev.Emotion) != "" {
		meta["emotion"] = ev.Emotion
	}
	m.transition(StateResponding, meta)
}

func (m *Machine) handleTTSStarted(ev Event) {
	if m.state != StateResponding {
		log.Printf("session: ignoring tts-started in state %s", m.state)
		return
	}
	m.mu.Lock()
	m.speaking = true
	m.playbackID = ev.PlaybackID
	m.mu.Unlock()
	m.transition(StateSpeaking, map[string]any{"playback_id": ev.PlaybackID})
}

func (m *Machine) handleTTSCompleted(ev Event) {
	if m.state != StateSpeaking || ev.PlaybackID != m.playbackID {
		// Stale id from an interrupted playback; no state change.
		log.Printf("session: ignoring tts-completed for playback %q", ev.PlaybackID)
		return
	}
	m.mu.Lock()
	m.speaking = false
	m.playbackID = ""
	m.mu.Unlock()
	m.transition(StateIdle, nil)
}

func (m *Machine) handleTimeout(ev Event) {
	if ev.RequestID == "" || ev.RequestID != m.requestID {
		// Timer for a request that already completed.
		return
	}
	m.requestID = ""
	m.timeoutTimer = nil

	switch {
	case ev.Stage == StageTranscription && m.state == StateProcessing,
		ev.Stage == StagePersona && m.state == StateThinking:
	default:
		return
	}

	log.Printf("session: %s request timed out", ev.Stage)
	if m.metrics != nil {
		m.metrics.DownstreamTimeout.WithLabelValues(string(ev.Stage)).Inc()
	}
	m.fault(fmt.Sprintf("%s timeout", ev.Stage))
}

func (m *Machine) handleBusDown() {
	m.mu.Lock()
	m.online = false
	alreadyIdle := m.state == StateIdle
	m.speaking = false
	m.playbackID = ""
	m.mu.Unlock()

	if alreadyIdle {
		return
	}

	// A voice interaction started while disconnected cannot complete, and
	// one mid-flight cannot either: abort and wait for the next wake word.
	log.Printf("session: bus disconnected, aborting in-flight interaction")
	m.cancelRecording()
	m.disarmTimeout()
	m.pendingUserText = ""
	m.transition(StateIdle, nil)
}

func (m *Machine) handleBusUp() {
	m.mu.Lock()
	m.online = true
	m.mu.Unlock()
	log.Printf("session: bus connected")
}

// fault emits the error notification and reverts to idle. Used for the
// timeout and device classes; interrupt cancellation never comes here.
func (m *Machine) fault(msg string) {
	m.disarmTimeout()
	m.pendingUserText = ""
	m.transition(StateError, map[string]any{"message": msg})
	m.transition(StateIdle, nil)
}

func (m *Machine) transition(to State, meta map[string]any) {
	m.mu.Lock()
	m.state = to
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.StateTransitions.WithLabelValues(string(to)).Inc()
	}
	if m.out != nil {
		if err := m.out.PublishAvatarState(string(to), meta); err != nil {
			log.Printf("session: avatar publish failed: %v", err)
		}
	}
	if m.observer != nil {
		m.observer(Notification{State: to, Metadata: meta})
	}
}

func (m *Machine) armTimeout(stage Stage, d time.Duration) {
	m.disarmTimeout()
	id := uuid.NewString()
	m.requestID = id
	m.timeoutTimer = time.AfterFunc(d, func() {
		m.Post(Event{Kind: EventRequestTimeout, Stage: stage, RequestID: id})
	})
}

func (m *Machine) disarmTimeout() {
	if m.timeoutTimer != nil {
		m.timeoutTimer.Stop()
		m.timeoutTimer = nil
	}
	m.requestID = ""
}

func (m *Machine) saveExchange(ev Event) {
	if m.store == nil {
		return
	}
	m.mu.Lock()
	sid := m.sessionID
	m.mu.Unlock()
	userText := m.pendingUserText
	m.pendingUserText = ""
	store := m.store

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
		defer cancel()
		if userText != "" {
			if err := store.SaveTurn(ctx, history.Turn{SessionID: sid, Role: "user", Content: userText}); err != nil {
				log.Printf("session: history save (user) failed: %v", err)
			}
		}
		if err := store.SaveTurn(ctx, history.Turn{SessionID: sid, Role: "assistant", Content: ev.Text, Emotion: ev.Emotion}); err != nil {
			log.Printf("session: history save (assistant) failed: %v", err)
		}
	}()
}

func (m *Machine) countWake(outcome string) {
	if m.metrics != nil {
		m.metrics.WakeEvents.WithLabelValues(outcome).Inc()
	}
}

func (m *Machine) countRecording(outcome string) {
	if m.metrics != nil {
		m.metrics.RecordingOutcomes.WithLabelValues(outcome).Inc()
	}
}

func previewText(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= responsePreviewMaxRunes {
		return s
	}
	return string(runes[:responsePreviewMaxRunes]) + "…"
}
