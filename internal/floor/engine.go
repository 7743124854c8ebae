package floor

import (
	"log"
	"sync"
	"time"

	"koe/agent/internal/lexicon"
	"koe/agent/internal/speech"
	"koe/agent/internal/store"
)

// Options tune the coordinator. Zero TranscriptWait disables the bounded
// wait (no fallback decision will fire); zero Guard disables the guard
// window; zero MaxSpeech disables the tracker's safety ceiling.
type Options struct {
	TranscriptWait  time.Duration
	TimeoutFallback Action // ActionInterrupt or ActionIgnore
	Guard           time.Duration
	MaxSpeech       time.Duration
}

type phase int

const (
	phaseAwaitingText phase = iota
	phaseProvisional
	phaseResolved
)

// window is one in-flight user utterance racing against agent speech.
// At most one per session is unresolved at a time.
type window struct {
	id       string // empty until the first transcript claims it
	phase    phase
	openedAt time.Time
	speechID string // agent utterance this window may interrupt
	gen      uint64
	timer    *time.Timer
}

func (w *window) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

type sessionState struct {
	id      string
	tracker *speech.Tracker
	cur     *window
	waitGen uint64
}

// Engine is the decision coordinator. It consumes voice-activity signals
// and transcript events, resolves the race between them against the
// per-session speech tracker, and emits Decisions to the sink.
//
// Both event streams may interleave arbitrarily: either the VAD signal or
// the first transcript can arrive first for an utterance. One mutex
// serializes all event handling; the bounded transcript wait is a timer
// continuation, never a blocking sleep, so callers are never held up.
type Engine struct {
	mu       sync.Mutex
	opts     Options
	cls      *lexicon.Classifier
	store    *store.Store
	sink     Sink
	sessions map[string]*sessionState
}

func NewEngine(cls *lexicon.Classifier, st *store.Store, sink Sink, opts Options) *Engine {
	return &Engine{
		opts:     opts,
		cls:      cls,
		store:    st,
		sink:     sink,
		sessions: make(map[string]*sessionState),
	}
}

// OnAgentSpeechStarted records that the agent began emitting speech.
// An unresolved window belongs to the previous segment and is closed.
func (e *Engine) OnAgentSpeechStarted(sessionID, utteranceID string, force bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	ss := e.sessionLocked(sessionID)
	if err := ss.tracker.StartSpeaking(utteranceID, force); err != nil {
		return err
	}
	if w := ss.cur; w != nil && w.phase != phaseResolved {
		e.closeLocked(sessionID, w, ReasonSuperseded)
	}
	e.store.AppendEvent(sessionID, "agent_speech_started", map[string]any{"utterance_id": utteranceID})
	return nil
}

// OnAgentSpeechStopped records that the agent finished (or was stopped).
// A pending transcript wait is cancelled; a transcript that arrives later
// for the open window is evaluated against the silent state and treated
// as ordinary input.
func (e *Engine) OnAgentSpeechStopped(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ss := e.sessionLocked(sessionID)
	ss.tracker.StopSpeaking()
	if w := ss.cur; w != nil && w.phase != phaseResolved {
		w.stopTimer()
	}
	e.store.AppendEvent(sessionID, "agent_speech_stopped", nil)
}

// OnVADStart handles a "user started speaking" signal from the external
// detector. Agent silent: the utterance is ordinary input, decided as
// respond immediately with no classification. Agent speaking: open a
// window and wait (bounded) for text to classify.
func (e *Engine) OnVADStart(sessionID string) *Decision {
	e.mu.Lock()
	defer e.mu.Unlock()
	metricVADEvents.Inc()

	ss := e.sessionLocked(sessionID)
	st := ss.tracker.Snapshot()

	if !st.Speaking {
		d := Decision{Action: ActionRespond, Reason: ReasonAgentSilent}
		e.emitLocked(sessionID, d)
		return &d
	}

	if e.opts.Guard > 0 && time.Since(st.StartedAt) < e.opts.Guard {
		metricGuardBlocks.Inc()
		log.Printf("[floor] vad blocked by guard sid=%s remaining=%dms",
			sessionID, (e.opts.Guard - time.Since(st.StartedAt)).Milliseconds())
		return nil
	}

	if w := ss.cur; w != nil && w.phase != phaseResolved {
		e.closeLocked(sessionID, w, ReasonSuperseded)
	}

	w := &window{phase: phaseAwaitingText, openedAt: time.Now(), speechID: st.UtteranceID}
	ss.waitGen++
	w.gen = ss.waitGen
	ss.cur = w
	if e.opts.TranscriptWait > 0 {
		gen := w.gen
		w.timer = time.AfterFunc(e.opts.TranscriptWait, func() { e.waitExpired(sessionID, gen) })
	}
	return nil
}

// OnTranscript handles one interim or final transcript event. The decision
// is evaluated against the tracker snapshot at classification time, so an
// agent that already went silent turns the utterance into ordinary input.
func (e *Engine) OnTranscript(sessionID, utteranceID, text string, isFinal bool) *Decision {
	e.mu.Lock()
	defer e.mu.Unlock()

	if utteranceID == "" {
		metricDroppedTranscripts.Inc()
		log.Printf("[floor] transcript dropped: missing utterance id sid=%s final=%v", sessionID, isFinal)
		e.store.AppendEvent(sessionID, "transcript_dropped", map[string]any{"is_final": isFinal})
		return nil
	}

	ss := e.sessionLocked(sessionID)
	w := ss.cur
	if w != nil {
		switch {
		case w.id == "" && w.phase != phaseResolved:
			// First transcript claims the VAD window.
			w.id = utteranceID
		case w.id != utteranceID:
			if w.phase != phaseResolved {
				e.closeLocked(sessionID, w, ReasonSuperseded)
			}
			w = nil
		}
	}
	if w != nil && w.phase == phaseResolved {
		// Late arrival for a decided utterance: idempotent no-op.
		return nil
	}

	st := ss.tracker.Snapshot()
	res := e.cls.Classify(text)

	if !st.Speaking {
		if res.Empty() {
			if isFinal && w != nil {
				w.stopTimer()
				w.phase = phaseResolved
			}
			return nil
		}
		if w == nil {
			w = &window{id: utteranceID, phase: phaseAwaitingText, openedAt: time.Now()}
			ss.cur = w
		}
		d := Decision{Action: ActionRespond, Reason: ReasonAgentSilent, UtteranceID: utteranceID}
		e.resolveLocked(sessionID, w, d)
		return &d
	}

	if w == nil {
		// Transcript won the race against the VAD signal.
		w = &window{id: utteranceID, phase: phaseAwaitingText, openedAt: time.Now(), speechID: st.UtteranceID}
		ss.cur = w
	}
	w.stopTimer()

	if res.Empty() {
		if isFinal {
			// Neither ignore nor interrupt; nothing to dispatch.
			w.phase = phaseResolved
			e.store.AppendEvent(sessionID, "utterance_empty", map[string]any{
				"utterance_id": utteranceID, "reason": ReasonEmptyText,
			})
		}
		return nil
	}

	var d Decision
	switch res.Category {
	case lexicon.Command, lexicon.Mixed:
		d = Decision{Action: ActionInterrupt, Reason: ReasonCommandWord, UtteranceID: utteranceID}
	case lexicon.Other:
		d = Decision{Action: ActionInterrupt, Reason: ReasonContent, UtteranceID: utteranceID}
	case lexicon.Backchannel:
		d = Decision{Action: ActionIgnore, Reason: ReasonBackchannel, UtteranceID: utteranceID}
		if !isFinal {
			// Tentative: emit but keep listening for a reclassification.
			d.Provisional = true
			w.phase = phaseProvisional
			metricProvisional.Inc()
			e.emitLocked(sessionID, d)
			return &d
		}
	}

	if w.phase == phaseProvisional && d.Action != ActionIgnore {
		metricOverrides.Inc()
		log.Printf("[floor] provisional ignore overridden sid=%s utt=%s action=%s", sessionID, utteranceID, d.Action)
	}
	e.resolveLocked(sessionID, w, d)
	return &d
}

// ResetSession drops all per-session state (worker reconnect, session end).
func (e *Engine) ResetSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ss := e.sessions[sessionID]; ss != nil {
		if ss.cur != nil {
			ss.cur.stopTimer()
		}
		ss.tracker.StopSpeaking()
		delete(e.sessions, sessionID)
	}
}

// waitExpired fires when the bounded transcript wait elapses with no
// transcript: apply the configured fallback policy.
func (e *Engine) waitExpired(sessionID string, gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ss := e.sessions[sessionID]
	if ss == nil {
		return
	}
	w := ss.cur
	if w == nil || w.gen != gen || w.phase != phaseAwaitingText {
		return
	}
	if !ss.tracker.Snapshot().Speaking {
		// Agent finished on its own; nothing left to interrupt.
		w.phase = phaseResolved
		e.store.AppendEvent(sessionID, "wait_expired_silent", map[string]any{"reason": ReasonSpeechFinished})
		return
	}

	metricWaitTimeouts.Inc()
	d := Decision{Action: e.opts.TimeoutFallback, Reason: ReasonWaitTimeout, UtteranceID: w.id}
	e.resolveLocked(sessionID, w, d)
}

func (e *Engine) sessionLocked(sessionID string) *sessionState {
	ss := e.sessions[sessionID]
	if ss == nil {
		ss = &sessionState{id: sessionID, tracker: speech.NewTracker(e.opts.MaxSpeech)}
		e.sessions[sessionID] = ss
	}
	return ss
}

// closeLocked resolves a window without dispatching a decision.
func (e *Engine) closeLocked(sessionID string, w *window, reason string) {
	w.stopTimer()
	w.phase = phaseResolved
	e.store.AppendEvent(sessionID, "utterance_closed", map[string]any{
		"utterance_id": w.id, "speech_id": w.speechID, "reason": reason,
	})
}

func (e *Engine) resolveLocked(sessionID string, w *window, d Decision) {
	w.stopTimer()
	w.phase = phaseResolved
	metricDecisionLatency.Observe(float64(time.Since(w.openedAt).Milliseconds()))
	e.emitLocked(sessionID, d)
}

// emitLocked records and dispatches a decision. Dispatch runs on its own
// goroutine: the sink talks to the host's speech-control surface and must
// never hold up event handling.
func (e *Engine) emitLocked(sessionID string, d Decision) {
	metricDecisions.WithLabelValues(d.Action.String()).Inc()
	e.store.AppendDecision(sessionID, store.DecisionRecord{
		UtteranceID: d.UtteranceID,
		Action:      d.Action.String(),
		Reason:      d.Reason,
		Provisional: d.Provisional,
		At:          time.Now().UTC(),
	})
	e.store.AppendEvent(sessionID, "decision", map[string]any{
		"action": d.Action.String(), "reason": d.Reason,
		"utterance_id": d.UtteranceID, "provisional": d.Provisional,
	})
	log.Printf("[floor] decision sid=%s utt=%s action=%s reason=%s provisional=%v",
		sessionID, d.UtteranceID, d.Action, d.Reason, d.Provisional)
	if e.sink != nil {
		go e.sink.Apply(sessionID, d)
	}
}
