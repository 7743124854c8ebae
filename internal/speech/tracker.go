package speech

import (
	"errors"
	"sync"
	"time"
)

// ErrAlreadySpeaking is returned when a speech segment starts while a
// different one is still active and force was not set.
var ErrAlreadySpeaking = errors.New("agent already speaking with another utterance")

// State is a snapshot of the agent's speech output. Owned by the Tracker;
// everything else reads copies.
type State struct {
	Speaking    bool
	UtteranceID string
	StartedAt   time.Time
}

// Tracker owns the agent-speaking flag for one session. All mutation goes
// through StartSpeaking/StopSpeaking; Snapshot holds the lock only for the
// copy and never blocks on other work.
//
// A non-zero maxDuration arms a safety ceiling: if StopSpeaking never
// arrives, the tracker auto-transitions to silent so a lost stop event
// cannot leave the engine treating every user word as a barge-in forever.
type Tracker struct {
	mu    sync.Mutex
	st    State
	gen   uint64 // invalidates ceiling timers from earlier segments
	timer *time.Timer

	maxDuration time.Duration
}

func NewTracker(maxDuration time.Duration) *Tracker {
	return &Tracker{maxDuration: maxDuration}
}

// StartSpeaking marks the agent as speaking utteranceID. Starting over a
// different active segment is an error unless force is set; restarting the
// same segment refreshes the timestamp.
func (t *Tracker) StartSpeaking(utteranceID string, force bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.st.Speaking && t.st.UtteranceID != utteranceID && !force {
		return ErrAlreadySpeaking
	}

	t.st = State{Speaking: true, UtteranceID: utteranceID, StartedAt: time.Now()}
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.maxDuration > 0 {
		gen := t.gen
		t.timer = time.AfterFunc(t.maxDuration, func() { t.expire(gen) })
	}
	return nil
}

// StopSpeaking clears the speaking state. Idempotent.
func (t *Tracker) StopSpeaking() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	st := t.st
	t.mu.Unlock()
	return st
}

// expire is the ceiling timer callback; a stale generation means a newer
// segment (or an explicit stop) already superseded this timer.
func (t *Tracker) expire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen {
		return
	}
	t.clearLocked()
}

func (t *Tracker) clearLocked() {
	t.st = State{}
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
