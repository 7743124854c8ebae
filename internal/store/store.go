package store

import (
	"errors"
	"sync"
	"time"

	"koe/agent/internal/types"
)

var ErrSessionExists = errors.New("session already exists")

// Store keeps sessions, their event logs, and the decisions the engine
// emitted. In-memory only; nothing survives a restart.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*types.Session
	events    map[string][]types.Event
	decisions map[string][]DecisionRecord
}

// DecisionRecord is the audit trail entry for one emitted decision.
type DecisionRecord struct {
	UtteranceID string    `json:"utterance_id,omitempty"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason"`
	Provisional bool      `json:"provisional,omitempty"`
	At          time.Time `json:"at"`
}

func New() *Store {
	return &Store{
		sessions:  make(map[string]*types.Session),
		events:    make(map[string][]types.Event),
		decisions: make(map[string][]DecisionRecord),
	}
}

func (s *Store) CreateSession(sess *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; ok {
		return ErrSessionExists
	}
	s.sessions[sess.ID] = sess
	s.events[sess.ID] = []types.Event{}
	return nil
}

func (s *Store) GetSession(id string) *types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[id]
}

func (s *Store) AppendEvent(sessionID, typ string, payload map[string]any) types.Event {
	evt := types.Event{Type: typ, Ts: time.Now().UTC(), Payload: payload}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[sessionID] = append(s.events[sessionID], evt)
	// Cap total events per session to avoid unbounded growth
	const maxEvents = 200
	if l := len(s.events[sessionID]); l > maxEvents {
		keep := maxEvents - 1
		dropped := l - keep
		s.events[sessionID] = append([]types.Event(nil), s.events[sessionID][l-keep:]...)
		warn := types.Event{Type: "events_truncated", Ts: time.Now().UTC(), Payload: map[string]any{"session_id": sessionID, "dropped": dropped, "kept": keep}}
		s.events[sessionID] = append(s.events[sessionID], warn)
	}
	return evt
}

func (s *Store) ListEvents(sessionID string) []types.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.events[sessionID]
	out := make([]types.Event, len(src))
	copy(out, src)
	return out
}

func (s *Store) AppendDecision(sessionID string, rec DecisionRecord) {
	s.mu.Lock()
	s.decisions[sessionID] = append(s.decisions[sessionID], rec)
	s.mu.Unlock()
}

func (s *Store) ListDecisions(sessionID string) []DecisionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.decisions[sessionID]
	out := make([]DecisionRecord, len(src))
	copy(out, src)
	return out
}

func (s *Store) ListSessionIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}
