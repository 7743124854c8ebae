package workerws

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"koe/agent/internal/auth"
	"koe/agent/internal/config"
	"koe/agent/internal/floor"
	"koe/agent/internal/speech"
	"koe/agent/internal/store"

	ws "nhooyr.io/websocket"
)

// Message is the JSON envelope shared with the worker. Inbound types:
// worker_hello, tts_started, tts_first_audio, tts_stopped, vad_start,
// vad_end, transcript_interim, transcript_final, cmd_ack. Outbound:
// stop_tts, commit_turn, clear_turn.
type Message struct {
	Type        string         `json:"type"`
	TsMs        int64          `json:"ts_ms"`
	SessionID   string         `json:"session_id"`
	Seq         int64          `json:"seq"`
	CommandID   string         `json:"command_id,omitempty"`
	UtteranceID string         `json:"utterance_id,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type Server struct {
	Cfg    config.Config
	Store  *store.Store
	Reg    *Registry
	Engine *floor.Engine
}

func NewServer(cfg config.Config, st *store.Store, reg *Registry, eng *floor.Engine) *Server {
	return &Server{Cfg: cfg, Store: st, Reg: reg, Engine: eng}
}

func (s *Server) HandleWorkerWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := q.Get("session_id")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if s.Store.GetSession(sessionID) == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	// Auth header
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	token := strings.TrimPrefix(authz, "Bearer ")
	if s.Cfg.Worker.TokenSecret == "" {
		http.Error(w, "worker auth not configured", http.StatusUnauthorized)
		return
	}
	if _, err := auth.ValidateWorkerToken(s.Cfg.Worker.TokenSecret, token, sessionID, time.Now(), s.Cfg.Worker.TokenSkewSecs); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	c, err := ws.Accept(w, r, nil)
	if err != nil {
		log.Printf("[ws] accept: %v", err)
		return
	}
	if replaced := s.Reg.Replace(sessionID, c); replaced {
		s.Store.AppendEvent(sessionID, "worker_replaced", nil)
	}
	s.Store.AppendEvent(sessionID, "worker_connected", nil)

	ctx := r.Context()
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			break
		}
		if typ != ws.MessageText && typ != ws.MessageBinary {
			continue
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			s.Store.AppendEvent(sessionID, "worker_msg_invalid", map[string]any{"error": err.Error()})
			continue
		}
		s.route(sessionID, msg)
	}
	_ = c.Close(ws.StatusNormalClosure, "done")
	s.Reg.Remove(sessionID)
	s.Store.AppendEvent(sessionID, "worker_disconnected", nil)
}

// route feeds one worker message into the decision engine.
func (s *Server) route(sessionID string, msg Message) {
	switch msg.Type {
	case "worker_hello":
		// Reconnect: drop any stale speaking/window state.
		s.Engine.ResetSession(sessionID)
		s.Store.AppendEvent(sessionID, "worker_hello", msg.Payload)

	case "tts_started":
		force := false
		if msg.Payload != nil {
			if v, ok := msg.Payload["force"].(bool); ok {
				force = v
			}
		}
		if err := s.Engine.OnAgentSpeechStarted(sessionID, msg.UtteranceID, force); err != nil {
			if errors.Is(err, speech.ErrAlreadySpeaking) {
				log.Printf("[ws] tts_started conflict sid=%s utt=%s", sessionID, msg.UtteranceID)
			}
			s.Store.AppendEvent(sessionID, "tts_started_rejected", map[string]any{
				"utterance_id": msg.UtteranceID, "error": err.Error(),
			})
		}

	case "tts_first_audio":
		s.Store.AppendEvent(sessionID, "tts_first_audio", msg.Payload)

	case "tts_stopped":
		s.Engine.OnAgentSpeechStopped(sessionID)

	case "vad_start":
		s.Engine.OnVADStart(sessionID)

	case "vad_end":
		s.Store.AppendEvent(sessionID, "vad_end", nil)

	case "transcript_interim", "transcript_final":
		text := ""
		if msg.Payload != nil {
			if v, ok := msg.Payload["text"].(string); ok {
				text = v
			}
		}
		s.Engine.OnTranscript(sessionID, msg.UtteranceID, text, msg.Type == "transcript_final")

	case "cmd_ack":
		s.Store.AppendEvent(sessionID, "cmd_ack", map[string]any{"command_id": msg.CommandID})

	default:
		s.Store.AppendEvent(sessionID, "worker_msg_unknown", map[string]any{"type": msg.Type})
	}
}
