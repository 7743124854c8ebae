package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"koe/agent/internal/auth"
	"koe/agent/internal/config"
	"koe/agent/internal/floor"
	"koe/agent/internal/store"
	"koe/agent/internal/types"
)

type Handlers struct {
	cfg    config.Config
	store  *store.Store
	engine *floor.Engine
}

func NewHandlers(cfg config.Config, st *store.Store, eng *floor.Engine) *Handlers {
	return &Handlers{cfg: cfg, store: st, engine: eng}
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	sess := &types.Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Status:    "created",
	}
	_ = h.store.CreateSession(sess)
	h.store.AppendEvent(id, "session_created", nil)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"session_id": id})
}

func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"events":     h.store.ListEvents(id),
	})
}

func (h *Handlers) HandleListDecisions(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"session_id": id,
		"decisions":  h.store.ListDecisions(id),
	})
}

func (h *Handlers) HandleMintWorkerToken(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	if h.cfg.Worker.TokenSecret == "" {
		http.Error(w, "worker auth not configured", http.StatusBadRequest)
		return
	}
	exp := time.Now().Add(time.Duration(h.cfg.Worker.TokenExpMin) * time.Minute).Unix()
	tok := auth.GenerateWorkerToken(h.cfg.Worker.TokenSecret, id, exp)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"token": tok, "exp": exp})
}

// Debug handlers inject engine events directly, bypassing the worker
// websocket. Useful for manual poking and integration checks.

func (h *Handlers) HandleDebugVADStart(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	d := h.engine.OnVADStart(id)
	writeDecision(w, d)
}

func (h *Handlers) HandleDebugTranscript(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	var ev types.TranscriptEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	ev.SessionID = id
	ev.ReceivedAt = time.Now().UTC()
	d := h.engine.OnTranscript(id, ev.UtteranceID, ev.Text, ev.IsFinal)
	writeDecision(w, d)
}

func (h *Handlers) HandleDebugSpeechStart(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	var body struct {
		UtteranceID string `json:"utterance_id"`
		Force       bool   `json:"force"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.engine.OnAgentSpeechStarted(id, body.UtteranceID, body.Force); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func (h *Handlers) HandleDebugSpeechStop(w http.ResponseWriter, r *http.Request, id string) {
	if h.store.GetSession(id) == nil {
		http.NotFound(w, r)
		return
	}
	h.engine.OnAgentSpeechStopped(id)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func writeDecision(w http.ResponseWriter, d *floor.Decision) {
	w.Header().Set("Content-Type", "application/json")
	if d == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"decision": nil})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"decision": map[string]any{
		"action":       d.Action.String(),
		"reason":       d.Reason,
		"utterance_id": d.UtteranceID,
		"provisional":  d.Provisional,
	}})
}
