package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"koe/agent/internal/store"
	"koe/agent/internal/workerws"
)

// WorkerControl implements SpeechControl over the worker websocket: each
// call becomes one outbound command message with a fresh command id so
// the worker's cmd_ack can be correlated in the event log.
type WorkerControl struct {
	reg   *workerws.Registry
	store *store.Store
}

func NewWorkerControl(reg *workerws.Registry, st *store.Store) *WorkerControl {
	return &WorkerControl{reg: reg, store: st}
}

func (c *WorkerControl) InterruptSpeech(ctx context.Context, sessionID, utteranceID string) error {
	return c.send(ctx, sessionID, "stop_tts", utteranceID, map[string]any{"mode": "current", "reason": "barge_in"})
}

func (c *WorkerControl) CommitTurn(ctx context.Context, sessionID, utteranceID string) error {
	return c.send(ctx, sessionID, "commit_turn", utteranceID, nil)
}

func (c *WorkerControl) ClearTurn(ctx context.Context, sessionID string) error {
	return c.send(ctx, sessionID, "clear_turn", "", nil)
}

func (c *WorkerControl) send(ctx context.Context, sessionID, typ, utteranceID string, payload map[string]any) error {
	cmdID := uuid.New().String()
	msg := workerws.Message{
		Type:        typ,
		TsMs:        time.Now().UnixMilli(),
		SessionID:   sessionID,
		CommandID:   cmdID,
		UtteranceID: utteranceID,
		Payload:     payload,
	}
	err := c.reg.Send(ctx, sessionID, msg)
	c.store.AppendEvent(sessionID, typ+"_sent", map[string]any{
		"command_id": cmdID, "utterance_id": utteranceID,
	})
	return err
}
