package dispatch

import (
	"context"
	"log"
	"time"

	"koe/agent/internal/floor"
)

// SpeechControl is the host session's speech-control surface. The engine
// only ever calls it fire-and-forget; implementations own retries, if any.
type SpeechControl interface {
	InterruptSpeech(ctx context.Context, sessionID, utteranceID string) error
	CommitTurn(ctx context.Context, sessionID, utteranceID string) error
	ClearTurn(ctx context.Context, sessionID string) error
}

const applyTimeout = 5 * time.Second

// Dispatcher maps decisions onto SpeechControl calls. It holds no state:
// ignore touches nothing, interrupt halts speech then commits the new
// turn, respond commits without interrupting.
type Dispatcher struct {
	ctl SpeechControl
}

func New(ctl SpeechControl) *Dispatcher { return &Dispatcher{ctl: ctl} }

// Apply implements floor.Sink. Errors are logged, never propagated: a
// decision is dispatched once and never re-attempted (the next transcript
// event produces a fresh decision under the supersede rule).
func (d *Dispatcher) Apply(sessionID string, dec floor.Decision) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	switch dec.Action {
	case floor.ActionIgnore:
		// Agent speech continues untouched.

	case floor.ActionInterrupt:
		if err := d.ctl.InterruptSpeech(ctx, sessionID, dec.UtteranceID); err != nil {
			log.Printf("[dispatch] interrupt sid=%s: %v", sessionID, err)
		}
		if dec.UtteranceID != "" {
			if err := d.ctl.CommitTurn(ctx, sessionID, dec.UtteranceID); err != nil {
				log.Printf("[dispatch] commit sid=%s utt=%s: %v", sessionID, dec.UtteranceID, err)
			}
		}

	case floor.ActionRespond:
		// A respond decision without an utterance id comes from the VAD
		// signal alone; the commit happens once a transcript names the
		// utterance.
		if dec.UtteranceID == "" {
			return
		}
		if err := d.ctl.CommitTurn(ctx, sessionID, dec.UtteranceID); err != nil {
			log.Printf("[dispatch] commit sid=%s utt=%s: %v", sessionID, dec.UtteranceID, err)
		}
	}
}
