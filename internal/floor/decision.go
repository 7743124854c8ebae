package floor

// Action is what the engine wants done with a user utterance.
type Action int

const (
	// ActionIgnore: user speech is a backchannel; agent speech continues.
	ActionIgnore Action = iota
	// ActionInterrupt: halt agent speech and commit the utterance as the
	// user's new turn.
	ActionInterrupt
	// ActionRespond: agent was silent; commit the turn normally.
	ActionRespond
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "ignore"
	case ActionInterrupt:
		return "interrupt"
	case ActionRespond:
		return "respond"
	default:
		return "unknown"
	}
}

// Decision is the engine's verdict for one utterance. A provisional
// decision (tentative ignore from an interim transcript) may be superseded
// by a later decision for the same utterance; a final-transcript decision
// is authoritative.
type Decision struct {
	Action      Action
	Reason      string
	UtteranceID string
	Provisional bool
}

// Sink receives emitted decisions. Calls are fire-and-forget; the engine
// never waits on a sink.
type Sink interface {
	Apply(sessionID string, d Decision)
}

// Decision reasons.
const (
	ReasonAgentSilent    = "agent_silent"
	ReasonCommandWord    = "command_word"
	ReasonContent        = "content_while_speaking"
	ReasonBackchannel    = "backchannel_only"
	ReasonWaitTimeout    = "transcript_timeout"
	ReasonEmptyText      = "empty_transcript"
	ReasonSuperseded     = "superseded"
	ReasonSpeechFinished = "agent_speech_finished"
)
