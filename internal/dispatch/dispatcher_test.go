package dispatch

import (
	"context"
	"testing"

	"koe/agent/internal/floor"
)

type controlSpy struct {
	calls []string
}

func (c *controlSpy) InterruptSpeech(ctx context.Context, sessionID, utteranceID string) error {
	c.calls = append(c.calls, "interrupt:"+utteranceID)
	return nil
}

func (c *controlSpy) CommitTurn(ctx context.Context, sessionID, utteranceID string) error {
	c.calls = append(c.calls, "commit:"+utteranceID)
	return nil
}

func (c *controlSpy) ClearTurn(ctx context.Context, sessionID string) error {
	c.calls = append(c.calls, "clear")
	return nil
}

func TestIgnoreTouchesNothing(t *testing.T) {
	spy := &controlSpy{}
	New(spy).Apply("s1", floor.Decision{Action: floor.ActionIgnore, UtteranceID: "u1"})
	if len(spy.calls) != 0 {
		t.Fatalf("ignore must make no calls, got %v", spy.calls)
	}
}

func TestInterruptStopsThenCommits(t *testing.T) {
	spy := &controlSpy{}
	New(spy).Apply("s1", floor.Decision{Action: floor.ActionInterrupt, UtteranceID: "u1"})
	if len(spy.calls) != 2 || spy.calls[0] != "interrupt:u1" || spy.calls[1] != "commit:u1" {
		t.Fatalf("expected interrupt then commit, got %v", spy.calls)
	}
}

func TestInterruptWithoutUtteranceSkipsCommit(t *testing.T) {
	// Timeout fallback decisions have no transcript to commit.
	spy := &controlSpy{}
	New(spy).Apply("s1", floor.Decision{Action: floor.ActionInterrupt})
	if len(spy.calls) != 1 || spy.calls[0] != "interrupt:" {
		t.Fatalf("expected interrupt only, got %v", spy.calls)
	}
}

func TestRespondCommitsWithoutInterrupt(t *testing.T) {
	spy := &controlSpy{}
	New(spy).Apply("s1", floor.Decision{Action: floor.ActionRespond, UtteranceID: "u1"})
	if len(spy.calls) != 1 || spy.calls[0] != "commit:u1" {
		t.Fatalf("expected commit only, got %v", spy.calls)
	}
}

func TestRespondFromBareVADWaitsForTranscript(t *testing.T) {
	spy := &controlSpy{}
	New(spy).Apply("s1", floor.Decision{Action: floor.ActionRespond})
	if len(spy.calls) != 0 {
		t.Fatalf("respond without an utterance id must not commit, got %v", spy.calls)
	}
}
