package speech

import (
	"testing"
	"time"
)

func TestStartStop(t *testing.T) {
	tr := NewTracker(0)

	if st := tr.Snapshot(); st.Speaking {
		t.Fatal("new tracker should be silent")
	}

	if err := tr.StartSpeaking("u1", false); err != nil {
		t.Fatalf("start: %v", err)
	}
	st := tr.Snapshot()
	if !st.Speaking || st.UtteranceID != "u1" {
		t.Fatalf("expected speaking u1, got %+v", st)
	}
	if st.StartedAt.IsZero() {
		t.Fatal("StartedAt should be set")
	}

	tr.StopSpeaking()
	st = tr.Snapshot()
	if st.Speaking || st.UtteranceID != "" {
		t.Fatalf("expected silent after stop, got %+v", st)
	}
}

func TestStopIdempotent(t *testing.T) {
	tr := NewTracker(0)
	tr.StopSpeaking()
	tr.StopSpeaking()
	if tr.Snapshot().Speaking {
		t.Fatal("should stay silent")
	}
}

func TestStartWhileSpeaking(t *testing.T) {
	tr := NewTracker(0)
	if err := tr.StartSpeaking("u1", false); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tr.StartSpeaking("u2", false); err != ErrAlreadySpeaking {
		t.Fatalf("expected ErrAlreadySpeaking, got %v", err)
	}
	if st := tr.Snapshot(); st.UtteranceID != "u1" {
		t.Fatalf("failed start must not change state, got %+v", st)
	}

	// Same id refreshes, different id with force replaces.
	if err := tr.StartSpeaking("u1", false); err != nil {
		t.Fatalf("restart same id: %v", err)
	}
	if err := tr.StartSpeaking("u2", true); err != nil {
		t.Fatalf("forced start: %v", err)
	}
	if st := tr.Snapshot(); st.UtteranceID != "u2" {
		t.Fatalf("expected u2 after force, got %+v", st)
	}
}

func TestSafetyCeiling(t *testing.T) {
	tr := NewTracker(20 * time.Millisecond)
	if err := tr.StartSpeaking("u1", false); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !tr.Snapshot().Speaking {
		t.Fatal("should be speaking before ceiling")
	}

	time.Sleep(60 * time.Millisecond)
	if tr.Snapshot().Speaking {
		t.Fatal("ceiling should have auto-silenced the tracker")
	}
}

func TestSafetyCeilingSupersededByNewSegment(t *testing.T) {
	tr := NewTracker(30 * time.Millisecond)
	if err := tr.StartSpeaking("u1", false); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(15 * time.Millisecond)
	// New segment re-arms the ceiling; the first timer must not fire on it.
	if err := tr.StartSpeaking("u2", true); err != nil {
		t.Fatalf("forced start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if st := tr.Snapshot(); !st.Speaking || st.UtteranceID != "u2" {
		t.Fatalf("u2 should still be speaking, got %+v", st)
	}
}
