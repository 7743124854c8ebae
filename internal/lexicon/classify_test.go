package lexicon

import "testing"

var (
	testIgnore  = []string{"yeah", "yes", "okay", "ok", "uh huh", "mm hmm", "right", "sure"}
	testCommand = []string{"stop", "wait", "no", "hold on", "hang on", "pause", "cancel"}
)

func newTestClassifier(t *testing.T, threshold float64) *Classifier {
	t.Helper()
	c, err := NewClassifier(testIgnore, testCommand, threshold)
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	return c
}

func TestClassifyBackchannelOnly(t *testing.T) {
	c := newTestClassifier(t, 0.8)
	for _, s := range []string{"yeah", "Yeah!", "okay sure", "uh huh", "yeah uh huh right"} {
		r := c.Classify(s)
		if r.Category != Backchannel {
			t.Errorf("Classify(%q) = %v, want backchannel (hits %v)", s, r.Category, r.BackchannelHits)
		}
	}
}

func TestClassifyCommand(t *testing.T) {
	c := newTestClassifier(t, 0.8)
	r := c.Classify("stop")
	if r.Category != Command {
		t.Fatalf("Classify(stop) = %v, want command", r.Category)
	}
	if _, ok := r.CommandHits["stop"]; !ok {
		t.Fatalf("expected stop in command hits, got %v", r.CommandHits)
	}
}

func TestCommandBeatsBackchannels(t *testing.T) {
	// One command token overrides any number of backchannel tokens.
	c := newTestClassifier(t, 0.8)
	r := c.Classify("yeah okay but wait")
	if r.Category != Mixed && r.Category != Command {
		t.Fatalf("Classify(yeah okay but wait) = %v, want command/mixed", r.Category)
	}
	if _, ok := r.CommandHits["wait"]; !ok {
		t.Fatalf("expected wait hit, got %v", r.CommandHits)
	}
}

func TestClassifyMixed(t *testing.T) {
	c := newTestClassifier(t, 0.8)
	r := c.Classify("yeah stop")
	if r.Category != Mixed {
		t.Fatalf("Classify(yeah stop) = %v, want mixed", r.Category)
	}
	if len(r.BackchannelHits) == 0 || len(r.CommandHits) == 0 {
		t.Fatalf("mixed should record both hit sets: %v / %v", r.BackchannelHits, r.CommandHits)
	}
}

func TestClassifyOther(t *testing.T) {
	c := newTestClassifier(t, 0.8)
	r := c.Classify("tell me about the weather")
	if r.Category != Other {
		t.Fatalf("Classify(weather) = %v, want other", r.Category)
	}
	if len(r.CommandHits) != 0 {
		t.Fatalf("unexpected command hits: %v", r.CommandHits)
	}
}

func TestClassifyMultiWordPhrases(t *testing.T) {
	c := newTestClassifier(t, 0.8)

	r := c.Classify("hold on a second")
	if r.Category != Command && r.Category != Mixed {
		t.Fatalf("Classify(hold on a second) = %v, want command", r.Category)
	}
	if _, ok := r.CommandHits["hold on"]; !ok {
		t.Fatalf("expected phrase hit, got %v", r.CommandHits)
	}

	// Backchannel phrase covers its tokens: no content left over.
	r = c.Classify("uh huh")
	if r.Category != Backchannel {
		t.Fatalf("Classify(uh huh) = %v, want backchannel", r.Category)
	}
}

func TestClassifyFuzzy(t *testing.T) {
	c := newTestClassifier(t, 0.8)

	// stopp -> stop: 1 edit over 5 runes = 0.8, accepted at the default.
	r := c.Classify("stopp")
	if r.Category != Command {
		t.Fatalf("Classify(stopp) = %v, want command via fuzzy", r.Category)
	}

	// yeh -> yeah is 0.75, below 0.8; a looser threshold accepts it.
	r = c.Classify("yeh")
	if r.Category != Other {
		t.Fatalf("Classify(yeh)@0.8 = %v, want other", r.Category)
	}
	loose := newTestClassifier(t, 0.7)
	r = loose.Classify("yeh")
	if r.Category != Backchannel {
		t.Fatalf("Classify(yeh)@0.7 = %v, want backchannel", r.Category)
	}
}

func TestClassifyEmpty(t *testing.T) {
	c := newTestClassifier(t, 0.8)
	for _, s := range []string{"", "   ", "\t\n", "!!!"} {
		r := c.Classify(s)
		if !r.Empty() {
			t.Errorf("Classify(%q) should be empty, got %q", s, r.Normalized)
		}
		if r.Category != Other {
			t.Errorf("Classify(%q) = %v, want other", s, r.Category)
		}
		if len(r.BackchannelHits) != 0 || len(r.CommandHits) != 0 {
			t.Errorf("empty input should have no hits")
		}
	}
}

func TestNewClassifierRejectsBadConfig(t *testing.T) {
	if _, err := NewClassifier(nil, testCommand, 0.8); err == nil {
		t.Fatal("expected error for empty ignore lexicon")
	}
	if _, err := NewClassifier(testIgnore, []string{"stop", "!!!"}, 0.8); err == nil {
		t.Fatal("expected error for entry that normalizes to nothing")
	}
	if _, err := NewClassifier(testIgnore, testCommand, 0); err == nil {
		t.Fatal("expected error for zero threshold")
	}
	if _, err := NewClassifier(testIgnore, testCommand, 1.2); err == nil {
		t.Fatal("expected error for threshold above 1")
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"stop", "", 4},
		{"stop", "stop", 0},
		{"stop", "stopp", 1},
		{"yeah", "yeh", 1},
		{"wait", "what", 2},
	}
	for _, c := range cases {
		if got := levenshtein([]rune(c.a), []rune(c.b)); got != c.want {
			t.Errorf("levenshtein(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
