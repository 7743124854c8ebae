package lexicon

import "strings"

// Category is the lexical class of an utterance.
type Category int

const (
	// Backchannel: every token is a listening acknowledgement ("yeah").
	Backchannel Category = iota
	// Command: an explicit stop/turn-taking word is present.
	Command
	// Mixed: command and backchannel tokens coexist. Treated exactly like
	// Command downstream; one command token overrides any number of
	// backchannels.
	Mixed
	// Other: substantive content that matches neither lexicon.
	Other
)

func (c Category) String() string {
	switch c {
	case Backchannel:
		return "backchannel"
	case Command:
		return "command"
	case Mixed:
		return "mixed"
	case Other:
		return "other"
	default:
		return "unknown"
	}
}

// Result is a pure function of the input text and the two lexicons.
type Result struct {
	Category        Category
	Normalized      string
	BackchannelHits map[string]struct{}
	CommandHits     map[string]struct{}
}

// Empty reports whether the utterance normalized to nothing. Empty results
// resolve to a no-op downstream, neither ignore nor interrupt.
func (r Result) Empty() bool { return r.Normalized == "" }

// Classifier holds the compiled lexicons and the fuzzy acceptance
// threshold. Read-only after construction, safe for concurrent use.
type Classifier struct {
	ignore    *Lexicon
	command   *Lexicon
	threshold float64
}

// NewClassifier compiles both lexicons. Any failure here is a
// configuration error; a Classifier that constructed successfully cannot
// fail at decision time.
func NewClassifier(ignoreWords, commandWords []string, fuzzyThreshold float64) (*Classifier, error) {
	if fuzzyThreshold <= 0 || fuzzyThreshold > 1 {
		return nil, ErrBadThreshold
	}
	ig, err := Compile(ignoreWords)
	if err != nil {
		return nil, err
	}
	cmd, err := Compile(commandWords)
	if err != nil {
		return nil, err
	}
	return &Classifier{ignore: ig, command: cmd, threshold: fuzzyThreshold}, nil
}

// Classify normalizes text and runs the match tiers:
// phrase containment, exact token membership, fuzzy token similarity.
// Precedence: commands always win, backchannel requires every token
// accounted for, anything else with content is Other.
func (c *Classifier) Classify(text string) Result {
	res := Result{
		Normalized:      Normalize(text),
		BackchannelHits: map[string]struct{}{},
		CommandHits:     map[string]struct{}{},
	}
	if res.Normalized == "" {
		res.Category = Other
		return res
	}

	// Tier 0: multi-word phrases against the whole string, both lexicons.
	for _, p := range c.command.Phrases() {
		if strings.Contains(res.Normalized, p) {
			res.CommandHits[p] = struct{}{}
		}
	}
	working := res.Normalized
	for _, p := range c.ignore.Phrases() {
		if strings.Contains(working, p) {
			res.BackchannelHits[p] = struct{}{}
			// Remove so the phrase's tokens don't count as content below.
			working = strings.Join(strings.Fields(strings.ReplaceAll(working, p, " ")), " ")
		}
	}

	content := 0
	for _, tok := range strings.Fields(working) {
		switch {
		// Tier 1: exact membership. Command first so a token in both
		// lexicons counts as a command.
		case c.command.HasWord(tok):
			res.CommandHits[tok] = struct{}{}
		case c.ignore.HasWord(tok):
			res.BackchannelHits[tok] = struct{}{}
		default:
			// Tier 2: fuzzy against each entry, command lexicon first.
			if m, ok := bestMatch(tok, c.command.Entries(), c.threshold); ok {
				res.CommandHits[m] = struct{}{}
			} else if m, ok := bestMatch(tok, c.ignore.Entries(), c.threshold); ok {
				res.BackchannelHits[m] = struct{}{}
			} else {
				// Tier 3: unmatched content token.
				content++
			}
		}
	}

	switch {
	case len(res.CommandHits) > 0 && len(res.BackchannelHits) > 0:
		res.Category = Mixed
	case len(res.CommandHits) > 0:
		res.Category = Command
	case content == 0 && len(res.BackchannelHits) > 0:
		res.Category = Backchannel
	default:
		res.Category = Other
	}
	return res
}

// bestMatch returns the lexicon entry with the highest similarity to tok,
// if it clears the threshold.
func bestMatch(tok string, entries []string, threshold float64) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, e := range entries {
		if s := similarity(tok, e); s > bestScore {
			best, bestScore = e, s
		}
	}
	if bestScore >= threshold {
		return best, true
	}
	return "", false
}

// similarity is edit distance normalized to [0,1] by the longer length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	n := len(ra)
	if len(rb) > n {
		n = len(rb)
	}
	if n == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(n)
}

// levenshtein computes edit distance with a rolling two-row table.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
