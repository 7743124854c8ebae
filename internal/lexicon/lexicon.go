package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyLexicon = errors.New("lexicon has no entries")
	ErrBadEntry     = errors.New("lexicon entry normalizes to nothing")
	ErrBadThreshold = errors.New("fuzzy threshold outside (0,1]")
)

// Lexicon is a compiled word/phrase set. Single-word entries live in a set
// for O(1) token lookup; multi-word entries are kept as phrases and matched
// by containment against the whole normalized string.
type Lexicon struct {
	words   map[string]struct{}
	phrases []string
	entries []string
}

// Compile normalizes raw entries into a Lexicon. An entry that normalizes
// to the empty string is a configuration error, surfaced here at load time.
func Compile(raw []string) (*Lexicon, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyLexicon
	}
	l := &Lexicon{words: make(map[string]struct{}, len(raw))}
	seen := make(map[string]struct{}, len(raw))
	for _, e := range raw {
		n := Normalize(e)
		if n == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadEntry, e)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if strings.ContainsRune(n, ' ') {
			l.phrases = append(l.phrases, n)
		} else {
			l.words[n] = struct{}{}
		}
		l.entries = append(l.entries, n)
	}
	return l, nil
}

func (l *Lexicon) HasWord(tok string) bool {
	_, ok := l.words[tok]
	return ok
}

// Phrases returns the multi-word entries.
func (l *Lexicon) Phrases() []string { return l.phrases }

// Entries returns every normalized entry, words and phrases alike.
func (l *Lexicon) Entries() []string { return l.entries }

func (l *Lexicon) Len() int { return len(l.entries) }
