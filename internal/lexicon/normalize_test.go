package lexicon

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Yeah!", "yeah"},
		{"  HOLD   ON?? ", "hold on"},
		{"uh-huh", "uhhuh"},
		{"one\tsecond\nplease", "one second please"},
		{"", ""},
		{"   \t\n ", ""},
		{"it's fine", "its fine"},
		{"café // crème", "café crème"},
		{"stop. Stop! STOP", "stop stop stop"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Yeah, okay... but WAIT!",
		"  uh   huh  ",
		"tell me about the weather",
		"çöğüş 123 !!",
		"",
	}
	for _, s := range inputs {
		once := Normalize(s)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", s, once, twice)
		}
	}
}
