package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := "s3cret"
	exp := time.Now().Add(time.Hour).Unix()
	tok := GenerateWorkerToken(secret, "sess-1", exp)

	gotExp, err := ValidateWorkerToken(secret, tok, "sess-1", time.Now(), 30)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if gotExp != exp {
		t.Fatalf("expected exp %d, got %d", exp, gotExp)
	}
}

func TestTokenWrongSession(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := GenerateWorkerToken("s3cret", "sess-1", exp)
	if _, err := ValidateWorkerToken("s3cret", tok, "sess-2", time.Now(), 30); err != ErrTokenSID {
		t.Fatalf("expected ErrTokenSID, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := GenerateWorkerToken("s3cret", "sess-1", exp)
	if _, err := ValidateWorkerToken("other", tok, "sess-1", time.Now(), 30); err != ErrTokenSig {
		t.Fatalf("expected ErrTokenSig, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	exp := time.Now().Add(-time.Hour).Unix()
	tok := GenerateWorkerToken("s3cret", "sess-1", exp)
	if _, err := ValidateWorkerToken("s3cret", tok, "sess-1", time.Now(), 30); err != ErrTokenExp {
		t.Fatalf("expected ErrTokenExp, got %v", err)
	}
	// Inside the skew the token is still accepted.
	recent := time.Now().Add(-10 * time.Second).Unix()
	tok = GenerateWorkerToken("s3cret", "sess-1", recent)
	if _, err := ValidateWorkerToken("s3cret", tok, "sess-1", time.Now(), 30); err != nil {
		t.Fatalf("token inside skew should validate: %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := ValidateWorkerToken("s3cret", "not-a-token!!", "sess-1", time.Now(), 30); err != ErrTokenFormat {
		t.Fatalf("expected ErrTokenFormat, got %v", err)
	}
}
