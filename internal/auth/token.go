package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
	ErrTokenSID    = errors.New("session id mismatch")
)

const tokenPurpose = "worker"

// GenerateWorkerToken builds a bearer token binding a session id to an
// expiry. Format:
// base64url(purpose "." session_id "." exp_unix "." hex(hmac_sha256(secret, purpose "." session_id "." exp)))
func GenerateWorkerToken(secret, sessionID string, expUnix int64) string {
	msg := tokenPurpose + "." + sessionID + "." + strconv.FormatInt(expUnix, 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	sig := hex.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(msg + "." + sig))
}

// ValidateWorkerToken checks signature, session binding, and expiry
// (with skewSeconds of clock tolerance). Returns the embedded expiry.
func ValidateWorkerToken(secret, token, expectSessionID string, now time.Time, skewSeconds int) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrTokenFormat
	}
	parts := strings.Split(string(b), ".")
	if len(parts) != 4 || parts[0] != tokenPurpose {
		return 0, ErrTokenFormat
	}
	sid, expStr, sigHex := parts[1], parts[2], parts[3]
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return 0, ErrTokenFormat
	}
	if expectSessionID != "" && sid != expectSessionID {
		return 0, ErrTokenSID
	}

	msg := tokenPurpose + "." + sid + "." + expStr
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	want := mac.Sum(nil)
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return 0, ErrTokenFormat
	}
	// constant-time compare
	if !hmac.Equal(want, got) {
		return 0, ErrTokenSig
	}

	if now.Unix() > exp+int64(skewSeconds) {
		return 0, ErrTokenExp
	}
	return exp, nil
}
