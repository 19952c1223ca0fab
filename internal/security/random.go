package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewRandomString returns n random bytes hex-encoded, suitable for
// verification tokens and CSRF values.
func NewRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewCSRFToken returns a 32-byte random double-submit token.
func NewCSRFToken() (string, error) {
	return NewRandomString(32)
}

// HashToken is the at-rest form of verification tokens and session
// credentials: only the digest is stored, so a leaked table cannot redeem.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// HashSessionToken peppers the session credential before digesting so a
// database copy alone cannot forge lookups.
func HashSessionToken(raw, pepper string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
