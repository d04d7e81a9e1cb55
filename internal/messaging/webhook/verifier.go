// Package webhook authenticates inbound provider callbacks.
//
// Providers sign the raw request body with HMAC-SHA256 using a secret shared
// at subscription time and send "sha256=<hex>" in a header. Verification runs
// over the exact bytes received; re-encoding the parsed payload is never
// equivalent because key order and whitespace are not preserved.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignaturePrefix is the scheme prefix carried by signature headers.
const SignaturePrefix = "sha256="

// Verify reports whether header is a valid signature of body under secret.
// An empty secret or a malformed header never verifies.
func Verify(body []byte, header, secret string) bool {
	if secret == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), SignaturePrefix))
	if err != nil || len(provided) != sha256.Size {
		return false
	}
	return hmac.Equal(provided, digest(body, secret))
}

// Sign returns the "sha256=<hex>" header value for body under secret.
func Sign(body []byte, secret string) string {
	return SignaturePrefix + hex.EncodeToString(digest(body, secret))
}

func digest(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
