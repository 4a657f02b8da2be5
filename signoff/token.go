package signoff

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const tokenBytes = 32

// NewToken returns a URL-safe bearer token carrying 256 bits of randomness.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("signoff: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
