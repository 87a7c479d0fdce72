package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// tokenBytes of cryptographically secure randomness, hex-encoded, give the
// 32-character lowercase session token.
const tokenBytes = 16

// newToken is a seam so collision handling can be tested deterministically.
var newToken = func() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token randomness: %w", err)
	}
	return hex.EncodeToString(b), nil
}
