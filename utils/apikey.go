package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateAPIKey returns a fresh 256-bit random key encoded as 64 hex
// characters. Entropy is the only defense against key guessing, so the
// size is not negotiable.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
