package lib

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// DefaultTokenBytes is the entropy of a resubscribe token; it encodes to 64 hex characters.
const DefaultTokenBytes = 32

// GenerateHexToken returns byteLength bytes from crypto/rand encoded as lowercase hex.
func GenerateHexToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", byteLength)
	}
	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
