package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateInviteToken returns a URL-safe random token built from n random bytes.
func GenerateInviteToken(n int) (string, error) {
	if n <= 0 {
		n = 24
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
