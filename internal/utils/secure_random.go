package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomToken returns n cryptographically random bytes, URL-safe base64
// encoded without padding. Suitable for OAuth state values.
func RandomToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
