// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

func GenerateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// ObjectName returns a collision-resistant storage object name that keeps
// the caller's extension, e.g. "audio_9f2c...e1.webm".
func ObjectName(prefix, ext string) (string, error) {
	token, err := GenerateSecureToken(12)
	if err != nil {
		return "", err
	}
	return prefix + "_" + token + ext, nil
}

func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
