package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// keyBytes is the amount of entropy in a generated key.
const keyBytes = 32

// HashKey returns the hex SHA-256 digest of the UTF-8 bytes of raw.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns a new random URL-safe key and its hash.
func GenerateKey() (plain, hashed string, err error) {
	buf := make([]byte, keyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	plain = base64.RawURLEncoding.EncodeToString(buf)
	return plain, HashKey(plain), nil
}
