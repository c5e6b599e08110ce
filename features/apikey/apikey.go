package apikey

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Prefix marks generated keys so they are recognisable in logs and configs.
const Prefix = "chub_"

var ErrInvalidKey = errors.New("invalid or missing API key")

type Key struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Source     string     `json:"source"`
	KeyHash    string     `json:"keyHash"`
	Active     bool       `json:"active"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Hash returns the hex SHA-256 digest stored in place of the key.
func Hash(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}

// Generate returns a new random key: Prefix followed by 64 hex characters.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return Prefix + hex.EncodeToString(b), nil
}
