package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"
)

const apiKeyPrefix = "kyc_live_"

// GenerateAPIKey returns a new raw key, the hash to store and a display prefix.
// The raw key is shown to the caller once and never persisted.
func GenerateAPIKey() (raw, hash, prefix string) {
	raw = apiKeyPrefix + uuid.New().String()
	return raw, HashAPIKey(raw), raw[:len(apiKeyPrefix)+4] + "..."
}

func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
