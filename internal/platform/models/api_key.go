package models

import "time"

// Scopes an API key may carry.
const (
	ScopeIngest = "snapshots:write"
	ScopeRead   = "snapshots:read"
)

// APIKey authenticates a source's collector. Only the SHA-256 hash of the raw
// key is stored.
type APIKey struct {
	ID         string   `json:"id"`
	SourceID   string   `json:"source_id"`
	Name       string   `json:"name"`
	KeyHash    string   `json:"-"`
	KeyPrefix  string   `json:"key_prefix"`
	Scopes     []string `json:"scopes"` // JSON array in DB
	CreatedBy  string   `json:"created_by"`
	LastUsedAt *int64   `json:"last_used_at,omitempty"`
	ExpiresAt  *int64   `json:"expires_at,omitempty"`
	CreatedAt  int64    `json:"created_at"`
	RevokedAt  *int64   `json:"revoked_at,omitempty"`
}

func (k *APIKey) HasScope(scope string) bool {
	for _, s := range k.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Active reports whether the key is neither revoked nor expired at now.
func (k *APIKey) Active(now time.Time) bool {
	if k.RevokedAt != nil {
		return false
	}
	if k.ExpiresAt != nil && *k.ExpiresAt <= now.Unix() {
		return false
	}
	return true
}
