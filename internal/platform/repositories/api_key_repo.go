package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"knowyourclient/internal/platform/models"
)

type APIKeyRepository struct {
	db *sql.DB
}

func NewAPIKeyRepository(db *sql.DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

func (r *APIKeyRepository) Create(key *models.APIKey) error {
	if key.ID == "" {
		key.ID = "key_" + uuid.New().String()
	}
	key.CreatedAt = time.Now().Unix()

	scopesJSON, err := json.Marshal(key.Scopes)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO api_keys (id, source_id, name, key_hash, key_prefix, scopes, created_by, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, key.ID, key.SourceID, key.Name, key.KeyHash, key.KeyPrefix, string(scopesJSON), key.CreatedBy, key.CreatedAt, key.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

// GetByHash returns sql.ErrNoRows when no key has the given hash.
func (r *APIKeyRepository) GetByHash(hash string) (*models.APIKey, error) {
	query := `SELECT id, source_id, name, key_prefix, scopes, created_by, created_at, last_used_at, expires_at, revoked_at FROM api_keys WHERE key_hash = ?`

	k, err := scanAPIKey(r.db.QueryRow(query, hash))
	if err != nil {
		return nil, err
	}
	k.KeyHash = hash
	return k, nil
}

func (r *APIKeyRepository) List() ([]*models.APIKey, error) {
	query := `SELECT id, source_id, name, key_prefix, scopes, created_by, created_at, last_used_at, expires_at, revoked_at FROM api_keys ORDER BY created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []*models.APIKey{}
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Revoke returns sql.ErrNoRows when the key does not exist or is already revoked.
func (r *APIKeyRepository) Revoke(id string) error {
	res, err := r.db.Exec(`UPDATE api_keys SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *APIKeyRepository) UpdateLastUsed(id string) error {
	_, err := r.db.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAPIKey(row scanner) (*models.APIKey, error) {
	var k models.APIKey
	var scopesStr string
	var lastUsedAt, expiresAt, revokedAt sql.NullInt64

	if err := row.Scan(&k.ID, &k.SourceID, &k.Name, &k.KeyPrefix, &scopesStr, &k.CreatedBy, &k.CreatedAt, &lastUsedAt, &expiresAt, &revokedAt); err != nil {
		return nil, err
	}

	k.LastUsedAt = nullInt(lastUsedAt)
	k.ExpiresAt = nullInt(expiresAt)
	k.RevokedAt = nullInt(revokedAt)

	if err := json.Unmarshal([]byte(scopesStr), &k.Scopes); err != nil {
		return nil, fmt.Errorf("decode scopes of %s: %w", k.ID, err)
	}
	return &k, nil
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}
