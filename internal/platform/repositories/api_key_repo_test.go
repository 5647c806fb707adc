package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"knowyourclient/internal/platform/config"
	"knowyourclient/internal/platform/database"
	"knowyourclient/internal/platform/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := database.Open(config.DatabaseConfig{URL: ":memory:"})
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	if err := database.Migrate(db, "../../../migrations"); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestAPIKeyRepository_CreateGetRevoke(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewAPIKeyRepository(db)

	exp := int64(4102444800)
	key := &models.APIKey{
		SourceID:  "shop",
		Name:      "storefront collector",
		KeyHash:   "hash1",
		KeyPrefix: "kyc_live_abc...",
		Scopes:    []string{models.ScopeIngest},
		CreatedBy: "admin@example.com",
		ExpiresAt: &exp,
	}
	if err := repo.Create(key); err != nil {
		t.Fatalf("Failed to create key: %v", err)
	}
	if key.ID == "" || key.CreatedAt == 0 {
		t.Errorf("Expected generated id and timestamp, got %+v", key)
	}

	fetched, err := repo.GetByHash("hash1")
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if fetched.SourceID != "shop" || !fetched.HasScope(models.ScopeIngest) {
		t.Errorf("Unexpected key %+v", fetched)
	}
	if fetched.ExpiresAt == nil || *fetched.ExpiresAt != exp {
		t.Errorf("Expected expiry %d, got %v", exp, fetched.ExpiresAt)
	}

	if err := repo.UpdateLastUsed(key.ID); err != nil {
		t.Errorf("UpdateLastUsed failed: %v", err)
	}

	if err := repo.Revoke(key.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if err := repo.Revoke(key.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected ErrNoRows on second revoke, got %v", err)
	}

	keys, err := repo.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(keys) != 1 || keys[0].RevokedAt == nil || keys[0].LastUsedAt == nil {
		t.Errorf("Unexpected list result %+v", keys)
	}
}

func TestAPIKeyRepository_GetByHash_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash = ?").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewAPIKeyRepository(db)
	if _, err := repo.GetByHash("missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestAPIKeyRepository_GetByHash_BadScopes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "source_id", "name", "key_prefix", "scopes", "created_by", "created_at", "last_used_at", "expires_at", "revoked_at"}).
		AddRow("key_1", "shop", "n", "p", "not-json", "admin", 1700000000, nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM api_keys WHERE key_hash = ?").
		WithArgs("h").
		WillReturnRows(rows)

	repo := NewAPIKeyRepository(db)
	if _, err := repo.GetByHash("h"); err == nil {
		t.Error("Expected scope decode error")
	}
}
