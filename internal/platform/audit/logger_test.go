package audit

import (
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestLogger_Log(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	req := httptest.NewRequest("DELETE", "/api/v1/api-keys/key_1", nil)
	req.Header.Set("User-Agent", "admin-cli/1.0")

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), "admin@example.com", "api_key.revoked", "api_key", "key_1", `{"source_id":"shop"}`, req.RemoteAddr, "admin-cli/1.0", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	logger := NewLogger(db)
	logger.Log(req, "admin@example.com", "api_key.revoked", "api_key", "key_1", map[string]interface{}{"source_id": "shop"})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestLogger_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "actor", "action", "resource_type", "resource_id", "metadata", "ip_address", "user_agent", "created_at"}).
		AddRow("audit_1", "admin", "api_key.created", "api_key", "key_1", `{"name":"x"}`, "127.0.0.1", "curl", 1700000000)
	mock.ExpectQuery("SELECT (.+) FROM audit_logs").WithArgs(10).WillReturnRows(rows)

	logs, err := NewLogger(db).List(10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(logs) != 1 || logs[0].Metadata["name"] != "x" {
		t.Errorf("Unexpected logs %+v", logs)
	}
}
