package handlers

import (
	"database/sql"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	apiContext "knowyourclient/internal/api/context"
	"knowyourclient/internal/api/middleware"
	"knowyourclient/internal/pkg/errors"
	"knowyourclient/internal/platform/audit"
	"knowyourclient/internal/platform/auth"
	"knowyourclient/internal/platform/models"
	"knowyourclient/internal/platform/repositories"
)

var knownScopes = map[string]bool{
	models.ScopeIngest: true,
	models.ScopeRead:   true,
}

type APIKeyHandler struct {
	repo  *repositories.APIKeyRepository
	cache *middleware.KeyCache
	audit *audit.Logger
}

func NewAPIKeyHandler(repo *repositories.APIKeyRepository, cache *middleware.KeyCache, audit *audit.Logger) *APIKeyHandler {
	return &APIKeyHandler{repo: repo, cache: cache, audit: audit}
}

type CreateAPIKeyRequest struct {
	SourceID      string   `json:"source_id"`
	Name          string   `json:"name"`
	Scopes        []string `json:"scopes"`
	ExpiresInDays int      `json:"expires_in_days"`
}

type CreateAPIKeyResponse struct {
	*models.APIKey
	Key string `json:"key"`
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req CreateAPIKeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	req.SourceID = strings.TrimSpace(req.SourceID)
	req.Name = strings.TrimSpace(req.Name)
	if req.SourceID == "" || req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "source_id and name are required", nil)
		return
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{models.ScopeIngest}
	}
	for _, s := range req.Scopes {
		if !knownScopes[s] {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unknown scope "+s, nil)
			return
		}
	}
	if req.ExpiresInDays < 0 {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "expires_in_days must not be negative", nil)
		return
	}

	raw, hash, prefix := auth.GenerateAPIKey()
	key := &models.APIKey{
		SourceID:  req.SourceID,
		Name:      req.Name,
		KeyHash:   hash,
		KeyPrefix: prefix,
		Scopes:    req.Scopes,
		CreatedBy: claims.Email,
	}
	if req.ExpiresInDays > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour).Unix()
		key.ExpiresAt = &exp
	}

	if err := h.repo.Create(key); err != nil {
		log.Error().Err(err).Str("source_id", req.SourceID).Msg("failed to create api key")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create API key", nil)
		return
	}

	h.audit.Log(r, claims.Email, "api_key.create", "api_key", key.ID, map[string]interface{}{
		"source_id": key.SourceID,
		"scopes":    key.Scopes,
	})

	// The raw key is returned only once.
	errors.WriteJSON(w, http.StatusCreated, CreateAPIKeyResponse{APIKey: key, Key: raw})
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	keys, err := h.repo.List()
	if err != nil {
		log.Error().Err(err).Msg("failed to list api keys")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list API keys", nil)
		return
	}
	errors.WriteJSON(w, http.StatusOK, keys)
}

func (h *APIKeyHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
	keyID := param(r, "key_id")

	err := h.repo.Revoke(keyID)
	if stderrors.Is(err, sql.ErrNoRows) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "API key not found", nil)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("key_id", keyID).Msg("failed to revoke api key")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to revoke API key", nil)
		return
	}

	h.cache.EvictID(keyID)
	h.audit.Log(r, claims.Email, "api_key.revoke", "api_key", keyID, nil)

	w.WriteHeader(http.StatusNoContent)
}
