package middleware

import (
	"context"
	"database/sql"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	apiContext "knowyourclient/internal/api/context"
	"knowyourclient/internal/pkg/errors"
	"knowyourclient/internal/platform/auth"
	"knowyourclient/internal/platform/models"
)

const APIKeyHeader = "X-API-Key"

type cachedKey struct {
	key      *models.APIKey
	cachedAt time.Time
}

// KeyCache holds API keys by hash so ingestion does not hit the database on
// every snapshot.
type KeyCache struct {
	store sync.Map // map[key_hash]*cachedKey
	ttl   time.Duration
}

func NewKeyCache(ttl time.Duration) *KeyCache {
	return &KeyCache{ttl: ttl}
}

func (c *KeyCache) Get(hash string) (*models.APIKey, bool) {
	val, ok := c.store.Load(hash)
	if !ok {
		return nil, false
	}

	cached := val.(*cachedKey)
	if time.Since(cached.cachedAt) > c.ttl {
		c.store.Delete(hash)
		return nil, false
	}

	return cached.key, true
}

func (c *KeyCache) Set(hash string, key *models.APIKey) {
	c.store.Store(hash, &cachedKey{key: key, cachedAt: time.Now()})
}

// EvictID drops the cached entry of a key, used after revocation.
func (c *KeyCache) EvictID(id string) {
	c.store.Range(func(hash, val interface{}) bool {
		if val.(*cachedKey).key.ID == id {
			c.store.Delete(hash)
		}
		return true
	})
}

type keyLookup interface {
	GetByHash(hash string) (*models.APIKey, error)
	UpdateLastUsed(id string) error
}

type APIKeyMiddleware struct {
	repo  keyLookup
	cache *KeyCache
}

func NewAPIKeyMiddleware(repo keyLookup, cache *KeyCache) *APIKeyMiddleware {
	return &APIKeyMiddleware{repo: repo, cache: cache}
}

// Require authenticates the X-API-Key header and checks the key carries scope.
func (m *APIKeyMiddleware) Require(scope string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(APIKeyHeader)
			if raw == "" {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing API key", nil)
				return
			}

			key, err := m.lookup(auth.HashAPIKey(raw))
			if stderrors.Is(err, sql.ErrNoRows) {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid API key", nil)
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("api key lookup failed")
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to verify API key", nil)
				return
			}

			if !key.Active(time.Now()) {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "API key revoked or expired", nil)
				return
			}
			if !key.HasScope(scope) {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "API key lacks scope "+scope, nil)
				return
			}

			ctx := context.WithValue(r.Context(), apiContext.APIKey, key)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireSource admits requests for the :source_id route either through
// fallback (the dashboard's bearer token) or, when an X-API-Key header is sent,
// through a key that carries scope and belongs to that same source.
func (m *APIKeyMiddleware) RequireSource(scope string, fallback func(http.HandlerFunc) http.HandlerFunc) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		viaToken := fallback(next)
		viaKey := m.Require(scope)(func(w http.ResponseWriter, r *http.Request) {
			key := r.Context().Value(apiContext.APIKey).(*models.APIKey)
			params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
			if key.SourceID != params.ByName("source_id") {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "API key belongs to another source", nil)
				return
			}
			next(w, r)
		})

		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(APIKeyHeader) != "" {
				viaKey(w, r)
				return
			}
			viaToken(w, r)
		}
	}
}

func (m *APIKeyMiddleware) lookup(hash string) (*models.APIKey, error) {
	if key, ok := m.cache.Get(hash); ok {
		return key, nil
	}

	key, err := m.repo.GetByHash(hash)
	if err != nil {
		return nil, err
	}
	m.cache.Set(hash, key)

	// last_used_at is refreshed once per cache period
	if err := m.repo.UpdateLastUsed(key.ID); err != nil {
		log.Warn().Err(err).Str("key_id", key.ID).Msg("failed to update api key last_used_at")
	}
	return key, nil
}
