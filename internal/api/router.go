package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	apiContext "knowyourclient/internal/api/context"
	"knowyourclient/internal/api/handlers"
	"knowyourclient/internal/api/middleware"
	"knowyourclient/internal/pkg/errors"
	"knowyourclient/internal/platform/auth"
	"knowyourclient/internal/platform/config"
	"knowyourclient/internal/platform/models"
)

type Dependencies struct {
	ClassifyHandler  *handlers.ClassifyHandler
	SnapshotHandler  *handlers.SnapshotHandler
	AuthHandler      *handlers.AuthHandler
	APIKeyHandler    *handlers.APIKeyHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	AuditHandler     *handlers.AuditHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	AuthMiddleware   *middleware.AuthMiddleware
	APIKeyMiddleware *middleware.APIKeyMiddleware
	RateLimiter      *middleware.RateLimiter
	Limits           config.RateLimitConfig
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Route not found", nil)
	})

	authMid := deps.AuthMiddleware
	keyMid := deps.APIKeyMiddleware
	rl := deps.RateLimiter
	admin := middleware.RequireRole(auth.RoleAdmin)

	// Operational
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Classification
	router.GET("/api/v1/classify",
		chain(deps.ClassifyHandler.FromHeaders, rl.RateLimit("classify", deps.Limits.ClassifyPerMinute)))
	router.POST("/api/v1/classify",
		chain(deps.ClassifyHandler.Classify, rl.RateLimit("classify", deps.Limits.ClassifyPerMinute)))

	// Ingestion
	router.POST("/api/v1/snapshots",
		chain(deps.SnapshotHandler.Ingest, keyMid.Require(models.ScopeIngest), rl.RateLimit("ingest", deps.Limits.IngestPerMinute)))

	// Authentication
	router.POST("/api/v1/auth/login",
		chain(deps.AuthHandler.Login, rl.RateLimit("login", deps.Limits.APIPerMinute)))

	// API key management
	router.POST("/api/v1/api-keys",
		chain(deps.APIKeyHandler.Create, authMid.Handle, admin))
	router.GET("/api/v1/api-keys",
		chain(deps.APIKeyHandler.List, authMid.Handle, admin))
	router.DELETE("/api/v1/api-keys/:key_id",
		chain(deps.APIKeyHandler.Revoke, authMid.Handle, admin))
	router.GET("/api/v1/audit-logs",
		chain(deps.AuditHandler.List, authMid.Handle, admin))

	// Analytics: dashboard tokens or a read key of the same source
	apiLimit := rl.RateLimit("api", deps.Limits.APIPerMinute)
	sourceRead := keyMid.RequireSource(models.ScopeRead, authMid.Handle)
	router.GET("/api/v1/sources/:source_id/snapshots",
		chain(deps.AnalyticsHandler.ListSnapshots, sourceRead, apiLimit))
	router.GET("/api/v1/sources/:source_id/breakdown",
		chain(deps.AnalyticsHandler.Breakdown, sourceRead, apiLimit))
	router.GET("/api/v1/sources/:source_id/daily",
		chain(deps.AnalyticsHandler.Daily, sourceRead, apiLimit))

	return middleware.Logging(router)
}

// chain applies middlewares so that the first one listed runs first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
