package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"knowyourclient/internal/api"
	"knowyourclient/internal/api/handlers"
	"knowyourclient/internal/api/middleware"
	"knowyourclient/internal/engine/analytics"
	"knowyourclient/internal/engine/clientinfo"
	"knowyourclient/internal/pkg/logger"
	"knowyourclient/internal/pkg/parser"
	"knowyourclient/internal/platform/audit"
	"knowyourclient/internal/platform/auth"
	"knowyourclient/internal/platform/config"
	"knowyourclient/internal/platform/database"
	"knowyourclient/internal/platform/repositories"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging, "server")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("jwt.secret must be set")
	}

	if err := middleware.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Fatal().Err(err).Msg("invalid server.trusted_proxies")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	// Repositories
	keyRepo := repositories.NewAPIKeyRepository(db)
	snapshotRepo := analytics.NewRepository(db)
	auditLog := audit.NewLogger(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	classifier := clientinfo.NewClassifier(parser.Default())
	recorder := analytics.NewRecorder(snapshotRepo, cfg.Recorder)
	keyCache := middleware.NewKeyCache(cfg.RateLimit.APIKeyCacheTTL)
	limiter := middleware.NewRateLimiter()
	defer limiter.Stop()
	metrics := &handlers.Metrics{}

	router := api.NewRouter(&api.Dependencies{
		ClassifyHandler:  handlers.NewClassifyHandler(classifier, metrics),
		SnapshotHandler:  handlers.NewSnapshotHandler(classifier, recorder, metrics),
		AuthHandler:      handlers.NewAuthHandler(cfg.Admin, tokenSvc, auditLog),
		APIKeyHandler:    handlers.NewAPIKeyHandler(keyRepo, keyCache, auditLog),
		AnalyticsHandler: handlers.NewAnalyticsHandler(analytics.NewService(snapshotRepo)),
		AuditHandler:     handlers.NewAuditHandler(auditLog),
		HealthHandler:    handlers.NewHealthHandler(db),
		MetricsHandler:   handlers.NewMetricsHandler(metrics, recorder),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc),
		APIKeyMiddleware: middleware.NewAPIKeyMiddleware(keyRepo, keyCache),
		RateLimiter:      limiter,
		Limits:           cfg.RateLimit,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// Handlers are done; flush the snapshots they queued.
	recorder.Close()
	stats := recorder.Stats()
	log.Info().Int64("recorded", stats.Recorded).Int64("dropped", stats.Dropped).Int64("failed", stats.Failed).Msg("recorder drained")
}
