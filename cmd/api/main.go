package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/josefe-ing/storepulse/internal/adapter/api"
	"github.com/josefe-ing/storepulse/internal/adapter/api/middleware"
	"github.com/josefe-ing/storepulse/internal/adapter/metrics"
	"github.com/josefe-ing/storepulse/internal/adapter/notifier"
	"github.com/josefe-ing/storepulse/internal/adapter/repository/postgres"
	redisrepo "github.com/josefe-ing/storepulse/internal/adapter/repository/redis"
	"github.com/josefe-ing/storepulse/internal/pkg/config"
	"github.com/josefe-ing/storepulse/internal/pkg/logger"
	"github.com/josefe-ing/storepulse/internal/usecase"

	_ "github.com/lib/pq" // postgres driver
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	m := metrics.NewAuthMetrics()

	// --- Admin and metrics server ---
	adminMux := http.NewServeMux()
	adminMux.Handle("/metrics", promhttp.Handler())

	adminServer := &http.Server{
		Addr:    cfg.AdminServerAddr,
		Handler: adminMux,
	}

	go func() {
		log.Info("starting admin & metrics server", "addr", adminServer.Addr)
		if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("admin & metrics server failed", "error", err)
		}
	}()

	// --- Graceful shutdown context ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database and Redis connections ---
	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		log.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisAddr)
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, activity recording degraded", "error", err)
	}

	// --- Repositories ---
	tenantRepo := postgres.NewTenantRepository(db)
	storeRepo := postgres.NewStoreRepository(db)
	keyRepo := postgres.NewAPIKeyRepository(db)
	userRepo := postgres.NewUserRepository(db)
	usageRepo := postgres.NewUsageRepository(db)
	isolationRepo := postgres.NewIsolationRepository(db)
	activityRepo := redisrepo.NewActivityRecorder(redisClient, cfg.ActivityStream, log)

	// --- Services ---
	costNotifier := notifier.NewLogNotifier(log)
	quota := usecase.NewQuotaEngine(tenantRepo, storeRepo, usageRepo, costNotifier, m, log)
	tokens := usecase.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, cfg.VerifyTimeout, tenantRepo, log)
	verifier := usecase.NewAPIKeyVerifier(keyRepo, cfg.VerifyTimeout, cfg.KeyTouchInterval, log)
	cache := usecase.NewAPIKeyCache(cfg.APIKeyCacheTTL, m, log)
	resolver := usecase.NewTenantResolver(cache, verifier)
	tenantService := usecase.NewTenantService(tenantRepo, storeRepo, keyRepo, userRepo, usageRepo, quota, tokens, log)

	dispatcher := usecase.NewDispatcher(cfg.DispatcherWorkers, cfg.DispatcherQueueSize, m, log)

	// Bound the cache's memory between natural evictions.
	go cache.StartSweeper(ctx, cfg.APIKeyCacheTTL)

	// --- API server ---
	tenantCtx := middleware.TenantContext(middleware.TenantContextConfig{
		Resolver:       resolver,
		Isolation:      isolationRepo,
		Quota:          quota,
		Activity:       activityRepo,
		Dispatcher:     dispatcher,
		Metrics:        m,
		Logger:         log,
		CostCheckEvery: cfg.CostCheckInterval,
	})

	router := api.NewRouter(log, tokens, tenantService, tenantCtx)
	apiServer := &http.Server{
		Addr:         cfg.APIServerAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	go func() {
		log.Info("starting api server", "addr", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("api server failed", "error", err)
			stop() // Trigger shutdown on server error
		}
	}()

	// --- Wait for shutdown signal ---
	<-ctx.Done()
	log.Info("shutting down servers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("api server shutdown failed", "error", err)
	}
	if err := adminServer.Shutdown(shutdownCtx); err != nil {
		log.Error("admin server shutdown failed", "error", err)
	}

	// Drain queued background validations before exiting.
	dispatcher.Stop()

	log.Info("servers shut down gracefully")
}
