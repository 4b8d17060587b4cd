package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/driftboard/driftboard/internal/app"
	"github.com/driftboard/driftboard/internal/auth"
	"github.com/driftboard/driftboard/internal/authz"
	"github.com/driftboard/driftboard/internal/boards"
	"github.com/driftboard/driftboard/internal/observability"
	"github.com/driftboard/driftboard/internal/platform/cache"
	"github.com/driftboard/driftboard/internal/platform/db"
	"github.com/driftboard/driftboard/internal/profiles"
	"github.com/driftboard/driftboard/internal/shared"
	"github.com/driftboard/driftboard/internal/teams"
	"github.com/driftboard/driftboard/internal/users"
	"github.com/driftboard/driftboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "driftboard_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool, logger)

	registry := authz.NewRegistry()
	authzRepo := authz.NewRepository(dbpool)
	resolver := authz.NewResolver(authzRepo)
	permCache := authz.NewCache(redisClient, metrics, authz.CacheOptions{
		Short:  cfg.AuthzCacheShortTTL,
		Medium: cfg.AuthzCacheMediumTTL,
		Long:   cfg.AuthzCacheLongTTL,
		Logger: logger,
	})
	invalidator := authz.NewInvalidator(permCache)
	authzService := authz.NewService(resolver, permCache, auditLogger, logger, metrics)
	syncer := authz.NewSyncer(authzRepo, registry, logger, metrics)
	authzMW := authz.Middleware{Service: authzService, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	profilesRepo := profiles.NewRepository(dbpool)
	profilesService := profiles.NewService(profilesRepo, invalidator)
	profilesHandler := profiles.NewHandler(logger, profilesService, registry, authzMW)

	teamsRepo := teams.NewRepository(dbpool)
	teamsService := teams.NewService(teamsRepo, invalidator)
	teamsHandler := teams.NewHandler(logger, teamsService, registry, authzMW)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, invalidator)
	usersHandler := users.NewHandler(logger, usersService, registry, authzMW)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	boardsRepo := boards.NewRepository(dbpool)
	boardsService := boards.NewService(boardsRepo, jobClient, logger)
	boardsHandler := boards.NewHandler(logger, boardsService, registry, authzMW)

	authzHandler := authz.NewHandler(logger, authzService, syncer, permCache, registry, authzMW)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	// One-shot catalog sync on boot, once every handler has declared its
	// operations. The delay keeps startup responsive; a sync failure is
	// logged, not fatal.
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(cfg.AuthzSyncDelay):
		}
		report, err := syncer.Run(ctx)
		if err != nil {
			logger.Error("startup permission sync", slog.Any("error", err))
			return
		}
		logger.Info("startup permission sync finished",
			slog.Int("generated", report.GeneratedPermissions),
			slog.Int("existing", report.ExistingPermissions),
			slog.Int("orphaned", len(report.OrphanedPermissions)),
			slog.Int("failures", len(report.Failures)))
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		AuthHandler:     authHandler,
		AuthzHandler:    authzHandler,
		ProfilesHandler: profilesHandler,
		TeamsHandler:    teamsHandler,
		UsersHandler:    usersHandler,
		BoardsHandler:   boardsHandler,
		JobsHandler:     jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
