package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/driftboard/driftboard/internal/app"
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
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool, logger)

	// The worker declares the same operations the API serves so a sync
	// run from either process produces the same catalog.
	registry := authz.NewRegistry()
	profiles.RegisterOperations(registry)
	teams.RegisterOperations(registry)
	users.RegisterOperations(registry)
	boards.RegisterOperations(registry)
	authz.RegisterOperations(registry)

	authzRepo := authz.NewRepository(pool)
	resolver := authz.NewResolver(authzRepo)
	permCache := authz.NewCache(redisClient, metrics, authz.CacheOptions{
		Short:  cfg.AuthzCacheShortTTL,
		Medium: cfg.AuthzCacheMediumTTL,
		Long:   cfg.AuthzCacheLongTTL,
		Logger: logger,
	})
	authzService := authz.NewService(resolver, permCache, auditLogger, logger, metrics)
	syncer := authz.NewSyncer(authzRepo, registry, logger, metrics)

	syncJob := jobs.NewAuthzSyncJob(syncer, logger, nil)
	warmupJob := jobs.NewAuthzWarmupJob(authzService, pool, logger, nil)
	notifyJob := jobs.NewNotifyAssignmentJob(pool, logger, nil)

	warmupTask, err := jobs.NewAuthzWarmupTask(jobs.AuthzWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuthzSync, Handler: syncJob.Handle},
			{Type: jobs.TaskAuthzWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskNotifyAssignment, Handler: notifyJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 4 * * *", Task: jobs.NewAuthzSyncTask(), Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
