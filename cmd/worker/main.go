package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nutriscan/nutriscan/internal/app"
	jobmetrics "github.com/nutriscan/nutriscan/internal/jobs"
	"github.com/nutriscan/nutriscan/internal/observability"
	"github.com/nutriscan/nutriscan/internal/platform/cache"
	"github.com/nutriscan/nutriscan/jobs"
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
	registry := observability.NewMetrics()
	metrics := jobmetrics.NewMetrics(registry.Registerer())

	historyService, closeHistory, err := app.OpenHistory(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect history store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeHistory()

	productService, closeCache, err := app.NewProductService(ctx, cfg, logger, registry.Registerer())
	if err != nil {
		logger.Error("init product service", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeCache()
	if cfg.CacheBackend != app.CacheBackendRedis {
		logger.Warn("worker is warming an in-process cache; set CACHE_BACKEND=redis to share it with the API")
	}

	warmupJob := jobs.NewWarmupJob(historyService, productService, logger, metrics, cfg.WarmupLimit)
	pruneJob := jobs.NewPruneJob(historyService, cfg.HistoryRetention, logger, metrics)

	warmupTask, err := jobs.NewWarmupTask(jobs.WarmupPayload{Limit: cfg.WarmupLimit})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	pruneTask, err := jobs.NewPruneTask(jobs.PrunePayload{})
	if err != nil {
		logger.Error("build prune task", slog.Any("error", err))
		os.Exit(1)
	}

	cron := []jobs.CronRegistration{
		{Spec: "*/5 * * * *", Task: warmupTask},
	}
	if cfg.HistoryRetention > 0 {
		cron = append(cron, jobs.CronRegistration{Spec: "30 3 * * *", Task: pruneTask})
	}

	queueOpts, err := cache.QueueOptions(cfg.RedisAddr)
	if err != nil {
		logger.Error("worker redis options", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: queueOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskProductWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskHistoryPrune, Handler: pruneJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.WorkerMetricsAddr != "" {
		go serveMetrics(ctx, cfg.WorkerMetricsAddr, registry, logger)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}

func serveMetrics(ctx context.Context, addr string, metrics *observability.Metrics, logger *slog.Logger) {
	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	server := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("serving worker metrics", slog.String("addr", addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("worker metrics server", slog.Any("error", err))
	}
}
