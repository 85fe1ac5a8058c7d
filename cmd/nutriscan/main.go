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

	"github.com/nutriscan/nutriscan/internal/analysis"
	"github.com/nutriscan/nutriscan/internal/app"
	"github.com/nutriscan/nutriscan/internal/history"
	"github.com/nutriscan/nutriscan/internal/observability"
	"github.com/nutriscan/nutriscan/internal/platform/cache"
	"github.com/nutriscan/nutriscan/internal/product"
	"github.com/nutriscan/nutriscan/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	historyService, closeHistory, err := app.OpenHistory(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect history store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeHistory()

	productService, closeCache, err := app.NewProductService(ctx, cfg, logger, metrics.Registerer())
	if err != nil {
		logger.Error("init product service", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeCache()

	model, closeModel := app.NewAnalysisModel(ctx, cfg, logger)
	defer closeModel()

	jobHandler := jobs.NewHandler(nil, logger)
	if cfg.JobsEnabled {
		queueOpts, err := cache.QueueOptions(cfg.RedisAddr)
		if err != nil {
			logger.Error("jobs redis options", slog.Any("error", err))
			os.Exit(1)
		}
		inspector := asynq.NewInspector(queueOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("close inspector", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		ProductHandler:  product.NewHandler(logger, productService),
		HistoryHandler:  history.NewHandler(logger, historyService),
		AnalysisHandler: analysis.NewHandler(logger, analysis.NewService(model, logger)),
		JobHandler:      jobHandler,
		Store:           historyService,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
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
