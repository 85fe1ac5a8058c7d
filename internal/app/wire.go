package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/nutriscan/nutriscan/internal/analysis"
	"github.com/nutriscan/nutriscan/internal/history"
	"github.com/nutriscan/nutriscan/internal/platform/cache"
	"github.com/nutriscan/nutriscan/internal/platform/db"
	"github.com/nutriscan/nutriscan/internal/platform/docstore"
	"github.com/nutriscan/nutriscan/internal/product"
)

// OpenHistory connects the configured history store, prepares its schema or
// indexes and returns the service with a release func.
func OpenHistory(ctx context.Context, cfg *Config, logger *slog.Logger) (*history.Service, func(), error) {
	if cfg.UsesPostgres() {
		pool, err := db.New(ctx, cfg.MongoURI, db.Options{MaxConns: 10})
		if err != nil {
			return nil, nil, err
		}
		repo := history.NewPostgresRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("history store ready", slog.String("backend", "postgres"))
		return history.NewService(repo, logger), pool.Close, nil
	}

	client, err := docstore.New(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	repo := history.NewMongoRepository(client, cfg.MongoDatabase)
	if err := repo.EnsureIndexes(ctx); err != nil {
		logger.Warn("history indexes", slog.Any("error", err))
	}
	logger.Info("history store ready", slog.String("backend", "mongodb"), slog.String("database", cfg.MongoDatabase))
	release := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("mongo disconnect", slog.Any("error", err))
		}
	}
	return history.NewService(repo, logger), release, nil
}

// NewProductService builds the lookup pipeline over the configured cache
// backend. The release func closes the Redis client when one was opened.
func NewProductService(ctx context.Context, cfg *Config, logger *slog.Logger, reg prometheus.Registerer) (*product.Service, func(), error) {
	metrics, err := product.NewMetrics(reg)
	if err != nil {
		return nil, nil, fmt.Errorf("product metrics: %w", err)
	}

	var (
		productCache product.Cache
		release      = func() {}
	)
	switch cfg.CacheBackend {
	case CacheBackendRedis:
		var client *redis.Client
		client, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		productCache = product.NewRedisCache(client)
		release = func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	default:
		productCache = product.NewMemoryCache()
	}
	logger.Info("product cache ready", slog.String("backend", cfg.CacheBackend), slog.Duration("ttl", cfg.CacheTTL))

	svc := product.NewService(product.ServiceConfig{
		Cache:    productCache,
		Upstream: product.NewClient(product.WithTimeout(cfg.UpstreamTimeout)),
		TTL:      cfg.CacheTTL,
		Logger:   logger,
		Metrics:  metrics,
	})
	return svc, release, nil
}

// NewAnalysisModel connects Vertex AI when a project is configured. Without
// one the analysis endpoints report themselves unavailable.
func NewAnalysisModel(ctx context.Context, cfg *Config, logger *slog.Logger) (analysis.Model, func()) {
	if cfg.GoogleProjectID == "" {
		logger.Warn("GOOGLE_PROJECT_ID not set, ingredient analysis disabled")
		return analysis.Unconfigured{}, func() {}
	}
	model, err := analysis.NewVertexModel(ctx, analysis.VertexConfig{
		ProjectID:       cfg.GoogleProjectID,
		Location:        cfg.GoogleLocation,
		CredentialsFile: cfg.GoogleCredentialsFile,
		ModelName:       cfg.GeminiModel,
	})
	if err != nil {
		logger.Error("vertex ai client", slog.Any("error", err))
		return analysis.Unconfigured{}, func() {}
	}
	return model, func() {
		if err := model.Close(); err != nil {
			logger.Warn("vertex ai close", slog.Any("error", err))
		}
	}
}
