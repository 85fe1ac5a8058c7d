package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nutriscan/nutriscan/internal/shared"
)

// Service is the ingestion pipeline: validate, probe the cache, fetch, score,
// normalise and cache.
type Service struct {
	cache    Cache
	upstream Upstream
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *Metrics
	inflight singleflight.Group
}

// ServiceConfig collects the pipeline dependencies.
type ServiceConfig struct {
	Cache    Cache
	Upstream Upstream
	TTL      time.Duration
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NewService wires the pipeline. A nil cache falls back to a MemoryCache.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Cache == nil {
		cfg.Cache = NewMemoryCache()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		cache:    cfg.Cache,
		upstream: cfg.Upstream,
		ttl:      cfg.TTL,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
}

// Get returns the normalised product for barcode.
func (s *Service) Get(ctx context.Context, barcode string) (Product, error) {
	if err := ValidateBarcode(barcode); err != nil {
		return Product{}, err
	}

	cached, ok, err := s.cache.Get(ctx, barcode)
	if err != nil {
		s.logger.Warn("product cache read", slog.String("barcode", barcode), slog.Any("error", err))
	}
	if ok {
		s.metrics.hit()
		s.logger.Debug("product cache hit", slog.String("barcode", barcode))
		return cached, nil
	}
	s.metrics.miss()

	return s.fetch(ctx, barcode)
}

// Refresh bypasses the cache probe and re-fetches barcode, overwriting any
// cached entry. Used by the warmup job.
func (s *Service) Refresh(ctx context.Context, barcode string) (Product, error) {
	if err := ValidateBarcode(barcode); err != nil {
		return Product{}, err
	}
	return s.fetch(ctx, barcode)
}

// fetch joins or starts the single upstream load for barcode. The load runs
// detached from ctx so it never fails the other callers sharing it; ctx only
// bounds how long this caller waits.
func (s *Service) fetch(ctx context.Context, barcode string) (Product, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(barcode, func() (interface{}, error) {
		return s.load(fetchCtx, barcode)
	})
	select {
	case <-ctx.Done():
		return Product{}, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, ctx.Err())
	case res := <-ch:
		if res.Shared {
			s.metrics.shared()
		}
		if res.Err != nil {
			return Product{}, res.Err
		}
		return res.Val.(Product).Clone(), nil
	}
}

func (s *Service) load(ctx context.Context, barcode string) (Product, error) {
	if s.upstream == nil {
		return Product{}, fmt.Errorf("%w: upstream client not configured", shared.ErrUpstreamUnavailable)
	}
	start := time.Now()
	raw, err := s.upstream.Fetch(ctx, barcode)
	elapsed := time.Since(start)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrNotFound):
			s.metrics.upstream("not_found", elapsed)
			return Product{}, err
		case errors.Is(err, shared.ErrUpstreamUnavailable):
			s.metrics.upstream("error", elapsed)
			s.logger.Error("fetch product", slog.String("barcode", barcode), slog.Any("error", err))
			return Product{}, err
		default:
			s.metrics.upstream("error", elapsed)
			s.logger.Error("fetch product", slog.String("barcode", barcode), slog.Any("error", err))
			return Product{}, fmt.Errorf("%w: %v", shared.ErrUpstreamUnavailable, err)
		}
	}
	s.metrics.upstream("ok", elapsed)

	breakdown := Explain(raw)
	p := Normalize(raw, barcode, breakdown.Score)
	s.logger.Debug("scored product",
		slog.String("barcode", barcode),
		slog.Int("score", breakdown.Score),
		slog.Float64("raw", breakdown.Raw),
		slog.Int("rules", len(breakdown.Contributions)),
	)

	if err := s.cache.Set(ctx, barcode, p, s.ttl); err != nil {
		s.logger.Warn("product cache write", slog.String("barcode", barcode), slog.Any("error", err))
	}
	return p, nil
}
