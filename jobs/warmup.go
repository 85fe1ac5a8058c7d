package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/nutriscan/nutriscan/internal/jobs"
	"github.com/nutriscan/nutriscan/internal/product"
	"github.com/nutriscan/nutriscan/internal/shared"
)

const (
	defaultWarmupLimit       = 25
	warmupConcurrency        = 4
	warmupPerProductDeadline = 20 * time.Second
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// BarcodeSource lists recently scanned barcodes.
type BarcodeSource interface {
	RecentBarcodes(ctx context.Context, limit int) ([]string, error)
}

// ProductRefresher re-runs the lookup pipeline for a barcode.
type ProductRefresher interface {
	Refresh(ctx context.Context, barcode string) (product.Product, error)
}

// WarmupJob keeps the product cache populated for popular barcodes.
type WarmupJob struct {
	Source       BarcodeSource
	Products     ProductRefresher
	Logger       *slog.Logger
	Metrics      *jobmetrics.Metrics
	DefaultLimit int
}

// NewWarmupJob wires dependencies for the warmup handler.
func NewWarmupJob(source BarcodeSource, products ProductRefresher, logger *slog.Logger, metrics *jobmetrics.Metrics, limit int) *WarmupJob {
	return &WarmupJob{
		Source:       source,
		Products:     products,
		Logger:       logger,
		Metrics:      metrics,
		DefaultLimit: limit,
	}
}

// Handle processes product warmup tasks.
func (j *WarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Source == nil || j.Products == nil {
		return errors.New("product warmup: handler not configured")
	}
	var payload WarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = j.DefaultLimit
	}
	if limit <= 0 {
		limit = defaultWarmupLimit
	}

	tracker := j.metrics().Track(TaskProductWarmup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.Int("limit", limit))
	start := time.Now()

	barcodes, err := j.Source.RecentBarcodes(ctx, limit)
	if err != nil {
		logger.Error("load recent barcodes", slog.Any("error", err))
		return err
	}
	if len(barcodes) == 0 {
		logger.Info("no recent scans to warm")
		return nil
	}

	var refreshed, missing, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	for _, barcode := range barcodes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, warmupPerProductDeadline)
			defer cancel()
			_, err := j.Products.Refresh(pctx, barcode)
			switch {
			case err == nil:
				refreshed.Add(1)
			case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrInvalidInput):
				missing.Add(1)
			default:
				failed.Add(1)
				logger.Warn("refresh product", slog.String("barcode", barcode), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	j.metrics().AddItems(TaskProductWarmup, "refreshed", int(refreshed.Load()))
	j.metrics().AddItems(TaskProductWarmup, "missing", int(missing.Load()))
	j.metrics().AddItems(TaskProductWarmup, "failed", int(failed.Load()))

	logger.Info("completed product warmup",
		slog.Int("barcodes", len(barcodes)),
		slog.Int("refreshed", int(refreshed.Load())),
		slog.Int("missing", int(missing.Load())),
		slog.Int("failed", int(failed.Load())),
		slog.Duration("duration", time.Since(start)),
	)
	if int(failed.Load()) == len(barcodes) {
		return errors.New("product warmup: every refresh failed")
	}
	return nil
}

func (j *WarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskProductWarmup))
	}
	return slog.Default().With(slog.String("job", TaskProductWarmup))
}

func (j *WarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
