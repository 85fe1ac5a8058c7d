package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"

	"github.com/nutriscan/nutriscan/internal/platform/cache"
	"github.com/nutriscan/nutriscan/jobs"
)

type config struct {
	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
}

func main() {
	var cfg config
	if err := envconfig.Process("", &cfg); err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: jobsctl [flags] trigger <product:warmup|history:prune> | stats")
		flag.PrintDefaults()
	}
	limit := flag.Int("limit", 0, "warmup barcode limit")
	retention := flag.Duration("retention", 0, "prune retention override")
	flag.Parse()

	opts, err := cache.QueueOptions(cfg.RedisAddr)
	if err != nil {
		slog.Default().Error("redis options", slog.Any("error", err))
		os.Exit(1)
	}
	ctl := newJobsCtl(opts)
	defer func() { _ = ctl.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch flag.Arg(0) {
	case "trigger":
		var info *asynq.TaskInfo
		info, err = ctl.Trigger(ctx, flag.Arg(1), *limit, *retention)
		if err == nil {
			fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		}
	case "stats":
		var stats queueStats
		stats, err = ctl.InspectQueue()
		if err == nil {
			fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Default().Error("jobsctl", slog.Any("error", err))
		os.Exit(1)
	}
}

type jobsCtl struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

func newJobsCtl(opts asynq.RedisClientOpt) *jobsCtl {
	return &jobsCtl{client: jobs.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

func (c *jobsCtl) Close() error {
	return errors.Join(c.inspector.Close(), c.client.Close())
}

func (c *jobsCtl) Trigger(ctx context.Context, name string, limit int, retention time.Duration) (*asynq.TaskInfo, error) {
	switch name {
	case jobs.TaskProductWarmup:
		return c.client.EnqueueWarmup(ctx, jobs.WarmupPayload{Limit: limit})
	case jobs.TaskHistoryPrune:
		return c.client.EnqueuePrune(ctx, jobs.PrunePayload{RetentionSeconds: int64(retention / time.Second)})
	default:
		return nil, fmt.Errorf("jobsctl: unsupported job %q", name)
	}
}

type queueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

func (c *jobsCtl) InspectQueue() (queueStats, error) {
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			return queueStats{Queue: jobs.QueueDefault}, nil
		}
		return queueStats{}, err
	}
	return queueStats{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
	}, nil
}
