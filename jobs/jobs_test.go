package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/nutriscan/nutriscan/internal/jobs"
	"github.com/nutriscan/nutriscan/internal/product"
	"github.com/nutriscan/nutriscan/internal/shared"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type staticSource struct {
	barcodes []string
	err      error
	limit    int
}

func (s *staticSource) RecentBarcodes(_ context.Context, limit int) ([]string, error) {
	s.limit = limit
	return s.barcodes, s.err
}

type recordingRefresher struct {
	mu       sync.Mutex
	seen     []string
	failures map[string]error
}

func (r *recordingRefresher) Refresh(_ context.Context, barcode string) (product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, barcode)
	if err := r.failures[barcode]; err != nil {
		return product.Product{}, err
	}
	return product.Product{Barcode: barcode}, nil
}

func newMetrics() *jobmetrics.Metrics {
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func warmupTask(t *testing.T, payload WarmupPayload) *asynq.Task {
	t.Helper()
	task, err := NewWarmupTask(payload)
	require.NoError(t, err)
	return task
}

func TestWarmupRefreshesEveryBarcode(t *testing.T) {
	source := &staticSource{barcodes: []string{"11111111", "22222222", "33333333", "44444444", "55555555"}}
	refresher := &recordingRefresher{failures: map[string]error{
		"22222222": shared.ErrNotFound,
		"33333333": fmt.Errorf("%w: timeout", shared.ErrUpstreamUnavailable),
	}}
	job := NewWarmupJob(source, refresher, quiet, newMetrics(), 25)

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, WarmupPayload{})))
	assert.Equal(t, 25, source.limit)

	sort.Strings(refresher.seen)
	assert.Equal(t, source.barcodes, refresher.seen)
}

func TestWarmupPayloadOverridesLimit(t *testing.T) {
	source := &staticSource{}
	job := NewWarmupJob(source, &recordingRefresher{}, quiet, newMetrics(), 25)

	require.NoError(t, job.Handle(context.Background(), warmupTask(t, WarmupPayload{Limit: 3})))
	assert.Equal(t, 3, source.limit)
}

func TestWarmupFailsWhenEveryRefreshFails(t *testing.T) {
	source := &staticSource{barcodes: []string{"11111111"}}
	refresher := &recordingRefresher{failures: map[string]error{"11111111": errors.New("down")}}
	job := NewWarmupJob(source, refresher, quiet, newMetrics(), 0)

	assert.Error(t, job.Handle(context.Background(), warmupTask(t, WarmupPayload{})))
}

func TestWarmupPropagatesSourceError(t *testing.T) {
	boom := errors.New("store down")
	job := NewWarmupJob(&staticSource{err: boom}, &recordingRefresher{}, quiet, newMetrics(), 0)

	assert.ErrorIs(t, job.Handle(context.Background(), warmupTask(t, WarmupPayload{})), boom)
}

func TestWarmupRejectsMalformedPayload(t *testing.T) {
	job := NewWarmupJob(&staticSource{}, &recordingRefresher{}, quiet, newMetrics(), 0)
	err := job.Handle(context.Background(), asynq.NewTask(TaskProductWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type fakePruner struct {
	cutoff time.Time
	calls  int
	n      int64
	err    error
}

func (p *fakePruner) PruneBefore(_ context.Context, cutoff time.Time) (int64, error) {
	p.calls++
	p.cutoff = cutoff
	return p.n, p.err
}

func TestPruneUsesRetentionWindow(t *testing.T) {
	now := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)
	pruner := &fakePruner{n: 7}
	job := NewPruneJob(pruner, 30*24*time.Hour, quiet, newMetrics())
	job.clock = func() time.Time { return now }

	task, err := NewPruneTask(PrunePayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, now.Add(-30*24*time.Hour), pruner.cutoff)

	task, err = NewPruneTask(PrunePayload{RetentionSeconds: 3600})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, now.Add(-time.Hour), pruner.cutoff)
}

func TestPruneDisabledWithoutRetention(t *testing.T) {
	pruner := &fakePruner{}
	job := NewPruneJob(pruner, 0, quiet, newMetrics())

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskHistoryPrune, nil)))
	assert.Zero(t, pruner.calls)
}

func TestPruneReturnsStoreError(t *testing.T) {
	boom := errors.New("store down")
	job := NewPruneJob(&fakePruner{err: boom}, time.Hour, quiet, newMetrics())

	assert.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskHistoryPrune, nil)), boom)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestJobsHealth(t *testing.T) {
	cases := []struct {
		name      string
		inspector QueueInspector
		status    int
		pending   int
	}{
		{"no inspector", nil, http.StatusOK, 0},
		{"queue info", stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 4}}, http.StatusOK, 4},
		{"queue missing", stubInspector{err: fmt.Errorf("asynq: %w", asynq.ErrQueueNotFound)}, http.StatusOK, 0},
		{"redis down", stubInspector{err: errors.New("dial tcp: refused")}, http.StatusServiceUnavailable, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Route("/jobs", NewHandler(tc.inspector, quiet).MountRoutes)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))

			require.Equal(t, tc.status, rec.Code)
			if tc.status == http.StatusOK {
				var body QueueHealth
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, QueueDefault, body.Queue)
				assert.Equal(t, tc.pending, body.Pending)
			}
		})
	}
}
