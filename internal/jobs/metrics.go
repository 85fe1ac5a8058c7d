// Package jobmetrics instruments the asynq task handlers.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nutriscan/nutriscan/internal/observability"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

// Metrics holds the job collectors. A nil *Metrics records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	items       *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	now         func() time.Time
}

var (
	processOnce    sync.Once
	processMetrics *Metrics
)

// NewMetrics builds the job collectors on reg. A nil reg shares one
// process-wide set on the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg != nil {
		return register(reg)
	}
	processOnce.Do(func() {
		processMetrics = register(prometheus.DefaultRegisterer)
	})
	return processMetrics
}

// Run is one in-flight job execution.
type Run struct {
	metrics *Metrics
	job     string
	started time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Run {
	run := &Run{metrics: m, job: job, started: time.Now()}
	if m != nil {
		run.started = m.now()
	}
	return run
}

// End records the run outcome and passes err through.
func (r *Run) End(err error) error {
	if r == nil || r.metrics == nil || r.job == "" {
		return err
	}
	m := r.metrics
	finished := m.now()
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
		m.failures.WithLabelValues(r.job).Inc()
	} else {
		m.lastSuccess.WithLabelValues(r.job).Set(float64(finished.Unix()))
	}
	m.runs.WithLabelValues(r.job, outcome).Inc()
	m.duration.WithLabelValues(r.job).Observe(finished.Sub(r.started).Seconds())
	return err
}

// AddItems counts work units such as refreshed products or pruned scans.
func (m *Metrics) AddItems(job, outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.items.WithLabelValues(job, outcome).Add(float64(count))
}

func register(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_jobs_total",
			Help: "Job runs by task type and outcome.",
		}, []string{"job", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_jobs_failures_total",
			Help: "Failed job runs by task type.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nutriscan_job_duration_seconds",
			Help:    "Job run duration.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_job_items_total",
			Help: "Items handled by jobs by outcome.",
		}, []string{"job", "outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nutriscan_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		now: time.Now,
	}
	m.runs = mustRegister(reg, m.runs)
	m.failures = mustRegister(reg, m.failures)
	m.duration = mustRegister(reg, m.duration)
	m.items = mustRegister(reg, m.items)
	m.lastSuccess = mustRegister(reg, m.lastSuccess)
	return m
}

func mustRegister[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	registered, err := observability.Register(reg, c)
	if err != nil {
		panic(err)
	}
	return registered
}
