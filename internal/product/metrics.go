package product

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nutriscan/nutriscan/internal/observability"
)

// Metrics observes cache efficiency and upstream latency of the pipeline.
type Metrics struct {
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	sharedFetches  prometheus.Counter
	upstreamResult *prometheus.CounterVec
	upstreamTime   prometheus.Histogram
}

// NewMetrics registers the pipeline collectors. A nil registerer yields a
// Metrics value whose methods are no-ops.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	m := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutriscan_product_cache_hits_total",
			Help: "Product lookups served from the response cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutriscan_product_cache_miss_total",
			Help: "Product lookups that required an upstream fetch.",
		}),
		sharedFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nutriscan_product_shared_fetch_total",
			Help: "Lookups that joined an in-flight upstream fetch for the same barcode.",
		}),
		upstreamResult: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nutriscan_upstream_requests_total",
			Help: "Upstream product fetches by outcome.",
		}, []string{"outcome"}),
		upstreamTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "nutriscan_upstream_request_duration_seconds",
			Help:    "Duration of upstream product fetches.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	var err error
	if m.cacheHits, err = observability.Register(reg, m.cacheHits); err != nil {
		return nil, err
	}
	if m.cacheMisses, err = observability.Register(reg, m.cacheMisses); err != nil {
		return nil, err
	}
	if m.sharedFetches, err = observability.Register(reg, m.sharedFetches); err != nil {
		return nil, err
	}
	if m.upstreamResult, err = observability.Register(reg, m.upstreamResult); err != nil {
		return nil, err
	}
	if m.upstreamTime, err = observability.Register(reg, m.upstreamTime); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) shared() {
	if m != nil {
		m.sharedFetches.Inc()
	}
}

func (m *Metrics) upstream(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamResult.WithLabelValues(outcome).Inc()
	m.upstreamTime.Observe(d.Seconds())
}
