package jobmetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	clock := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return clock }

	run := m.Track("product:warmup")
	clock = clock.Add(2 * time.Second)
	assert.NoError(t, run.End(nil))

	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("product:warmup").End(boom), boom)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("product:warmup", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.runs.WithLabelValues("product:warmup", "failure")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failures.WithLabelValues("product:warmup")))
	assert.Equal(t, float64(clock.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("product:warmup")))
}

func TestAddItemsIgnoresNonPositive(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddItems("history:prune", "deleted", 3)
	m.AddItems("history:prune", "deleted", 0)
	m.AddItems("history:prune", "deleted", -2)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.items.WithLabelValues("history:prune", "deleted")))
}

func TestNewMetricsSharesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)
	second := NewMetrics(reg)

	second.AddItems("history:prune", "deleted", 2)
	require.Equal(t, float64(2), testutil.ToFloat64(first.items.WithLabelValues("history:prune", "deleted")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.AddItems("x", "y", 1)
	assert.NoError(t, m.Track("x").End(nil))
}
