package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mirror and checkout outcomes.
type CartMetrics struct {
	persistDuration *prometheus.HistogramVec
	persistFailures *prometheus.CounterVec
	loads           *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer. A nil
// registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	persistDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_persist_duration_seconds",
		Help:    "Duration of cart mirror writes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mirror"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_persist_failures_total",
		Help: "Failed cart mirror writes.",
	}, []string{"mirror", "op"})
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_loads_total",
		Help: "Cart hydrations by the source that won reconciliation.",
	}, []string{"source"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_checkouts_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	reg.MustRegister(persistDuration, persistFailures, loads, checkouts)
	return &CartMetrics{
		persistDuration: persistDuration,
		persistFailures: persistFailures,
		loads:           loads,
		checkouts:       checkouts,
	}
}

// ObservePersist records how long a write to the named mirror took.
func (c *CartMetrics) ObservePersist(mirror string, duration time.Duration) {
	if c == nil || c.persistDuration == nil {
		return
	}
	c.persistDuration.WithLabelValues(normalizeLabel(mirror)).Observe(duration.Seconds())
}

// IncPersistFailure counts a failed write to the named mirror.
func (c *CartMetrics) IncPersistFailure(mirror, op string) {
	if c == nil || c.persistFailures == nil {
		return
	}
	c.persistFailures.WithLabelValues(normalizeLabel(mirror), normalizeLabel(op)).Inc()
}

// IncLoad counts a completed hydration.
func (c *CartMetrics) IncLoad(source string) {
	if c == nil || c.loads == nil {
		return
	}
	c.loads.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncCheckout counts a checkout attempt.
func (c *CartMetrics) IncCheckout(result string) {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
