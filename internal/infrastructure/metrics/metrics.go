package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitos/injective_dashboard/internal/cache"
)

// Metrics owns the process registry. Cache counters are read straight
// from cache.Stats so the two surfaces can never drift apart.
type Metrics struct {
	Registry        *prometheus.Registry
	upstreamSeconds *prometheus.HistogramVec
}

func New(c *cache.Cache) *Metrics {
	reg := prometheus.NewRegistry()

	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "dashboard_cache_hits_total",
		Help: "Cache hits since process start.",
	}, func() float64 { return float64(c.Stats().Hits) }))
	reg.MustRegister(prometheus.NewCounterFunc(prometheus.CounterOpts{
		Name: "dashboard_cache_misses_total",
		Help: "Cache misses since process start.",
	}, func() float64 { return float64(c.Stats().Misses) }))
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dashboard_cache_entries",
		Help: "Unexpired cache entries.",
	}, func() float64 { return float64(c.Stats().Entries) }))

	upstreamSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_upstream_request_seconds",
		Help:    "Upstream query latency by endpoint and outcome.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "outcome"})
	reg.MustRegister(upstreamSeconds)

	return &Metrics{
		Registry:        reg,
		upstreamSeconds: upstreamSeconds,
	}
}

// ObserveUpstream records one upstream call. Safe on a nil receiver so
// the adapter can run without metrics in tools and tests.
func (m *Metrics) ObserveUpstream(endpoint string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamSeconds.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
}
