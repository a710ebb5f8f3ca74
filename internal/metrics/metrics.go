// Package metrics registers and serves Prometheus metrics for the
// dashboard backend.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard service.
type Metrics struct {
	FetchesTotal   prometheus.Counter
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	UpstreamErrors *prometheus.CounterVec // labels: kind=timeout|transport|status|parse
	UpstreamDur    prometheus.Histogram
	ForecastsTotal prometheus.Counter
	ForecastsNoFit prometheus.Counter
	WSClients      prometheus.Gauge
	RefreshPushes  prometheus.Counter
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		FetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devdash_fetches_total",
			Help: "Total series fetch requests (cache hits included)",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devdash_cache_hits_total",
			Help: "Fetches served from the TTL cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devdash_cache_misses_total",
			Help: "Fetches that went to the upstream API",
		}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "devdash_upstream_errors_total",
			Help: "Upstream fetch failures (by kind)",
		}, []string{"kind"}),
		UpstreamDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "devdash_upstream_duration_seconds",
			Help:    "World Bank API call latency",
			Buckets: prometheus.DefBuckets,
		}),
		ForecastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devdash_forecasts_total",
			Help: "Forecast computations performed",
		}),
		ForecastsNoFit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devdash_forecasts_nofit_total",
			Help: "Forecast requests with insufficient or degenerate data",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "devdash_ws_clients",
			Help: "Connected WebSocket clients",
		}),
		RefreshPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "devdash_refresh_pushes_total",
			Help: "Series refresh envelopes pushed to WS clients",
		}),
	}

	prometheus.MustRegister(
		m.FetchesTotal,
		m.CacheHits,
		m.CacheMisses,
		m.UpstreamErrors,
		m.UpstreamDur,
		m.ForecastsTotal,
		m.ForecastsNoFit,
		m.WSClients,
		m.RefreshPushes,
	)
	return m
}

// Serve starts the Prometheus /metrics endpoint on addr. Blocks.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("[metrics] serving on %s/metrics", addr)
	return http.ListenAndServe(addr, mux)
}
