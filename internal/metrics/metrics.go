package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns the Prometheus series of the service. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	optimizations     *prometheus.CounterVec
	optimizeDuration  prometheus.Histogram
	routesReturned    prometheus.Histogram
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	cacheEvictions    prometheus.Counter
	warmups           *prometheus.CounterVec
	audits            *prometheus.CounterVec
}

func New() *Collector {
	m := &Collector{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoroute_http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecoroute_http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		optimizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoroute_optimizations_total",
			Help: "Optimisation calls by outcome (ok, no_route, invalid, error).",
		}, []string{"outcome"}),
		optimizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecoroute_optimization_duration_seconds",
			Help:    "Time spent computing routes, cache hits excluded.",
			Buckets: []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		routesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecoroute_routes_returned",
			Help:    "Number of distinct routes returned per optimisation.",
			Buckets: []float64{0, 1, 2, 3, 4},
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoroute_cache_hits_total",
			Help: "Total route cache hits observed.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoroute_cache_misses_total",
			Help: "Total route cache misses observed.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecoroute_cache_evictions_total",
			Help: "Route cache entries dropped for size or age.",
		}),
		warmups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoroute_warmup_runs_total",
			Help: "Cache warm-up pair computations by outcome.",
		}, []string{"outcome"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecoroute_audit_events_total",
			Help: "Audit trail steps by outcome (saved, save_failed, published, publish_failed, dropped).",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.optimizations,
		m.optimizeDuration,
		m.routesReturned,
		m.cacheHits,
		m.cacheMisses,
		m.cacheEvictions,
		m.warmups,
		m.audits,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Collector) Registry() *prometheus.Registry { return m.registry }

func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency by matched route.
func (m *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if m == nil {
				return err
			}
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func (m *Collector) Optimization(outcome string, d time.Duration, routes int) {
	if m == nil {
		return
	}
	m.optimizations.WithLabelValues(outcome).Inc()
	if outcome == "ok" || outcome == "no_route" {
		m.optimizeDuration.Observe(d.Seconds())
		m.routesReturned.Observe(float64(routes))
	}
}

func (m *Collector) CacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *Collector) CacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *Collector) CacheEvict() {
	if m == nil {
		return
	}
	m.cacheEvictions.Inc()
}

func (m *Collector) Warmup(success bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !success {
		outcome = "error"
	}
	m.warmups.WithLabelValues(outcome).Inc()
}

func (m *Collector) Audit(outcome string) {
	if m == nil {
		return
	}
	m.audits.WithLabelValues(outcome).Inc()
}
