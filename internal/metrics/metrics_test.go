package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounters(t *testing.T) {
	m := New()
	m.CacheHit()
	m.CacheHit()
	m.CacheMiss()
	m.Optimization("ok", 2*time.Millisecond, 3)
	m.Optimization("invalid", 0, 0)
	m.Audit("dropped")

	if got := testutil.ToFloat64(m.cacheHits); got != 2 {
		t.Errorf("cache hits = %v; want 2", got)
	}
	if got := testutil.ToFloat64(m.cacheMisses); got != 1 {
		t.Errorf("cache misses = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.optimizations.WithLabelValues("invalid")); got != 1 {
		t.Errorf("invalid optimisations = %v; want 1", got)
	}
	if got := testutil.ToFloat64(m.audits.WithLabelValues("dropped")); got != 1 {
		t.Errorf("dropped audits = %v; want 1", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var m *Collector
	m.CacheHit()
	m.CacheMiss()
	m.CacheEvict()
	m.Warmup(true)
	m.Audit("saved")
	m.Optimization("ok", time.Millisecond, 1)
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `ecoroute_http_requests_total{route="/ping",status="200"} 1`) {
		t.Errorf("metrics output missing /ping counter:\n%s", body)
	}
}
