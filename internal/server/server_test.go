package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"eco-route-planner/internal/config"
	"eco-route-planner/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		ServerPort:         "0",
		JWTSecret:          "test-secret",
		ClientOrigin:       "*",
		AdminUsername:      "admin",
		AdminPasswordHash:  string(hash),
		AlphaMin:           0.1,
		AlphaMax:           2.0,
		MaxExpansions:      10000,
		CacheTTL:           time.Minute,
		CacheSize:          16,
		TrafficSensitivity: 0.5,
		WarmupSchedule:     "@every 5m",
		KafkaTopic:         "route-optimizations",
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func serve(app *App, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	if rec := serve(app, http.MethodGet, "/healthz", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/healthz status = %d", rec.Code)
	}

	serve(app, http.MethodPost, "/api/routes/optimize", `{"start_node":"A","end_node":"J"}`, "")
	rec := serve(app, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d", rec.Code)
	}
	for _, series := range []string{"ecoroute_optimizations_total", "ecoroute_cache_misses_total", "ecoroute_http_requests_total"} {
		if !strings.Contains(rec.Body.String(), series) {
			t.Errorf("/metrics missing %s", series)
		}
	}
}

func TestOptimizeThroughRouter(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	rec := serve(app, http.MethodPost, "/api/routes/optimize", `{"start_node":"D","end_node":"J","alpha":1}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp models.OptimizeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Routes) < 2 {
		t.Errorf("got %d routes", len(resp.Routes))
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Errorf("missing request id header")
	}

	if rec := serve(app, http.MethodGet, "/api/traffic/current", "", ""); rec.Code != http.StatusOK {
		t.Errorf("/api/traffic/current status = %d", rec.Code)
	}
}

func TestAdminRunsRequireToken(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	serve(app, http.MethodPost, "/api/routes/optimize", `{"start_node":"B","end_node":"I"}`, "")

	if rec := serve(app, http.MethodGet, "/api/admin/runs", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("runs without token: status %d; want 401", rec.Code)
	}

	rec := serve(app, http.MethodPost, "/api/auth/token", `{"username":"admin","password":"s3cret-pass"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("token status = %d: %s", rec.Code, rec.Body.String())
	}
	var tok models.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatal(err)
	}

	// runs are recorded in the background
	var runs []models.OptimizationRun
	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = serve(app, http.MethodGet, "/api/admin/runs?limit=5", "", tok.Token)
		if rec.Code != http.StatusOK {
			t.Fatalf("runs status = %d: %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &runs); err != nil {
			t.Fatal(err)
		}
		if len(runs) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(runs) != 1 || runs[0].StartNode != "B" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestCloseFlushesAuditTrail(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	serve(app, http.MethodPost, "/api/routes/optimize", `{"start_node":"A","end_node":"J"}`, "")
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	runs, err := app.Routing().ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("runs after Close = %d; want 1", len(runs))
	}
}

func TestNewWithoutJWTSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = ""
	app := newTestApp(t, cfg)
	if rec := serve(app, http.MethodGet, "/api/admin/runs", "", "forged"); rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", rec.Code)
	}
}

func TestLoadGraph(t *testing.T) {
	g, err := LoadGraph("")
	if err != nil || g.LocationCount() != 10 {
		t.Fatalf("default graph: %v", err)
	}

	path := filepath.Join(t.TempDir(), "graph.yaml")
	data := `
locations:
  - {id: X, name: Start}
  - {id: Y, name: End}
links:
  - {from: X, to: Y, time_minutes: 3, distance_km: 2, emissions_multiplier: 1}
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	g, err = LoadGraph(path)
	if err != nil {
		t.Fatal(err)
	}
	if g.LocationCount() != 2 {
		t.Errorf("LocationCount = %d; want 2", g.LocationCount())
	}

	if _, err := LoadGraph(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing graph file accepted")
	}
}

func TestNewRejectsBadGraph(t *testing.T) {
	cfg := testConfig(t)
	cfg.GraphFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatal("New accepted a missing graph file")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	app := newTestApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
