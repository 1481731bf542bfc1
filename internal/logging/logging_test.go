package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	if _, err := New("debug", "console"); err != nil {
		t.Errorf("New(debug, console): %v", err)
	}
	if _, err := New("info", ""); err != nil {
		t.Errorf("New(info, default): %v", err)
	}
	if _, err := New("loud", "json"); err == nil {
		t.Errorf("expected error for unknown level")
	}
	if _, err := New("info", "xml"); err == nil {
		t.Errorf("expected error for unknown format")
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d log entries; want 2", len(entries))
	}
	if entries[0].Level != zapcore.InfoLevel || entries[0].ContextMap()["status"] != int64(http.StatusNoContent) {
		t.Errorf("first entry = %v %v", entries[0].Level, entries[0].ContextMap())
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("404 logged at %v; want warn", entries[1].Level)
	}
}
