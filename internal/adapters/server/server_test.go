package server

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/workboard/internal/adapters/seed"
	"github.com/hylla/workboard/internal/adapters/server/common"
	"github.com/hylla/workboard/internal/app"
)

// stubPinger returns one configured readiness error.
type stubPinger struct {
	err error
}

// Ping returns the configured error.
func (s stubPinger) Ping(context.Context) error {
	return s.err
}

// newBoard returns a transport adapter over a seeded in-memory store.
func newBoard(t *testing.T) common.BoardService {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC) }
	store := app.NewStore(nil, seed.NewProvider(now), app.StoreConfig{Clock: now})
	store.Load(context.Background())
	return common.NewStoreAdapter(store, common.AdapterOptions{Now: now})
}

// TestNewHandlerRoutes verifies health, readiness, and API mounting.
func TestNewHandlerRoutes(t *testing.T) {
	handler, cfg, err := NewHandler(Config{}, Dependencies{Board: newBoard(t)})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if cfg.HTTPBind != defaultBindAddress || cfg.APIEndpoint != "/api/v1" || cfg.MCPEndpoint != "/mcp" {
		t.Fatalf("unexpected normalized config %#v", cfg)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
			t.Fatalf("%s = %d %q", path, rec.Code, rec.Body.String())
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/work_centers", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "wc-001") {
		t.Fatalf("api work_centers = %d %q", rec.Code, rec.Body.String())
	}
}

// TestReadinessReflectsStorage verifies readyz fails while storage is unreachable.
func TestReadinessReflectsStorage(t *testing.T) {
	handler, _, err := NewHandler(Config{}, Dependencies{
		Board:     newBoard(t),
		Readiness: stubPinger{err: errors.New("database is locked")},
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d, want %d", rec.Code, http.StatusOK)
	}
}

// TestNewHandlerValidation verifies dependency and endpoint validation.
func TestNewHandlerValidation(t *testing.T) {
	if _, _, err := NewHandler(Config{}, Dependencies{}); err == nil {
		t.Fatal("expected error without board dependency")
	}
	cases := []Config{
		{APIEndpoint: "/x", MCPEndpoint: "x/"},
		{APIEndpoint: "/api", MCPEndpoint: "/api/mcp"},
		{APIEndpoint: "/healthz"},
	}
	for _, cfg := range cases {
		if _, _, err := NewHandler(cfg, Dependencies{Board: newBoard(t)}); err == nil {
			t.Fatalf("expected error for colliding endpoints %#v", cfg)
		}
	}
	if _, _, err := NewHandler(Config{APIEndpoint: "/api", MCPEndpoint: "/apimcp"}, Dependencies{Board: newBoard(t)}); err != nil {
		t.Fatalf("expected sibling endpoints to be accepted, got %v", err)
	}
}

// TestAccessLogRecordsRequests verifies requests are logged with their status.
func TestAccessLogRecordsRequests(t *testing.T) {
	var buf bytes.Buffer
	logger := charmLog.NewWithOptions(&buf, charmLog.Options{Level: charmLog.DebugLevel})
	handler, _, err := NewHandler(Config{}, Dependencies{
		Board:     newBoard(t),
		Readiness: stubPinger{err: errors.New("down")},
		Logger:    logger,
	})
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/work_orders", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))

	out := buf.String()
	if !strings.Contains(out, "path=/api/v1/work_orders") || !strings.Contains(out, "status=200") {
		t.Fatalf("expected api request logged, got %q", out)
	}
	if !strings.Contains(out, "request failed") || !strings.Contains(out, "status=503") {
		t.Fatalf("expected failed readiness logged at warn, got %q", out)
	}
}

// TestRunReturnsBindError verifies an occupied address fails fast.
func TestRunReturnsBindError(t *testing.T) {
	occupied, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer occupied.Close()

	err = Run(context.Background(), Config{HTTPBind: occupied.Addr().String()}, Dependencies{Board: newBoard(t)})
	if err == nil || !strings.Contains(err.Error(), "listen on") {
		t.Fatalf("expected listen error, got %v", err)
	}
}

// TestNormalizeEndpoint verifies endpoint canonicalization.
func TestNormalizeEndpoint(t *testing.T) {
	cases := map[string]string{
		"":            "/api/v1",
		"/":           "/api/v1",
		"api":         "/api",
		"/api/v2/":    "/api/v2",
		"  /custom  ": "/custom",
	}
	for in, want := range cases {
		if got := normalizeEndpoint(in, "/api/v1"); got != want {
			t.Fatalf("normalizeEndpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestRunStopsOnCancel verifies graceful shutdown when the context ends.
func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Config{HTTPBind: "127.0.0.1:0"}, Dependencies{Board: newBoard(t)})
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not stop after cancel")
	}
}
