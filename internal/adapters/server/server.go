// Package server mounts the HTTP API, the MCP endpoint and health probes on one listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/workboard/internal/adapters/server/common"
	"github.com/hylla/workboard/internal/adapters/server/httpapi"
	"github.com/hylla/workboard/internal/adapters/server/mcpapi"
	"github.com/hylla/workboard/internal/app"
)

const (
	defaultBindAddress = "127.0.0.1:8080"
	defaultAPIEndpoint = "/api/v1"
	defaultMCPEndpoint = "/mcp"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config defines serve-mode endpoint configuration.
type Config struct {
	HTTPBind      string
	APIEndpoint   string
	MCPEndpoint   string
	ServerName    string
	ServerVersion string
}

// Dependencies are the app-facing collaborators the transports call into.
// Readiness and Logger are optional.
type Dependencies struct {
	Board     common.BoardService
	Readiness common.ReadinessChecker
	Logger    app.Logger
}

// NewHandler builds the root handler and returns the config it normalized.
func NewHandler(cfg Config, deps Dependencies) (http.Handler, Config, error) {
	cfg, err := normalizeConfig(cfg)
	if err != nil {
		return nil, Config{}, err
	}
	if deps.Board == nil {
		return nil, Config{}, errors.New("board dependency is required")
	}

	mcpHandler, err := mcpapi.NewHandler(mcpapi.Config{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		EndpointPath:  cfg.MCPEndpoint,
	}, deps.Board)
	if err != nil {
		return nil, Config{}, fmt.Errorf("configure mcp handler: %w", err)
	}
	api := http.StripPrefix(cfg.APIEndpoint, httpapi.NewHandler(deps.Board))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeProbe(w, http.StatusOK, "ok")
	})
	mux.HandleFunc("/readyz", readinessProbe(deps.Readiness))
	mux.Handle(cfg.MCPEndpoint, mcpHandler)
	mux.Handle(cfg.APIEndpoint, api)
	mux.Handle(cfg.APIEndpoint+"/", api)

	logger := deps.Logger
	if logger == nil {
		logger = charmLog.New(io.Discard)
	}
	return accessLog(logger, mux), cfg, nil
}

// Run listens on cfg.HTTPBind and serves until ctx ends or the listener fails.
// Bind errors are returned before any request is accepted.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	if ctx == nil {
		ctx = context.Background()
	}
	handler, cfg, err := NewHandler(cfg, deps)
	if err != nil {
		return fmt.Errorf("build server handler: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.HTTPBind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTPBind, err)
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if deps.Logger != nil {
		deps.Logger.Info("server listening", "addr", listener.Addr().String(), "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := srv.Shutdown(shutdownCtx)
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve after shutdown: %w", err)
	}
	if shutdownErr != nil {
		return fmt.Errorf("shutdown server: %w", shutdownErr)
	}
	if deps.Logger != nil {
		deps.Logger.Info("server stopped")
	}
	return nil
}

// normalizeConfig applies defaults and rejects endpoints that would shadow each other.
func normalizeConfig(cfg Config) (Config, error) {
	cfg.HTTPBind = strings.TrimSpace(cfg.HTTPBind)
	if cfg.HTTPBind == "" {
		cfg.HTTPBind = defaultBindAddress
	}
	cfg.APIEndpoint = normalizeEndpoint(cfg.APIEndpoint, defaultAPIEndpoint)
	cfg.MCPEndpoint = normalizeEndpoint(cfg.MCPEndpoint, defaultMCPEndpoint)
	if nestedEndpoints(cfg.APIEndpoint, cfg.MCPEndpoint) {
		return Config{}, fmt.Errorf("api endpoint %q and mcp endpoint %q must not overlap", cfg.APIEndpoint, cfg.MCPEndpoint)
	}
	for _, reserved := range []string{"/healthz", "/readyz"} {
		if nestedEndpoints(cfg.APIEndpoint, reserved) || nestedEndpoints(cfg.MCPEndpoint, reserved) {
			return Config{}, fmt.Errorf("endpoint collides with %s", reserved)
		}
	}

	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "workboard"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	return cfg, nil
}

// normalizeEndpoint returns path as "/a/b", or fallback when path is empty or "/".
func normalizeEndpoint(path, fallback string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return fallback
	}
	return "/" + path
}

// nestedEndpoints reports whether a equals b or one is a path prefix of the other.
func nestedEndpoints(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

func writeProbe(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, "{\"status\":%q}\n", status)
}

// readinessProbe reports unavailable while backing storage cannot be reached.
func readinessProbe(check common.ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check.Ping(r.Context()); err != nil {
				writeProbe(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		writeProbe(w, http.StatusOK, "ok")
	}
}

// statusRecorder captures the response code for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming MCP responses working behind the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// accessLog logs one debug line per request; 5xx responses log at warn.
func accessLog(logger app.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		keyvals := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started).Round(time.Microsecond),
		}
		if rec.status >= http.StatusInternalServerError {
			logger.Warn("request failed", keyvals...)
			return
		}
		logger.Debug("request", keyvals...)
	})
}
