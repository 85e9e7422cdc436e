package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"rebellion/internal/app"
	"rebellion/internal/config"
	"rebellion/internal/store"
	"rebellion/internal/transport/ws"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	hub    *app.BridgeHub
	store  store.Store
	config *config.Config
	logger *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, hub *app.BridgeHub, incidents store.Store, logger *slog.Logger) *Server {
	s := &Server{
		hub:    hub,
		store:  incidents,
		config: cfg,
		logger: logger,
	}

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler wrapped in middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return s.middleware(mux)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// API routes
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/servers", s.handleListServers)
	mux.HandleFunc("GET /api/servers/{serverId}/records", s.handleServerRecords)
	mux.HandleFunc("GET /api/incidents", s.handleIncidents)

	// Host bridge
	wsHandler := ws.NewHandler(s.hub, s.config.Bridge.TokenHash, s.logger)
	mux.Handle("GET /ws/host", wsHandler)
}

// middleware wraps the handler with logging and other middleware
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Add CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		// Health probes are noisy outside development
		if s.config.IsDevelopment() || !isProbeRequest(r.URL.Path) {
			s.logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration", time.Since(start),
			)
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// isProbeRequest checks if the request is a health probe
func isProbeRequest(path string) bool {
	return strings.HasPrefix(path, "/api/health")
}
