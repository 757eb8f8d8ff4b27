package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/geolearn/terrasample/internal/ports/input"
)

// ServerConfig holds the status server configuration.
type ServerConfig struct {
	Host string
	Port int
	Path string // metrics endpoint path, default /metrics
}

// Server exposes Prometheus metrics, a health endpoint, and the summary
// of the last extraction run. It runs alongside watch mode.
type Server struct {
	server *http.Server
	runner input.ExtractionRunner
	logger *slog.Logger
}

// NewServer creates a new metrics and status server.
func NewServer(cfg ServerConfig, runner input.ExtractionRunner, logger *slog.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}

	s := &Server{
		runner: runner,
		logger: logger,
	}

	r := mux.NewRouter()
	r.Use(s.recoveryMiddleware)
	r.Handle(cfg.Path, Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// Start starts the server.
func (s *Server) Start() error {
	s.logger.Info("starting metrics server", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleStatus returns the summary of the last completed run.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	summary, ok := s.runner.LastRun()
	if !ok {
		http.Error(w, `{"error":"no run completed yet"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

// recoveryMiddleware recovers from panics.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
