// Package server exposes the HTTP surface: the SSE narration endpoint the
// playback core consumes, tour session management with step-signal ingestion
// and a playback event stream, plus health and metrics.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tourline/tourline/config"
	"github.com/tourline/tourline/narrator"
)

// Server wires the router, the narration provider, and live tour sessions.
type Server struct {
	router   chi.Router
	logger   *slog.Logger
	provider narrator.Provider
	loader   *config.Loader

	mu       sync.Mutex
	sessions map[string]*session
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the server's structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates a Server around a narration provider and a config loader.
func New(provider narrator.Provider, loader *config.Loader, opts ...Option) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   slog.Default(),
		provider: provider,
		loader:   loader,
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Post("/api/chat/stream", s.handleChatStream)
	s.router.Post("/api/tours", s.handleStartTour)
	s.router.Post("/api/tours/{id}/signals", s.handleTourSignal)
	s.router.Get("/api/tours/{id}/events", s.handleTourEvents)
	s.router.Get("/api/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) addSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.id] = sess
}

// removeSession deletes the entry only if it still maps to sess, so a
// replacement tour registered under the same id is left alone.
func (s *Server) removeSession(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sess.id] == sess {
		delete(s.sessions, sess.id)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
