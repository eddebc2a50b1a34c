package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/id/uuid"
	"github.com/JakeFAU/pdfingest/internal/middleware"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
	"github.com/JakeFAU/pdfingest/internal/telemetry"
)

// Processor runs one ingestion.
type Processor interface {
	Process(ctx context.Context, req pipeline.ProcessRequest) (pipeline.Result, error)
}

// ReadinessCheck reports whether a downstream dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Server wires HTTP handlers to the orchestrator.
type Server struct {
	router    chi.Router
	processor Processor
	ready     []ReadinessCheck
	logger    *zap.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithReadinessChecks adds checks consulted by /readyz.
func WithReadinessChecks(checks ...ReadinessCheck) Option {
	return func(s *Server) {
		s.ready = append(s.ready, checks...)
	}
}

// NewServer constructs a Server with middleware and routes.
func NewServer(processor Processor, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		processor: processor,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID(uuid.New()))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(telemetry.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Post("/process-pdf/", s.processPDF)
	r.Post("/process-pdf", s.processPDF)

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	for _, check := range s.ready {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("readiness check failed", zap.Error(err))
			s.writeDetail(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", zap.Error(err))
	}
}

func (s *Server) writeDetail(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"detail": msg})
}
