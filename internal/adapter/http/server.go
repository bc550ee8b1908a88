package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/what-happened-on/internal/domain"
	"github.com/couchcryptid/what-happened-on/internal/report"
)

// DateService resolves source outcomes for a date.
type DateService interface {
	sharedobs.ReadinessChecker
	Build(ctx context.Context, date string) (report.Report, error)
	Outcome(ctx context.Context, date string, id domain.SourceID) (any, error)
}

// Server exposes the date API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        DateService
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api/v1, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, svc DateService, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withRequestID(withLogging(mux, logger)),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second, // reports wait on four upstream APIs
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /api/v1/sources", s.handleSources)
	mux.HandleFunc("GET /api/v1/dates/{date}", s.handleReport)
	mux.HandleFunc("GET /api/v1/dates/{date}/{source}", s.handleOutcome)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": domain.Sources})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Build(r.Context(), r.PathValue("date"))
	if errors.Is(err, domain.ErrInvalidDate) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.logger.Error("build report", "date", r.PathValue("date"), "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	out, err := s.svc.Outcome(r.Context(), r.PathValue("date"), domain.SourceID(r.PathValue("source")))
	if errors.Is(err, report.ErrUnknownSource) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.logger.Error("resolve outcome", "date", r.PathValue("date"), "source", r.PathValue("source"), "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
