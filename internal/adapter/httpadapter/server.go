// Package httpadapter exposes the enrichment and notification operations
// over HTTP, plus health, readiness, and metrics endpoints.
package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/disaster-response-core/internal/broadcast"
	"github.com/couchcryptid/disaster-response-core/internal/domain"
	"github.com/couchcryptid/disaster-response-core/internal/enrich"
	"github.com/couchcryptid/disaster-response-core/internal/enrich/analyze"
	"github.com/couchcryptid/disaster-response-core/internal/enrich/geocode"
)

// Server exposes the service's HTTP surface.
type Server struct {
	httpServer *http.Server
	geocoder   *geocode.Service
	analyzer   *analyze.Service
	notifier   *broadcast.Notifier
	logger     *slog.Logger
}

// NewServer wires routes for enrichment, mutation notification, the
// websocket endpoint, and operational probes.
func NewServer(addr string, geocoder *geocode.Service, analyzer *analyze.Service, notifier *broadcast.Notifier, wsHandler http.Handler, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		geocoder: geocoder,
		analyzer: analyzer,
		notifier: notifier,
		logger:   logger,
	}

	mux.HandleFunc("POST /v1/enrich/location", s.handleEnrichLocation)
	mux.HandleFunc("POST /v1/enrich/content", s.handleEnrichContent)
	mux.HandleFunc("POST /v1/mutations", s.handleMutation)
	mux.Handle("GET /ws", wsHandler)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
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

type locationRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleEnrichLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.geocoder.Resolve(r.Context(), req.Text)
	if err != nil {
		s.writeResolveError(w, "geocode", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type contentRequest struct {
	Text     string `json:"text"`
	MediaURL string `json:"media_url,omitempty"`
}

func (s *Server) handleEnrichContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), analyze.Input{Text: req.Text, MediaURL: req.MediaURL})
	if err != nil {
		s.writeResolveError(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type mutationRequest struct {
	Entity  domain.EntityRef    `json:"entity"`
	Kind    domain.MutationKind `json:"kind"`
	Payload json.RawMessage     `json:"payload,omitempty"`
}

func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	var req mutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Entity.Type == "" || req.Entity.ID == "" {
		writeError(w, http.StatusBadRequest, "entity type and id are required")
		return
	}
	switch req.Kind {
	case domain.MutationCreate, domain.MutationUpdate, domain.MutationDelete:
	default:
		writeError(w, http.StatusBadRequest, "kind must be create, update, or delete")
		return
	}

	s.notifier.NotifyMutation(r.Context(), req.Entity, req.Kind, req.Payload)
	w.WriteHeader(http.StatusAccepted)
}

// writeResolveError maps enrichment failures onto status codes: exhausted
// provider chains are upstream failures, everything else is internal.
func (s *Server) writeResolveError(w http.ResponseWriter, op string, err error) {
	s.logger.Warn("enrichment failed", "op", op, "error", err)

	var chainErr *enrich.ChainError
	switch {
	case errors.As(err, &chainErr):
		writeError(w, http.StatusBadGateway, "all providers failed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request cancelled")
	default:
		writeError(w, http.StatusInternalServerError, "enrichment failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
