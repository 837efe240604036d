// Package webui provides the HTTP API for diagram generation,
// normalization and history browsing.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fossflow/pkg/generate"
	"fossflow/pkg/logx"
	"fossflow/pkg/metrics"
	"fossflow/pkg/persistence"
	"fossflow/pkg/version"
)

// Server is the web UI HTTP server.
type Server struct {
	service *generate.Service
	store   *persistence.Store
	usage   *metrics.QueryService // nil when no Prometheus URL is configured
	logger  *logx.Logger
}

// NewServer creates a new web UI server. usage may be nil.
func NewServer(service *generate.Service, store *persistence.Store, usage *metrics.QueryService) *Server {
	return &Server{
		service: service,
		store:   store,
		usage:   usage,
		logger:  logx.NewLogger("webui"),
	}
}

// RegisterRoutes registers all API endpoints on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/generate", s.handleGenerate)
	mux.HandleFunc("/api/normalize", s.handleNormalize)
	mux.HandleFunc("/api/icons", s.handleIcons)
	mux.HandleFunc("/api/generations", s.handleGenerations)
	mux.HandleFunc("/api/generations/", s.handleGeneration)
	mux.HandleFunc("/api/diagrams", s.handleDiagrams)
	mux.HandleFunc("/api/diagrams/", s.handleDiagram)
	mux.HandleFunc("/api/usage", s.handleUsage)
	mux.HandleFunc("/api/logs", s.handleLogs)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
}

// writeJSON sends a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response: %v", err)
	}
}

// writeError sends a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleLogs implements GET /api/logs?component=...&since=RFC3339.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	component := query.Get("component")

	var since time.Time
	if sinceStr := query.Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid since parameter (use RFC3339)")
			return
		}
		since = parsed
	}

	entries := logx.RecentEntries(component, since)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"count": len(entries),
	})
}

// handleUsage implements GET /api/usage via the Prometheus query service.
func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.usage == nil {
		s.writeError(w, http.StatusServiceUnavailable, "usage metrics not configured")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	usage, err := s.usage.GetUsage(ctx)
	if err != nil {
		s.logger.Error("Failed to query usage metrics: %v", err)
		s.writeError(w, http.StatusBadGateway, "failed to query usage metrics")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"usage": usage})
}

// notFoundStatus maps persistence lookup errors onto HTTP status codes.
func notFoundStatus(err error) int {
	if errors.Is(err, persistence.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
