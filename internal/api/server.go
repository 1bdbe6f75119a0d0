// Package api provides the HTTP server for the attest node. It exposes
// the protocol state (commitments, agent stats, review queue), accepts
// failure reports, and streams protocol events over SSE.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/attest-network/attest/internal/app/commitment"
	"github.com/attest-network/attest/internal/app/failure"
	"github.com/attest-network/attest/internal/app/protocol"
	"github.com/attest-network/attest/internal/app/review"
	"github.com/attest-network/attest/internal/domain"
	"github.com/attest-network/attest/internal/health"
)

// Server is the attest HTTP API server.
type Server struct {
	coordinator    *protocol.Coordinator
	commitments    *commitment.Manager
	tracker        *failure.Tracker
	queue          *review.Queue
	hub            *EventHub
	checker        *health.Checker
	metricsEnabled bool
}

// NewServer creates a new API server over the protocol components.
func NewServer(c *protocol.Coordinator, cm *commitment.Manager, tr *failure.Tracker, q *review.Queue) *Server {
	return &Server{
		coordinator: c,
		commitments: cm,
		tracker:     tr,
		queue:       q,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetEventHub sets the SSE hub serving /api/events.
func (s *Server) SetEventHub(h *EventHub) { s.hub = h }

// SetHealthChecker sets the checker backing /health.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/commitments/{jobID}", s.handleGetCommitment)
		r.Get("/agents/{address}/stats", s.handleAgentStats)
		r.Get("/review", s.handleReviewQueue)
		r.Post("/review/{jobID}/resolve", s.handleResolveReview)
		r.Post("/failures", s.handleReportFailure)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Live protocol event feed
	if s.hub != nil {
		r.Get("/api/events", s.hub.HandleEventsSSE)
	}

	return r
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := http.StatusOK
	state := "ok"
	if !s.checker.IsHealthy() {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status": state,
		"checks": s.checker.Statuses(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"commitments":     s.commitments.Count(),
		"pending_reviews": s.queue.Pending(),
	})
}

func (s *Server) handleGetCommitment(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	c, ok := s.commitments.ByJob(jobID)
	if !ok {
		writeError(w, http.StatusNotFound, domain.ErrCommitmentNotFound.Error())
		return
	}

	resp := map[string]any{"commitment": c}
	if flow, ok := s.commitments.Flow(jobID); ok {
		resp["phase"] = flow.Phase
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAgentStats(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	writeJSON(w, http.StatusOK, s.tracker.Stats(address))
}

func (s *Server) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"items": s.queue.Items(),
	})
}

func (s *Server) handleResolveReview(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	var req struct {
		Resolution string `json:"resolution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Resolution == "" {
		writeError(w, http.StatusBadRequest, "resolution is required")
		return
	}

	if err := s.coordinator.ResolveReview(jobID, req.Resolution); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleReportFailure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID        string `json:"job_id"`
		AgentAddress string `json:"agent_address"`
		ErrorType    string `json:"error_type"`
		ErrorCode    int    `json:"error_code"`
		Message      string `json:"message"`
		Attempt      int    `json:"attempt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.JobID == "" || req.AgentAddress == "" || req.ErrorType == "" {
		writeError(w, http.StatusBadRequest, "job_id, agent_address, and error_type are required")
		return
	}
	if req.Attempt < 1 {
		req.Attempt = 1
	}

	decision := s.coordinator.HandleFailure(
		req.JobID, req.AgentAddress,
		domain.ErrorType(req.ErrorType), req.ErrorCode,
		req.Message, req.Attempt,
	)
	writeJSON(w, http.StatusOK, decision)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
