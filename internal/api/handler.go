// Package api provides shared HTTP handler utilities for the Jarvis API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jarvislab/jarvis/internal/config"
	"github.com/jarvislab/jarvis/internal/gateway"
	"github.com/jarvislab/jarvis/internal/store"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// ServiceError maps a failure from an AI-backed operation onto the HTTP
// taxonomy: 429 for rate limits, 402 for exhausted credits, 502 with the
// server-supplied reason for other gateway failures.
func ServiceError(w http.ResponseWriter, err error) {
	var ge *gateway.GatewayError
	switch {
	case errors.Is(err, gateway.ErrRateLimited):
		errors.As(err, &ge)
		Error(w, http.StatusTooManyRequests, ge.Message)
	case errors.Is(err, gateway.ErrQuotaExhausted):
		errors.As(err, &ge)
		Error(w, http.StatusPaymentRequired, ge.Message)
	case errors.As(err, &ge):
		Error(w, http.StatusBadGateway, ge.Message)
	default:
		slog.Error("Service call failed", "error", err)
		Error(w, http.StatusBadGateway, "The assistant service failed to respond. Please try again.")
	}
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo store.Repository
	cfg  *config.Config
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, cfg *config.Config) *HealthHandler {
	return &HealthHandler{repo: repo, cfg: cfg}
}

// Health returns the health status of the API and its dependencies.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	healthCheckTimeout := 5 * time.Second
	if h.cfg != nil {
		healthCheckTimeout = h.cfg.Timeout.HealthCheck
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "ok",
	})
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/healthz", h.Health)
}
