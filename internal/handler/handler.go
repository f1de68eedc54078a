// Package handler provides HTTP handlers for the storefront state API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/effects"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	sessions *store.Registry
	effects  *effects.Runner
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithGatherer serves /metrics from g instead of the default Prometheus registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// New creates a new Handler over the session registry and effects runner.
func New(sessions *store.Registry, runner *effects.Runner, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		effects:  runner,
		gatherer: prometheus.DefaultGatherer,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Session routes read the tracker header
	tracked := func(fn http.HandlerFunc) http.Handler {
		return middleware.Tracker(h.logger)(fn)
	}

	mux.Handle("POST /sessions", tracked(h.handleCreateSession))
	mux.Handle("GET /sessions/{id}/state", tracked(h.handleGetState))
	mux.Handle("GET /sessions/{id}/cart", tracked(h.handleGetCart))
	mux.Handle("POST /sessions/{id}/actions", tracked(h.handleDispatch))
	mux.Handle("POST /sessions/{id}/cart/sync", tracked(h.handleSyncCart))
	mux.Handle("POST /sessions/{id}/navigations/refresh", tracked(h.handleRefreshNavigations))

	// MCP transport - JSON-RPC endpoint using official MCP SDK
	mux.Handle("/mcp", h.NewMCPHandler())

	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Sessions: h.sessions.Len()})
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
// The body is encoded before the status is written so an unencodable value
// becomes a 500 rather than an empty success.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: errorBody{
			Code:    "INTERNAL_ERROR",
			Message: "an internal error occurred",
		}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// writeError sends an error response, extracting status/code from APIError if present.
// Uses errors.As() to unwrap error chains (e.g., fmt.Errorf wrapping).
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError

	if !errors.As(err, &apiErr) {
		// Wrap unexpected errors
		apiErr = &model.APIError{
			Code:       "INTERNAL_ERROR",
			Message:    "an internal error occurred",
			StatusCode: http.StatusInternalServerError,
		}
		h.logger.Error("internal error", slog.String("error", err.Error()))
	}

	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB to prevent DoS.
const MaxRequestBodySize = 1 << 20 // 1MB
