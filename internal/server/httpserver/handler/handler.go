package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/storage"
	"github.com/yndnr/yedis-go/internal/telemetry/logger"
)

// Storage is the part of the storage engine the admin endpoints use.
type Storage interface {
	Stats(ctx context.Context) (*storage.KVStats, error)
	GC(ctx context.Context) (uint64, error)
}

// ConnCounter reports the number of open client connections.
type ConnCounter interface {
	ConnCount() int
}

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	storage Storage
	conns   ConnCounter
	logger  *slog.Logger
	started time.Time
	mux     *http.ServeMux
}

// New creates a new Handler. conns may be nil.
func New(store Storage, conns ConnCounter, logger *slog.Logger) *Handler {
	h := &Handler{
		storage: store,
		conns:   conns,
		logger:  logger,
		started: time.Now(),
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
	h.mux.HandleFunc("GET /version", h.handleVersion)

	h.mux.HandleFunc("GET /admin/v1/status/summary", h.handleAdminStatus)
	h.mux.HandleFunc("POST /admin/v1/gc/trigger", h.handleGCTrigger)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	response := NewResponse(getRequestID(r), data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	response := NewErrorResponse(getRequestID(r), code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func getRequestID(r *http.Request) string {
	return logger.RequestIDFromContext(r.Context())
}

// handleServiceError converts service errors to HTTP responses.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		if status >= 500 {
			h.logger.Error("request failed", "request_id", getRequestID(r), "error", err)
		}
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	h.logger.Error("internal error", "request_id", getRequestID(r), "error", err)
	h.writeError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message, nil)
}

// errorCodeToHTTPStatus maps error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.HasSuffix(code, "-4040"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "-4290"):
		return http.StatusTooManyRequests
	case strings.HasSuffix(code, "-4010"), strings.HasSuffix(code, "-4011"), strings.HasSuffix(code, "-4012"):
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "-4030"):
		return http.StatusForbidden
	case strings.HasPrefix(code, "YD-CMD-4"), strings.HasPrefix(code, "YD-DATA-4"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
