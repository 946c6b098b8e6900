package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. The server is ready once the storage
// engine answers.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := h.storage.Stats(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		h.writeError(w, r, http.StatusServiceUnavailable, domain.ErrStorageError.Code, "storage not ready", nil)
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
