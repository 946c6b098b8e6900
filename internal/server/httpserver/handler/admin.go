package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/infra/buildinfo"
)

// handleVersion handles GET /version.
func (h *Handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, buildinfo.Get())
}

// handleAdminStatus handles GET /admin/v1/status/summary.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.storage.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, domain.ErrStorageError.Wrap(err))
		return
	}

	resp := StatusSummaryResponse{
		Status:        "running",
		Version:       buildinfo.Get().Version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Keys:          stats.TotalKeys,
		SizeBytes:     stats.TotalSize,
	}
	if stats.LastGCTime > 0 {
		resp.LastGCAt = time.UnixMilli(stats.LastGCTime).UTC()
	}
	if h.conns != nil {
		resp.Connections = h.conns.ConnCount()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleGCTrigger handles POST /admin/v1/gc/trigger.
func (h *Handler) handleGCTrigger(w http.ResponseWriter, r *http.Request) {
	reclaimed, err := h.storage.GC(r.Context())
	if err != nil {
		h.handleServiceError(w, r, domain.ErrStorageError.Wrap(err))
		return
	}

	h.logger.Info("storage gc triggered", "request_id", getRequestID(r), "reclaimed_bytes", reclaimed)
	h.writeJSON(w, r, http.StatusOK, GCTriggerResponse{
		ReclaimedBytes: reclaimed,
		TriggeredAt:    time.Now().UTC(),
	})
}
