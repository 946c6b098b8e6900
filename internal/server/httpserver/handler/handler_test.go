package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/infra/buildinfo"
	"github.com/yndnr/yedis-go/internal/storage"
	"github.com/yndnr/yedis-go/internal/telemetry/logger"
)

type fixedConns int

func (c fixedConns) ConnCount() int { return int(c) }

// failingStorage answers GC with an error.
type failingStorage struct {
	*storage.MemoryEngine
}

func (failingStorage) GC(context.Context) (uint64, error) {
	return 0, errors.New("value log busy")
}

func testHandler(t *testing.T) (*Handler, *storage.MemoryEngine) {
	t.Helper()
	engine := storage.NewMemoryEngine()
	t.Cleanup(func() { engine.Close() })
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return New(engine, fixedConns(3), log), engine
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(logger.WithRequestID(req.Context(), "req-test"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// ============================================================================
// Health
// ============================================================================

func TestHandler_Health(t *testing.T) {
	h, _ := testHandler(t)

	rec := serve(h, "GET", "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Code != "OK" {
		t.Errorf("expected code 'OK', got '%s'", resp.Code)
	}
	if resp.RequestID != "req-test" {
		t.Errorf("expected request_id 'req-test', got '%s'", resp.RequestID)
	}
	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}
	if data["status"] != "healthy" {
		t.Errorf("expected status 'healthy', got '%v'", data["status"])
	}
}

func TestHandler_Ready(t *testing.T) {
	h, engine := testHandler(t)

	if rec := serve(h, "GET", "/ready"); rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	engine.Close()
	rec := serve(h, "GET", "/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 after close, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Error-Code"); got != domain.ErrStorageError.Code {
		t.Errorf("X-Error-Code = %q, want %q", got, domain.ErrStorageError.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h, _ := testHandler(t)
	if rec := serve(h, "POST", "/health"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

// ============================================================================
// Version & admin
// ============================================================================

func TestHandler_Version(t *testing.T) {
	h, _ := testHandler(t)

	rec := serve(h, "GET", "/version")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Data buildinfo.Info `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data != buildinfo.Get() {
		t.Errorf("version data = %+v, want %+v", resp.Data, buildinfo.Get())
	}
}

func TestHandler_AdminStatus(t *testing.T) {
	h, engine := testHandler(t)
	engine.Set(context.Background(), []byte("k1"), []byte("v1"))
	engine.Set(context.Background(), []byte("k2"), []byte("value"))

	rec := serve(h, "GET", "/admin/v1/status/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Data StatusSummaryResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Status != "running" {
		t.Errorf("status = %q, want running", resp.Data.Status)
	}
	if resp.Data.Keys != 2 {
		t.Errorf("keys = %d, want 2", resp.Data.Keys)
	}
	if resp.Data.SizeBytes != 11 {
		t.Errorf("size_bytes = %d, want 11", resp.Data.SizeBytes)
	}
	if resp.Data.Connections != 3 {
		t.Errorf("connections = %d, want 3", resp.Data.Connections)
	}
}

func TestHandler_GCTrigger(t *testing.T) {
	h, _ := testHandler(t)

	rec := serve(h, "POST", "/admin/v1/gc/trigger")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp struct {
		Data GCTriggerResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.TriggeredAt.IsZero() {
		t.Error("triggered_at should be set")
	}
}

func TestHandler_GCTrigger_Error(t *testing.T) {
	engine := storage.NewMemoryEngine()
	defer engine.Close()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	h := New(failingStorage{engine}, nil, log)

	rec := serve(h, "POST", "/admin/v1/gc/trigger")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Code != domain.ErrStorageError.Code {
		t.Errorf("code = %q, want %q", resp.Code, domain.ErrStorageError.Code)
	}
}

// ============================================================================
// Errors
// ============================================================================

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.ErrUnknownCommand.Code, http.StatusNotFound},
		{domain.ErrRateLimited.Code, http.StatusTooManyRequests},
		{domain.ErrAuthRequired.Code, http.StatusUnauthorized},
		{domain.ErrInvalidPassword.Code, http.StatusUnauthorized},
		{domain.ErrForbidden.Code, http.StatusForbidden},
		{domain.ErrInvalidArgument.Code, http.StatusBadRequest},
		{domain.ErrWrongType.Code, http.StatusBadRequest},
		{domain.ErrStorageError.Code, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := errorCodeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("errorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
