package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StatusSummaryResponse is the response body for GET /admin/v1/status/summary.
type StatusSummaryResponse struct {
	Status        string    `json:"status"`
	Version       string    `json:"version"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Connections   int       `json:"connections"`
	Keys          uint64    `json:"keys"`
	SizeBytes     uint64    `json:"size_bytes"`
	LastGCAt      time.Time `json:"last_gc_at,omitzero"`
}

// GCTriggerResponse is the response body for POST /admin/v1/gc/trigger.
type GCTriggerResponse struct {
	ReclaimedBytes uint64    `json:"reclaimed_bytes"`
	TriggeredAt    time.Time `json:"triggered_at"`
}
