// Package httpserver provides the HTTP admin server for Yedis.
//
// It serves operational endpoints next to the Redis listener:
//
//   - /health, /ready: liveness and storage readiness
//   - /version: build information
//   - /metrics: Prometheus exposition
//   - /admin/v1/*: status summary and storage GC, optionally restricted
//     by an IP allowlist
//
// Every route runs behind the RequestID and Recover middleware.
package httpserver
