// Package metric provides Prometheus metrics for Yedis.
//
//   - prometheus.go: the registry, command and connection metrics, and the
//     /metrics handler
//   - collector.go: a collector reporting storage engine statistics
//
// Metrics are exposed at /metrics on the admin server.
package metric
