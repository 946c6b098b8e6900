// Package connection provides server connections for yedis-cli.
//
//   - client.go: RESP client over TCP or TLS
//   - pool.go: pooled RESP clients for load generation
//   - admin.go: HTTP client for the admin server
package connection
