// Package main provides the entry point for yedis-server.
//
// yedis-server speaks the Redis protocol over TCP (optionally TLS) and
// stores data in Badger or in memory. An HTTP admin server exposes health,
// version and Prometheus metrics.
//
// Usage:
//
//	yedis-server -config /etc/yedis/yedis.yaml
//	yedis-server -env-file .env
//	yedis-server -version
//
// Every config key can be overridden with a YEDIS_ environment variable,
// for example YEDIS_SERVER_REDIS_ADDR=0.0.0.0:6379.
package main
