// Package config defines the yedis-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: default values
//   - verify.go: validation (addresses, TLS files, sizes, engine)
//   - sanitize.go: masking of secrets for logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and YEDIS_* environment variables.
package config
