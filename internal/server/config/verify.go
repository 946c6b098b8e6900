package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/storage"
	"github.com/yndnr/yedis-go/internal/telemetry/logger"
)

// Verify validates the configuration. It creates the data directory of the
// badger engine if it does not exist.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if cfg.Security.RequirePass != "" {
		if _, err := service.NewAuthService(cfg.Security.RequirePass); err != nil {
			return fmt.Errorf("security.requirepass: %w", err)
		}
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format: must be json or text, got %q", cfg.Log.Format)
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	r := &cfg.Redis
	if err := verifyAddr("server.redis.addr", r.Addr); err != nil {
		return err
	}
	if cfg.Admin.Addr != "" {
		if err := verifyAddr("server.admin.addr", cfg.Admin.Addr); err != nil {
			return err
		}
		if cfg.Admin.Addr == r.Addr {
			return errors.New("server.admin.addr must differ from server.redis.addr")
		}
	}
	for _, entry := range cfg.Admin.AllowList {
		if !validACLEntry(entry) {
			return fmt.Errorf("server.admin.allow_list: invalid IP or CIDR %q", entry)
		}
	}

	if (r.TLSCertFile == "") != (r.TLSKeyFile == "") {
		return errors.New("server.redis.tls_cert_file and tls_key_file must be set together")
	}
	if r.TLSClientCAFile != "" && !r.TLSEnabled() {
		return errors.New("server.redis.tls_client_ca_file requires tls_cert_file and tls_key_file")
	}
	for _, f := range []struct{ name, path string }{
		{"server.redis.tls_cert_file", r.TLSCertFile},
		{"server.redis.tls_key_file", r.TLSKeyFile},
		{"server.redis.tls_client_ca_file", r.TLSClientCAFile},
	} {
		if f.path == "" {
			continue
		}
		if _, err := os.Stat(f.path); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}

	if r.IdleTimeout < 0 || r.WriteTimeout < 0 {
		return errors.New("server.redis timeouts must not be negative")
	}
	if r.MaxConnections < 1 {
		return errors.New("server.redis.max_connections must be at least 1")
	}
	if r.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if r.RateLimit > 0 && r.RateLimitBurst < 1 {
		return errors.New("server.redis.rate_limit_burst must be at least 1 when rate_limit is set")
	}
	if r.MaxValueSize < 1 {
		return errors.New("server.redis.max_value_size must be positive")
	}
	if r.MaxInlineLen < 16 {
		return errors.New("server.redis.max_inline_len must be at least 16")
	}
	if int64(r.MaxBufferSize) <= r.MaxValueSize {
		return errors.New("server.redis.max_buffer_size must exceed max_value_size")
	}
	return nil
}

func verifyAddr(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", name)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.LockStripes < 1 {
		return errors.New("storage.lock_stripes must be at least 1")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("storage.sweep_interval must not be negative")
	}

	switch cfg.Engine {
	case storage.EngineMemory:
		return nil
	case storage.EngineBadger:
	default:
		return fmt.Errorf("storage.engine: must be %s or %s, got %q", storage.EngineBadger, storage.EngineMemory, cfg.Engine)
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return fmt.Errorf("cannot create data directory: %w", err)
	}
	if cfg.Badger.GCInterval != "" {
		if _, err := time.ParseDuration(cfg.Badger.GCInterval); err != nil {
			return fmt.Errorf("storage.badger.gc_interval: %w", err)
		}
	}
	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
		return errors.New("storage.badger.gc_threshold must be between 0 and 1")
	}
	return nil
}

func validACLEntry(entry string) bool {
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}
