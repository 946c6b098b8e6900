package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/yedis-go/internal/server/config"
	"github.com/yndnr/yedis-go/internal/telemetry/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yedis.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: 127.0.0.1:7000
    idle_timeout: 30s
storage:
  engine: memory
log:
  level: warn
`)
	t.Setenv("YEDIS_SERVER_REDIS_MAX_CONNECTIONS", "42")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Server.Redis.Addr != "127.0.0.1:7000" {
		t.Errorf("Addr = %q", cfg.Server.Redis.Addr)
	}
	if cfg.Server.Redis.IdleTimeout != 30*time.Second {
		t.Errorf("IdleTimeout = %v", cfg.Server.Redis.IdleTimeout)
	}
	if cfg.Server.Redis.MaxConnections != 42 {
		t.Errorf("MaxConnections = %d, want 42 from env", cfg.Server.Redis.MaxConnections)
	}
	if cfg.Server.Admin.Addr != config.DefaultAdminAddr {
		t.Errorf("Admin.Addr = %q, want default", cfg.Server.Admin.Addr)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
storage:
  engine: memory
log:
  format: xml
`)
	if _, err := loadConfig(path); err == nil {
		t.Fatal("loadConfig() should reject log.format xml")
	}
}

func TestRedisConfig(t *testing.T) {
	c := config.Default().Server.Redis
	c.RateLimit = 100
	c.RateLimitBurst = 20

	got := redisConfig(&c)
	if got.Addr != c.Addr || got.MaxBufferSize != c.MaxBufferSize || got.MaxInlineLen != c.MaxInlineLen {
		t.Errorf("redisConfig() = %+v", got)
	}
	if got.RateLimit != 100 || got.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%d", got.RateLimit, got.RateLimitBurst)
	}
	if got.TLSConfig != nil {
		t.Error("TLSConfig should be set only by initTLS")
	}
}

func TestReloadLogLevel(t *testing.T) {
	defer logger.SetLevel(logger.GetLevel())

	path := writeConfig(t, "storage:\n  engine: memory\nlog:\n  level: debug\n")
	if err := reloadLogLevel(path); err != nil {
		t.Fatalf("reloadLogLevel() error = %v", err)
	}
	if got := logger.GetLevel(); got != "debug" {
		t.Errorf("level = %q, want debug", got)
	}
}
