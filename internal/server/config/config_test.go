package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/infra/confloader"
	"github.com/yndnr/yedis-go/internal/storage"
)

func testConfig(t *testing.T) *ServerConfig {
	t.Helper()
	cfg := Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	return cfg
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Redis.Addr != DefaultRedisAddr {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Server.Redis.Addr, DefaultRedisAddr)
	}
	if cfg.Server.Admin.Addr != DefaultAdminAddr {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Server.Admin.Addr, DefaultAdminAddr)
	}
	if cfg.Server.Redis.TLSEnabled() {
		t.Error("TLS should be disabled by default")
	}
	if cfg.Storage.Engine != storage.EngineBadger {
		t.Errorf("Engine = %q, want %q", cfg.Storage.Engine, storage.EngineBadger)
	}
	if cfg.Security.RequirePass != "" {
		t.Error("AUTH should be disabled by default")
	}
	if cfg.Log.Level != DefaultLogLevel || cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestVerify_Default(t *testing.T) {
	cfg := testConfig(t)
	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := os.Stat(cfg.Storage.DataDir); err != nil {
		t.Errorf("data dir was not created: %v", err)
	}
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"empty redis addr", func(c *ServerConfig) { c.Server.Redis.Addr = "" }, "server.redis.addr is required"},
		{"bad redis addr", func(c *ServerConfig) { c.Server.Redis.Addr = "localhost" }, "server.redis.addr"},
		{"admin same as redis", func(c *ServerConfig) { c.Server.Admin.Addr = c.Server.Redis.Addr }, "must differ"},
		{"bad allow list", func(c *ServerConfig) { c.Server.Admin.AllowList = []string{"10.0.0.0/33"} }, "allow_list"},
		{"cert without key", func(c *ServerConfig) { c.Server.Redis.TLSCertFile = "/tmp/x.crt" }, "set together"},
		{"client ca without tls", func(c *ServerConfig) { c.Server.Redis.TLSClientCAFile = "/tmp/ca.crt" }, "requires"},
		{"missing cert file", func(c *ServerConfig) {
			c.Server.Redis.TLSCertFile = "/nonexistent/x.crt"
			c.Server.Redis.TLSKeyFile = "/nonexistent/x.key"
		}, "tls_cert_file"},
		{"negative timeout", func(c *ServerConfig) { c.Server.Redis.IdleTimeout = -time.Second }, "timeouts"},
		{"zero connections", func(c *ServerConfig) { c.Server.Redis.MaxConnections = 0 }, "max_connections"},
		{"negative rate", func(c *ServerConfig) { c.Server.Redis.RateLimit = -1 }, "rate_limit"},
		{"rate without burst", func(c *ServerConfig) { c.Server.Redis.RateLimit = 10 }, "rate_limit_burst"},
		{"zero value size", func(c *ServerConfig) { c.Server.Redis.MaxValueSize = 0 }, "max_value_size"},
		{"tiny inline", func(c *ServerConfig) { c.Server.Redis.MaxInlineLen = 4 }, "max_inline_len"},
		{"buffer below value", func(c *ServerConfig) { c.Server.Redis.MaxBufferSize = 1024 }, "max_buffer_size"},
		{"unknown engine", func(c *ServerConfig) { c.Storage.Engine = "rocks" }, "storage.engine"},
		{"no data dir", func(c *ServerConfig) { c.Storage.DataDir = "" }, "data_dir"},
		{"no stripes", func(c *ServerConfig) { c.Storage.LockStripes = 0 }, "lock_stripes"},
		{"bad gc interval", func(c *ServerConfig) { c.Storage.Badger.GCInterval = "often" }, "gc_interval"},
		{"bad gc threshold", func(c *ServerConfig) { c.Storage.Badger.GCThreshold = 1.5 }, "gc_threshold"},
		{"plain requirepass", func(c *ServerConfig) { c.Security.RequirePass = "hunter2" }, "security.requirepass"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_MemoryEngineNeedsNoDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Engine = storage.EngineMemory
	cfg.Storage.DataDir = ""
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestVerify_RequirePassHash(t *testing.T) {
	hash, err := service.HashPassword("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.Security.RequirePass = hash
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	const hash = "$argon2id$v=19$m=16384,t=2,p=2$c2FsdA$aGFzaA"
	cfg := &ServerConfig{Security: SecuritySection{RequirePass: hash}}

	sanitized := Sanitize(cfg)
	if cfg.Security.RequirePass != hash {
		t.Error("original config should not be modified")
	}
	masked := sanitized.Security.RequirePass
	if masked == hash || len(masked) != len(hash) {
		t.Errorf("masked = %q", masked)
	}
	if !strings.HasPrefix(masked, "$a") || !strings.HasSuffix(masked, "hA") {
		t.Errorf("masked = %q, want first and last two characters kept", masked)
	}

	if got := Sanitize(&ServerConfig{}).Security.RequirePass; got != "" {
		t.Errorf("empty secret masked to %q", got)
	}
	if got := maskSecret("abc"); got != "****" {
		t.Errorf("maskSecret(short) = %q", got)
	}
}

func TestStorageSection_KVConfig(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = "/data"
	cfg.Storage.Badger.SyncWrites = true
	cfg.Storage.Badger.CacheSize = 1 << 20

	kv := cfg.Storage.KVConfig()
	if kv.Engine != storage.EngineBadger || kv.Dir != "/data" {
		t.Errorf("KVConfig() = %+v", kv)
	}
	if !kv.Badger.SyncWrites || kv.Badger.CacheSize != 1<<20 {
		t.Errorf("badger settings not carried: %+v", kv.Badger)
	}
	if kv.Badger.NumMemtables != storage.DefaultBadgerConfig().NumMemtables {
		t.Error("untuned badger settings should keep their defaults")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yedis.yaml")
	content := `
server:
  redis:
    addr: "0.0.0.0:7379"
    idle_timeout: 30s
storage:
  engine: memory
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("YEDIS_SERVER_REDIS_MAX_VALUE_SIZE", "1048576")
	t.Setenv("YEDIS_LOG_FORMAT", "text")

	cfg := Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Redis.Addr != "0.0.0.0:7379" {
		t.Errorf("Addr = %q", cfg.Server.Redis.Addr)
	}
	if cfg.Server.Redis.IdleTimeout != 30*time.Second {
		t.Errorf("IdleTimeout = %v", cfg.Server.Redis.IdleTimeout)
	}
	if cfg.Server.Redis.MaxValueSize != 1<<20 {
		t.Errorf("MaxValueSize = %d", cfg.Server.Redis.MaxValueSize)
	}
	if cfg.Server.Redis.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("WriteTimeout = %v, want default", cfg.Server.Redis.WriteTimeout)
	}
	if cfg.Storage.Engine != storage.EngineMemory || cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("cfg = %+v", cfg)
	}
}
