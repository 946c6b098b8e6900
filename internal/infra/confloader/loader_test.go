package confloader

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Redis struct {
			Addr         string        `koanf:"addr"`
			MaxValueSize int64         `koanf:"max_value_size"`
			IdleTimeout  time.Duration `koanf:"idle_timeout"`
		} `koanf:"redis"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, "TEST_")
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q, want %q", l.filePath, "/path/to/config.yaml")
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: "0.0.0.0:6379"
    max_value_size: 1024
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if addr := l.GetString("server.redis.addr"); addr != "0.0.0.0:6379" {
		t.Errorf("server.redis.addr = %q, want %q", addr, "0.0.0.0:6379")
	}
	if n := l.GetInt("server.redis.max_value_size"); n != 1024 {
		t.Errorf("server.redis.max_value_size = %d, want 1024", n)
	}

	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() of a missing file should fail")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("YEDIS_SERVER_REDIS_ADDR", "127.0.0.1:7000")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if addr := l.GetString("server.redis.addr"); addr != "127.0.0.1:7000" {
		t.Errorf("server.redis.addr = %q, want %q", addr, "127.0.0.1:7000")
	}
}

func TestLoader_EnvKeysWithUnderscores(t *testing.T) {
	t.Setenv("YEDIS_SERVER_REDIS_MAX_VALUE_SIZE", "2048")
	t.Setenv("YEDIS_SERVER_REDIS_IDLE_TIMEOUT", "90s")

	var cfg testConfig
	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Redis.MaxValueSize != 2048 {
		t.Errorf("MaxValueSize = %d, want 2048", cfg.Server.Redis.MaxValueSize)
	}
	if cfg.Server.Redis.IdleTimeout != 90*time.Second {
		t.Errorf("IdleTimeout = %v, want 90s", cfg.Server.Redis.IdleTimeout)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	err := l.LoadMap(map[string]any{
		"server.redis.addr": "localhost:3000",
		"debug":             true,
		"port":              8080,
	})
	if err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if addr := l.GetString("server.redis.addr"); addr != "localhost:3000" {
		t.Errorf("server.redis.addr = %q, want %q", addr, "localhost:3000")
	}
	if !l.GetBool("debug") {
		t.Error("debug should be true")
	}
	if port := l.GetInt("port"); port != 8080 {
		t.Errorf("GetInt(port) = %d, want 8080", port)
	}
	if len(l.Keys()) != 3 || len(l.All()) != 3 {
		t.Errorf("Keys() = %v, want 3 keys", l.Keys())
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  redis:
    addr: "from-file:6379"
log:
  level: warn
`)
	t.Setenv("YEDIS_SERVER_REDIS_ADDR", "from-env:6380")

	var cfg testConfig
	cfg.Log.Level = "info"
	cfg.Server.Redis.MaxValueSize = 99

	l := NewLoader(WithConfigFile(path))
	if l.IsLoaded() {
		t.Error("IsLoaded() should be false before Load()")
	}
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}

	if cfg.Server.Redis.Addr != "from-env:6380" {
		t.Errorf("Addr = %q, want env to override file", cfg.Server.Redis.Addr)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Level = %q, want file to override default", cfg.Log.Level)
	}
	if cfg.Server.Redis.MaxValueSize != 99 {
		t.Errorf("MaxValueSize = %d, want default kept", cfg.Server.Redis.MaxValueSize)
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()
	l.learnKeys(reflect.TypeOf(&testConfig{}), "")

	tests := []struct {
		env  string
		want string
	}{
		{"YEDIS_SERVER_REDIS_ADDR", "server.redis.addr"},
		{"YEDIS_SERVER_REDIS_MAX_VALUE_SIZE", "server.redis.max_value_size"},
		{"YEDIS_LOG_LEVEL", "log.level"},
		{"YEDIS_UNKNOWN_SETTING", "unknown.setting"},
	}
	for _, tt := range tests {
		if got := l.envKey(tt.env); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}
