package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DefaultServer != "127.0.0.1:6379" {
		t.Errorf("DefaultServer = %q, want %q", cfg.DefaultServer, "127.0.0.1:6379")
	}
	if cfg.DefaultOutput != "table" {
		t.Errorf("DefaultOutput = %q, want %q", cfg.DefaultOutput, "table")
	}
	if cfg.Connections == nil || len(cfg.Connections) != 0 {
		t.Errorf("Connections = %v, want empty map", cfg.Connections)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".yedis", "cli.yaml")) {
		t.Errorf("DefaultConfigPath() = %q", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultServer != "127.0.0.1:6379" {
		t.Error("Load() should return defaults for a missing file")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := `
default_output: json
current_connection: prod
connections:
  prod:
    server: redis.example.com:6380
    password: s3cret
    tls: true
    tls_ca: /etc/yedis/ca.pem
    admin: redis.example.com:8080
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DefaultOutput != "json" {
		t.Errorf("DefaultOutput = %q, want json", cfg.DefaultOutput)
	}
	if cfg.DefaultServer != "127.0.0.1:6379" {
		t.Errorf("DefaultServer = %q, want default kept", cfg.DefaultServer)
	}

	active := cfg.Active()
	if active.Server != "redis.example.com:6380" || active.Password != "s3cret" || !active.TLS {
		t.Errorf("Active() = %+v", active)
	}
	if active.TLSCA != "/etc/yedis/ca.pem" || active.Admin != "redis.example.com:8080" {
		t.Errorf("Active() = %+v", active)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "connections: [", "parse cli config"},
		{"unknown profile", "current_connection: staging\n", `"staging" is not defined`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cli.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "cli.yaml")

	cfg := Default()
	cfg.CurrentConnection = "dev"
	cfg.Connections["dev"] = ConnectionConfig{Server: "localhost:7000", Password: "pw"}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded.Active(); got.Server != "localhost:7000" || got.Password != "pw" {
		t.Errorf("Active() = %+v", got)
	}
}

func TestActive(t *testing.T) {
	cfg := Default()
	if got := cfg.Active(); got.Server != cfg.DefaultServer {
		t.Errorf("Active() without profile = %+v", got)
	}

	cfg.Connections["tls"] = ConnectionConfig{TLS: true}
	cfg.CurrentConnection = "tls"
	if got := cfg.Active(); got.Server != cfg.DefaultServer || !got.TLS {
		t.Errorf("Active() should fill the server from DefaultServer, got %+v", got)
	}
}
