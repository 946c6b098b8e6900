package command

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yndnr/yedis-go/internal/server/httpserver"
	"github.com/yndnr/yedis-go/internal/storage"
)

type fixedConns int

func (f fixedConns) ConnCount() int { return int(f) }

// startAdmin serves the admin router over a memory engine holding one key.
func startAdmin(t *testing.T, allow ...string) string {
	t.Helper()

	engine := storage.NewMemoryEngine()
	if err := engine.Set(context.Background(), []byte("k"), []byte("value")); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Storage:        engine,
		Connections:    fixedConns(2),
		AdminAllowList: allow,
	}))
	t.Cleanup(func() {
		srv.Close()
		engine.Close()
	})
	return srv.URL
}

func TestSystemStatus(t *testing.T) {
	admin := startAdmin(t)

	res := runApp(t, "", "--admin", admin, "-o", "json", "system", "status")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	var got StatusSummary
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("stdout %q: %v", res.stdout, err)
	}
	if got.Status != "running" || got.Keys != 1 || got.Connections != 2 {
		t.Errorf("status = %+v", got)
	}

	res = runApp(t, "", "--admin", admin, "sys", "status")
	if !strings.HasPrefix(res.stdout, "FIELD") || !strings.Contains(res.stdout, "connections") {
		t.Errorf("table output = %q", res.stdout)
	}
}

func TestSystemHealth(t *testing.T) {
	admin := startAdmin(t)

	res := runApp(t, "", "--admin", admin, "system", "health")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "Server is healthy") || !strings.Contains(res.stdout, admin) {
		t.Errorf("stdout = %q", res.stdout)
	}

	res = runApp(t, "", "--admin", admin, "-o", "yaml", "system", "health")
	if !strings.HasPrefix(res.stdout, "status: healthy\n") {
		t.Errorf("yaml output = %q", res.stdout)
	}
}

func TestSystemHealth_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"OK","message":"Success","data":{"status":"degraded"}}`))
	}))
	defer srv.Close()

	res := runApp(t, "", "--admin", srv.URL, "system", "health")
	if res.exitCode() != 1 || !strings.Contains(res.stdout, "unhealthy: degraded") {
		t.Errorf("stdout = %q, code = %d", res.stdout, res.exitCode())
	}

	res = runApp(t, "", "--admin", "127.0.0.1:1", "system", "health")
	if res.exitCode() != 1 || !strings.Contains(res.err.Error(), "health check failed") {
		t.Errorf("unreachable: err = %v", res.err)
	}
}

func TestSystemGC(t *testing.T) {
	admin := startAdmin(t)

	res := runApp(t, "", "--admin", admin, "-o", "json", "system", "gc")
	if res.err != nil {
		t.Fatalf("Run() error = %v", res.err)
	}
	var got GCResult
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("stdout %q: %v", res.stdout, err)
	}
	if got.TriggeredAt.IsZero() {
		t.Errorf("gc = %+v", got)
	}
}

func TestSystem_Errors(t *testing.T) {
	clearEnv(t)
	if res := runApp(t, "", "system", "status"); res.exitCode() != 2 {
		t.Errorf("missing --admin: exit code = %d, want 2", res.exitCode())
	}

	admin := startAdmin(t, "10.1.2.3/32")
	res := runApp(t, "", "--admin", admin, "system", "gc")
	if res.err == nil || !strings.Contains(res.err.Error(), "YD-SYS-4030") {
		t.Errorf("forbidden: err = %v", res.err)
	}
}
