// Package tests holds end-to-end tests that run the Redis server, the
// executor and the admin router over a Badger engine on disk.
package tests

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/yedis-go/internal/cli/connection"
	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/server/httpserver"
	"github.com/yndnr/yedis-go/internal/server/redisserver"
	"github.com/yndnr/yedis-go/internal/storage"
	"github.com/yndnr/yedis-go/internal/telemetry/metric"
)

// node is one running server stack.
type node struct {
	engine   storage.KVEngine
	executor *service.Executor
	server   *redisserver.Server
	admin    *httptest.Server
	metrics  *metric.Registry
	wg       sync.WaitGroup
}

func startNode(t *testing.T, dir string) *node {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	engine, err := storage.Open(storage.DefaultKVConfig(dir), logger)
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}

	n := &node{engine: engine, metrics: metric.NewRegistry()}
	n.metrics.Registerer().MustRegister(metric.NewCollector(engine))

	n.executor = service.NewExecutor(engine, &service.ExecutorConfig{
		SweepInterval: 20 * time.Millisecond,
		Logger:        logger,
	})
	n.executor.Start()

	n.server = redisserver.New(redisserver.DefaultConfig(), n.executor,
		redisserver.WithMetrics(n.metrics),
		redisserver.WithLogger(logger),
	)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.server.Serve(context.Background(), ln)
	}()

	n.admin = httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Storage:     engine,
		Connections: n.server,
		Metrics:     n.metrics,
		Logger:      logger,
	}))
	return n
}

func (n *node) stop(t *testing.T) {
	t.Helper()
	n.admin.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := n.server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	n.wg.Wait()
	n.executor.Stop()
	if err := n.engine.Close(); err != nil {
		t.Errorf("engine Close() error = %v", err)
	}
}

func (n *node) dial(t *testing.T) *connection.Client {
	t.Helper()
	c, err := connection.Dial(context.Background(), connection.Options{Addr: n.server.Addr().String()})
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func do(t *testing.T, c *connection.Client, want string, args ...string) {
	t.Helper()
	reply, err := c.DoStrings(args...)
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	if got := reply.String(); got != want {
		t.Errorf("%v = %q, want %q", args, got, want)
	}
}

func TestServer_EndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dir := t.TempDir()
	n := startNode(t, dir)
	c := n.dial(t)

	do(t, c, "OK", "SET", "greeting", "hello")
	do(t, c, "(integer) 10", "APPEND", "greeting", "world")
	do(t, c, "(integer) 1", "HSET", "h", "a", "1")
	do(t, c, "OK", "HMSET", "h", "b", "2", "c", "3")
	do(t, c, "(integer) 3", "ZADD", "z", "3", "c", "1", "a", "2", "b")
	do(t, c, "1) \"c\"\n2) \"b\"", "ZREVRANGE", "z", "0", "1")
	do(t, c, "OK", "TSADD", "ts", "100", "x", "200", "y", "300", "z")
	do(t, c, "1) \"300\"\n2) \"z\"", "TSLASTN", "ts", "1")
	do(t, c, "OK", "SET", "ephemeral", "v", "PX", "30")
	do(t, c, "(error) WRONGTYPE Operation against a key holding the wrong kind of value", "GET", "h")

	time.Sleep(100 * time.Millisecond)
	do(t, c, "(nil)", "GET", "ephemeral")

	var status struct {
		Connections int `json:"connections"`
	}
	admin := connection.NewAdminClient(n.admin.URL)
	if err := admin.Get(context.Background(), "/admin/v1/status/summary", &status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Connections != 1 {
		t.Errorf("connections = %d, want 1", status.Connections)
	}

	res, err := http.Get(n.admin.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	for _, want := range []string{
		`yedis_commands_total{command="set",result="ok"} 2`,
		`yedis_commands_total{command="get",result="error"} 1`,
		"yedis_storage_keys",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("/metrics is missing %q", want)
		}
	}

	n.stop(t)

	// Everything but the expired key survives a restart.
	n = startNode(t, dir)
	defer n.stop(t)
	c = n.dial(t)

	do(t, c, `"helloworld"`, "GET", "greeting")
	do(t, c, "1) \"1\"\n2) \"2\"\n3) \"3\"", "HMGET", "h", "a", "b", "c")
	do(t, c, "1) \"a\"\n2) \"1\"", "ZRANGEBYSCORE", "z", "-inf", "(2", "WITHSCORES")
	do(t, c, `"y"`, "TSGET", "ts", "200")
	do(t, c, "(integer) 0", "EXISTS", "ephemeral")
}

func TestServer_ConcurrentClients(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	n := startNode(t, t.TempDir())
	defer n.stop(t)

	ctx := context.Background()
	pool := connection.NewPool(ctx, connection.Options{Addr: n.server.Addr().String()}, 8)
	defer pool.Close(ctx)

	const workers, perWorker = 8, 250
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c, err := pool.Borrow(ctx)
				if err != nil {
					errs <- err
					return
				}
				reply, err := c.DoStrings("INCR", "counter")
				if err != nil {
					pool.Invalidate(ctx, c)
					errs <- err
					return
				}
				pool.Return(ctx, c)
				if err := reply.Err(); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("INCR: %v", err)
	}

	do(t, n.dial(t), `"2000"`, "GET", "counter")
}
