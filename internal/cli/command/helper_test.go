package command

import (
	"bytes"
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/server/redisserver"
	"github.com/yndnr/yedis-go/internal/storage"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// exitCode returns the exit code of the run, 0 on success and -1 for
// errors that carry no code.
func (r result) exitCode() int {
	if r.err == nil {
		return 0
	}
	var ec cli.ExitCoder
	if errors.As(r.err, &ec) {
		return ec.ExitCode()
	}
	return -1
}

// runApp runs yedis-cli with args, reading stdin from input. The CLI
// configuration file defaults to a missing file in a temporary directory.
func runApp(t *testing.T, input string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(input)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"yedis-cli"}
	if !hasFlag(args, "--config") {
		full = append(full, "--config", filepath.Join(t.TempDir(), "cli.yaml"))
	}
	full = append(full, args...)

	err := app.RunContext(context.Background(), full)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

// startServer runs a Redis server on a random port backed by a memory
// engine. A non-empty password enables AUTH.
func startServer(t *testing.T, password string) string {
	t.Helper()

	engine := storage.NewMemoryEngine()
	var opts []redisserver.Option
	if password != "" {
		hash, err := service.HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword() error = %v", err)
		}
		auth, err := service.NewAuthService(hash)
		if err != nil {
			t.Fatalf("NewAuthService() error = %v", err)
		}
		opts = append(opts, redisserver.WithAuth(auth))
	}
	srv := redisserver.New(redisserver.DefaultConfig(), service.NewExecutor(engine, nil), opts...)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		srv.Serve(context.Background(), ln)
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		wg.Wait()
		engine.Close()
	})
	return ln.Addr().String()
}
