package benchmark

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"testing"

	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/core/translate"
	"github.com/yndnr/yedis-go/internal/storage"
	"github.com/yndnr/yedis-go/pkg/resp"
)

// KeyCounts defines the key counts for benchmarking.
var KeyCounts = []int{1000, 10000, 100000, 500000}

// SmallKeyCounts for quick benchmarks.
var SmallKeyCounts = []int{1000, 10000}

// Engines are the storage engines every executor benchmark runs against.
var Engines = []string{storage.EngineMemory, storage.EngineBadger}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// openEngine opens an engine in a temporary directory.
func openEngine(b *testing.B, engine string) storage.KVEngine {
	b.Helper()
	cfg := storage.DefaultKVConfig(b.TempDir())
	cfg.Engine = engine
	kv, err := storage.Open(cfg, discard)
	if err != nil {
		b.Fatalf("open %s engine: %v", engine, err)
	}
	b.Cleanup(func() { kv.Close() })
	return kv
}

// newExecutor returns an executor without a background sweeper.
func newExecutor(kv storage.KVEngine) *service.Executor {
	return service.NewExecutor(kv, &service.ExecutorConfig{Logger: discard})
}

// command builds a command from strings.
func command(args ...string) [][]byte {
	cmd := make([][]byte, len(args))
	for i, a := range args {
		cmd[i] = []byte(a)
	}
	return cmd
}

// execute translates and runs one command.
func execute(ctx context.Context, tr *translate.Translator, x *service.Executor, cmd [][]byte) (service.Result, error) {
	req, err := tr.Translate(cmd)
	if err != nil {
		return service.Result{}, err
	}
	return x.Execute(ctx, req)
}

// prefill writes count string keys named key:0 .. key:count-1.
func prefill(b *testing.B, x *service.Executor, count int) {
	b.Helper()
	ctx := context.Background()
	tr := translate.New()
	for i := 0; i < count; i++ {
		if _, err := execute(ctx, tr, x, command("SET", keyName(i), "value")); err != nil {
			b.Fatalf("prefill: %v", err)
		}
	}
}

func keyName(i int) string {
	return fmt.Sprintf("key:%d", i)
}

// encodePipeline encodes n copies of cmd as multibulk frames.
func encodePipeline(n int, cmd ...[]byte) []byte {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	for i := 0; i < n; i++ {
		resp.WriteCommand(w, cmd...)
	}
	w.Flush()
	return buf.Bytes()
}

func sizeLabel(size int) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%dMB", size>>20)
	case size >= 1<<10:
		return fmt.Sprintf("%dKB", size>>10)
	default:
		return fmt.Sprintf("%dB", size)
	}
}

// reportMemory reports memory usage.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.Alloc)/(1024*1024), prefix+"_MB")
	b.ReportMetric(float64(m.NumGC), prefix+"_GC")
}

// runWithEngines runs a benchmark function for every engine and key count.
func runWithEngines(b *testing.B, counts []int, benchFn func(b *testing.B, x *service.Executor, count int)) {
	for _, engine := range Engines {
		for _, count := range counts {
			b.Run(fmt.Sprintf("%s/keys_%d", engine, count), func(b *testing.B) {
				x := newExecutor(openEngine(b, engine))
				prefill(b, x, count)
				b.ResetTimer()
				b.ReportAllocs()
				benchFn(b, x, count)
			})
		}
	}
}
