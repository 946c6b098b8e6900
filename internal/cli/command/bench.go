package command

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/yedis-go/internal/cli/connection"
	"github.com/yndnr/yedis-go/internal/cli/output"
	"github.com/yndnr/yedis-go/pkg/resp"
)

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure server throughput and latency",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "clients", Aliases: []string{"c"}, Value: 50, Usage: "parallel connections"},
			&cli.IntFlag{Name: "requests", Aliases: []string{"n"}, Value: 100000, Usage: "requests per test"},
			&cli.IntFlag{Name: "data-size", Aliases: []string{"d"}, Value: 3, Usage: "value size in bytes for writes"},
			&cli.IntFlag{Name: "keyspace", Aliases: []string{"r"}, Value: 10000, Usage: "number of distinct keys"},
			&cli.StringFlag{Name: "tests", Aliases: []string{"t"}, Value: "set,get", Usage: "comma separated tests: " + strings.Join(benchTestNames(), ", ")},
			&cli.Float64Flag{Name: "rps", Usage: "limit requests per second (0: unlimited)"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "do not show progress"},
		},
		Action: benchAction,
	}
}

// BenchResult summarizes one benchmark test.
type BenchResult struct {
	Test      string        `json:"test" yaml:"test"`
	Requests  int64         `json:"requests" yaml:"requests"`
	Errors    int64         `json:"errors" yaml:"errors"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	OpsPerSec int64         `json:"ops_per_sec" yaml:"ops_per_sec"`
	P50       time.Duration `json:"p50" yaml:"p50"`
	P99       time.Duration `json:"p99" yaml:"p99"`
	Max       time.Duration `json:"max" yaml:"max"`
}

// benchTests build the arguments of request i.
var benchTests = map[string]func(key, value []byte) [][]byte{
	"ping":  func(_, _ []byte) [][]byte { return [][]byte{[]byte("PING")} },
	"set":   func(k, v []byte) [][]byte { return [][]byte{[]byte("SET"), k, v} },
	"get":   func(k, _ []byte) [][]byte { return [][]byte{[]byte("GET"), k} },
	"incr":  func(k, _ []byte) [][]byte { return [][]byte{[]byte("INCR"), append([]byte("counter:"), k...)} },
	"hset":  func(k, v []byte) [][]byte { return [][]byte{[]byte("HSET"), []byte("bench:hash"), k, v} },
	"sadd":  func(k, _ []byte) [][]byte { return [][]byte{[]byte("SADD"), []byte("bench:set"), k} },
	"tsadd": func(k, v []byte) [][]byte { return [][]byte{[]byte("TSADD"), []byte("bench:ts"), k, v} },
}

func benchTestNames() []string {
	names := make([]string, 0, len(benchTests))
	for name := range benchTests {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BenchOptions configures RunBench.
type BenchOptions struct {
	Clients  int
	Requests int64
	DataSize int
	Keyspace int
	Limit    rate.Limit
	Progress *output.ProgressBar
}

func benchAction(c *cli.Context) error {
	var tests []string
	for _, name := range strings.Split(c.String("tests"), ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := benchTests[name]; !ok {
			return cli.Exit(fmt.Sprintf("bench: unknown test %q", name), 2)
		}
		tests = append(tests, name)
	}
	if len(tests) == 0 {
		return cli.Exit("bench: no tests selected", 2)
	}

	clients := c.Int("clients")
	if clients < 1 || c.Int("requests") < 1 || c.Int("keyspace") < 1 || c.Int("data-size") < 0 {
		return cli.Exit("bench: --clients, --requests and --keyspace must be positive", 2)
	}

	opts, err := dialOptions(c)
	if err != nil {
		return err
	}
	ctx := contextOf(c)
	pool := connection.NewPool(ctx, opts, clients)
	defer pool.Close(ctx)

	limit := rate.Inf
	if rps := c.Float64("rps"); rps > 0 {
		limit = rate.Limit(rps)
	}

	results := make([]BenchResult, 0, len(tests))
	for _, name := range tests {
		bo := BenchOptions{
			Clients:  clients,
			Requests: int64(c.Int("requests")),
			DataSize: c.Int("data-size"),
			Keyspace: c.Int("keyspace"),
			Limit:    limit,
		}
		if !c.Bool("quiet") {
			bo.Progress = output.NewProgressBar(c.App.ErrWriter, strings.ToUpper(name), bo.Requests)
			bo.Progress.Start(100 * time.Millisecond)
		}
		res, err := RunBench(ctx, pool, name, bo)
		if bo.Progress != nil {
			bo.Progress.Finish()
		}
		if err != nil {
			return err
		}
		results = append(results, res)
	}
	return formatter(c).Format(c.App.Writer, results)
}

// RunBench sends opts.Requests commands of the named test over
// opts.Clients pooled connections.
func RunBench(ctx context.Context, pool *connection.Pool, test string, opts BenchOptions) (BenchResult, error) {
	build, ok := benchTests[test]
	if !ok {
		return BenchResult{}, fmt.Errorf("unknown test %q", test)
	}

	// Fail fast when the server is unreachable.
	probe, err := pool.Borrow(ctx)
	if err != nil {
		return BenchResult{}, err
	}
	pool.Return(ctx, probe)

	value := []byte(strings.Repeat("x", opts.DataSize))
	limiter := rate.NewLimiter(opts.Limit, opts.Clients)

	var (
		issued atomic.Int64
		errs   atomic.Int64
		wg     sync.WaitGroup
	)
	latencies := make([][]time.Duration, opts.Clients)

	start := time.Now()
	for w := range opts.Clients {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				n := issued.Add(1)
				if n > opts.Requests || ctx.Err() != nil {
					return
				}
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				key := strconv.AppendInt([]byte("key:"), n%int64(opts.Keyspace), 10)
				if test == "tsadd" {
					key = strconv.AppendInt(nil, n, 10)
				}

				began := time.Now()
				ok := benchOne(ctx, pool, build(key, value))
				latencies[w] = append(latencies[w], time.Since(began))
				if !ok {
					errs.Add(1)
				}
				if opts.Progress != nil {
					opts.Progress.Add(1)
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	all := slices.Concat(latencies...)
	slices.Sort(all)

	res := BenchResult{
		Test:     test,
		Requests: int64(len(all)),
		Errors:   errs.Load(),
		Duration: elapsed.Round(time.Millisecond),
		P50:      percentile(all, 50),
		P99:      percentile(all, 99),
	}
	if len(all) > 0 {
		res.Max = all[len(all)-1]
	}
	if elapsed > 0 {
		res.OpsPerSec = int64(float64(len(all)) / elapsed.Seconds())
	}
	return res, ctx.Err()
}

func benchOne(ctx context.Context, pool *connection.Pool, args [][]byte) bool {
	client, err := pool.Borrow(ctx)
	if err != nil {
		return false
	}
	reply, err := client.Do(args...)
	if err != nil {
		pool.Invalidate(ctx, client)
		return false
	}
	pool.Return(ctx, client)
	return reply.Kind != resp.KindError
}

// percentile returns the p-th percentile of sorted latencies.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted)*p+99)/100 - 1
	return sorted[max(idx, 0)]
}
