package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/core/translate"
	"github.com/yndnr/yedis-go/internal/telemetry/metric"
	"github.com/yndnr/yedis-go/pkg/resp"
)

// Config holds the Redis server configuration.
type Config struct {
	// Addr is the listen address.
	Addr string
	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config
	// IdleTimeout closes connections that send nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
	// WriteTimeout bounds flushing the replies of one batch (default: 10s).
	WriteTimeout time.Duration
	// MaxConnections caps concurrent clients (default: 10000).
	MaxConnections int
	// RateLimit is commands per second per client IP. Zero disables it.
	RateLimit      float64
	RateLimitBurst int
	// MaxValueSize bounds a single bulk argument.
	MaxValueSize int64
	// MaxInlineLen bounds an inline command line.
	MaxInlineLen int
	// MaxBufferSize bounds the input buffer of one connection.
	MaxBufferSize int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:           "127.0.0.1:6379",
		IdleTimeout:    5 * time.Minute,
		WriteTimeout:   10 * time.Second,
		MaxConnections: 10000,
		MaxValueSize:   resp.DefaultMaxValueSize,
		MaxInlineLen:   resp.DefaultMaxInlineLen,
		MaxBufferSize:  resp.DefaultMaxValueSize + 64<<20,
	}
}

// Executor applies domain requests.
type Executor interface {
	Execute(ctx context.Context, req domain.Request) (service.Result, error)
}

// Server is the Redis protocol server.
type Server struct {
	cfg        *Config
	executor   Executor
	translator *translate.Translator
	auth       *service.AuthService
	limiter    *service.RateLimiterRegistry
	metrics    *metric.Registry
	logger     *slog.Logger

	// mu orders connection registration against Shutdown, so that wg.Add
	// never runs once Shutdown has started waiting.
	mu       sync.Mutex
	ln       net.Listener
	running  atomic.Bool
	shutdown bool
	wg       sync.WaitGroup

	conns     *xsync.MapOf[string, *Conn]
	clientIPs *xsync.MapOf[string, int]
}

// Option configures a Server.
type Option func(*Server)

// WithAuth requires clients to authenticate with AUTH first.
func WithAuth(auth *service.AuthService) Option {
	return func(s *Server) {
		s.auth = auth
	}
}

// WithMetrics records command and connection metrics.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTranslator sets the command translator.
func WithTranslator(t *translate.Translator) Option {
	return func(s *Server) {
		s.translator = t
	}
}

// New creates a new Redis protocol server.
func New(cfg *Config, executor Executor, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	def := DefaultConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = def.MaxConnections
	}
	if cfg.MaxValueSize <= 0 {
		cfg.MaxValueSize = def.MaxValueSize
	}
	if cfg.MaxInlineLen <= 0 {
		cfg.MaxInlineLen = def.MaxInlineLen
	}
	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = def.MaxBufferSize
	}

	s := &Server{
		cfg:        cfg,
		executor:   executor,
		translator: translate.New(),
		logger:     slog.Default(),
		conns:      xsync.NewMapOf[string, *Conn](),
		clientIPs:  xsync.NewMapOf[string, int](),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimit > 0 {
		s.limiter = service.NewRateLimiterRegistry(cfg.RateLimit, cfg.RateLimitBurst)
	}
	return s
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var (
		ln  net.Listener
		err error
	)
	if s.cfg.TLSConfig != nil {
		ln, err = tls.Listen("tcp", s.cfg.Addr, s.cfg.TLSConfig)
	} else {
		ln, err = net.Listen("tcp", s.cfg.Addr)
	}
	if err != nil {
		return err
	}
	s.logger.Info("redis server listening", "address", ln.Addr().String(), "tls", s.cfg.TLSConfig != nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Serve(ctx, ln); err != nil {
			s.logger.Error("redis server stopped", "error", err)
		}
	}()
	return nil
}

// Serve accepts connections on ln until Shutdown is called or ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.ln = ln
	s.running.Store(true)
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		if s.conns.Size() >= s.cfg.MaxConnections {
			s.reject(nc, "ERR max number of clients reached")
			continue
		}

		s.mu.Lock()
		if s.shutdown {
			s.mu.Unlock()
			nc.Close()
			return nil
		}
		c := s.newConn(nc)
		s.wg.Add(1)
		s.mu.Unlock()
		go func() {
			defer s.wg.Done()
			s.serveConn(ctx, c)
		}()
	}
}

// Addr returns the listen address, or nil before the server is serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// ConnCount returns the number of open client connections.
func (s *Server) ConnCount() int {
	return s.conns.Size()
}

// Shutdown stops accepting, closes client connections and waits for their
// goroutines to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.mu.Lock()
	s.shutdown = true
	s.running.Store(false)
	if s.ln != nil {
		if cerr := s.ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
			err = cerr
		}
	}
	s.conns.Range(func(_ string, c *Conn) bool {
		c.Close()
		return true
	})
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.logger.Info("redis server stopped")
	return err
}

func (s *Server) newConn(nc net.Conn) *Conn {
	c := newConn(nc, ulid.Make().String(), s.cfg)
	c.logger = s.logger.With("conn_id", c.id, "remote", c.RemoteAddr().String())
	c.authenticated = !s.auth.Required()

	s.conns.Store(c.id, c)
	s.clientIPs.Compute(c.ip, func(n int, _ bool) (int, bool) {
		return n + 1, false
	})
	if s.metrics != nil {
		s.metrics.ConnectionsActive.Inc()
		s.metrics.ConnectionsTotal.Inc()
	}
	c.logger.Debug("client connected")
	return c
}

// release forgets c. The rate limiter of its IP is dropped with the last
// connection from that IP.
func (s *Server) release(c *Conn) {
	if _, ok := s.conns.LoadAndDelete(c.id); !ok {
		return
	}
	s.clientIPs.Compute(c.ip, func(n int, _ bool) (int, bool) {
		if n <= 1 {
			if s.limiter != nil {
				s.limiter.Delete(c.ip)
			}
			return 0, true
		}
		return n - 1, false
	})
	if s.metrics != nil {
		s.metrics.ConnectionsActive.Dec()
	}
	c.logger.Debug("client disconnected")
}

func (s *Server) reject(nc net.Conn, msg string) {
	s.logger.Warn("connection rejected", "remote", nc.RemoteAddr().String(), "reason", msg)
	_ = nc.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	_, _ = nc.Write([]byte("-" + msg + "\r\n"))
	_ = nc.Close()
}
