package redisserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yndnr/yedis-go/internal/telemetry/logger"
	"github.com/yndnr/yedis-go/pkg/resp"
	"github.com/yndnr/yedis-go/pkg/ringbuf"
)

const (
	initialBufferSize = 16 << 10
	writeBufferSize   = 16 << 10
)

// Conn is a single client connection. Its fields are owned by the
// goroutine serving it.
type Conn struct {
	netConn net.Conn
	id      string
	ip      string
	logger  *slog.Logger

	ring    *ringbuf.Buffer
	scanner *resp.Parser
	opts    []resp.Option
	frame   []byte
	bw      *bufio.Writer

	authenticated bool
	closed        atomic.Bool
}

func newConn(nc net.Conn, id string, cfg *Config) *Conn {
	opts := []resp.Option{
		resp.WithMaxValueSize(cfg.MaxValueSize),
		resp.WithMaxInlineLen(cfg.MaxInlineLen),
	}
	return &Conn{
		netConn: nc,
		id:      id,
		ip:      clientIP(nc.RemoteAddr()),
		logger:  slog.Default(),
		ring:    ringbuf.New(min(initialBufferSize, cfg.MaxBufferSize), cfg.MaxBufferSize),
		scanner: resp.New(opts...),
		opts:    opts,
		bw:      bufio.NewWriterSize(nc, writeBufferSize),
	}
}

// ID returns the connection ID.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the client address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// Close closes the underlying connection. It is safe to call from any
// goroutine and more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

func clientIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// nextFrame scans the buffered input for the end of the next frame and
// returns its arguments and size. The arguments alias c.frame and stay
// valid until the next call. A zero size means more input is needed.
func (c *Conn) nextFrame() (resp.Command, int, error) {
	n, err := c.scanner.NextCommand()
	if err != nil || n == 0 {
		return nil, 0, err
	}
	c.frame = c.ring.AppendTo(c.frame[:0], n)
	cmd, m, err := resp.ParseCommand(c.frame, c.opts...)
	if err != nil {
		return nil, 0, err
	}
	if m != n {
		return nil, 0, errors.New("frame boundary mismatch")
	}
	return cmd, n, nil
}

// consume drops a handled frame from the input.
func (c *Conn) consume(n int) {
	c.ring.Discard(n)
	c.scanner.Consume(n)
	c.scanner.Update(c.ring.Regions())
	// Large frames leave a large scratch buffer behind.
	if cap(c.frame) > 4*initialBufferSize {
		c.frame = nil
	}
}

func (c *Conn) fill() (int, error) {
	n, err := c.ring.Fill(c.netConn)
	if n > 0 {
		c.scanner.Update(c.ring.Regions())
	}
	return n, err
}

func (s *Server) serveConn(ctx context.Context, c *Conn) {
	defer func() {
		c.Close()
		s.release(c)
	}()

	ctx = logger.WithConnID(ctx, c.id)

	for {
		// Also bounds flushes bufio performs while replies are written.
		if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return
		}
		for {
			cmd, n, err := c.nextFrame()
			if err != nil {
				s.protocolError(c, err)
				return
			}
			if n == 0 {
				break
			}
			quit := s.dispatch(ctx, c, cmd)
			c.consume(n)
			if quit {
				s.flush(c)
				return
			}
		}

		if !s.flush(c) {
			return
		}

		if s.cfg.IdleTimeout > 0 {
			if err := c.netConn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}
		n, err := c.fill()
		if s.metrics != nil && n > 0 {
			s.metrics.BytesRead.Add(float64(n))
		}
		if err != nil {
			if n > 0 && !errors.Is(err, ringbuf.ErrFull) {
				// Serve what arrived with the final read first.
				continue
			}
			s.readError(c, err)
			return
		}
	}
}

func (s *Server) readError(c *Conn, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, ringbuf.ErrFull):
		s.protocolError(c, errors.New("request exceeds max_buffer_size"))
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
	case errors.As(err, &ne) && ne.Timeout():
		c.logger.Debug("idle connection timed out")
	default:
		c.logger.Debug("connection read error", "error", err)
	}
}

// protocolError replies to unparseable input and gives up on the stream.
func (s *Server) protocolError(c *Conn, err error) {
	if s.metrics != nil {
		s.metrics.ProtocolErrors.Inc()
	}
	c.logger.Warn("protocol error", "error", err)
	_ = resp.WriteError(c.bw, "ERR Protocol error: "+protocolDetail(err))
	s.flush(c)
}

func protocolDetail(err error) string {
	msg := err.Error()
	for _, prefix := range []string{resp.ErrProtocol.Error() + ": ", resp.ErrLimitExceeded.Error() + ": "} {
		if rest, ok := strings.CutPrefix(msg, prefix); ok {
			return rest
		}
	}
	return msg
}

// flush writes buffered replies. It reports false when the connection is
// no longer usable.
func (s *Server) flush(c *Conn) bool {
	n := c.bw.Buffered()
	if n == 0 {
		return true
	}
	if err := c.netConn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return false
	}
	if err := c.bw.Flush(); err != nil {
		c.logger.Debug("connection write error", "error", err)
		return false
	}
	if s.metrics != nil {
		s.metrics.BytesWritten.Add(float64(n))
	}
	return true
}
