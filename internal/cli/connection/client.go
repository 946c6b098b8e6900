package connection

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/yndnr/yedis-go/pkg/resp"
)

// DefaultTimeout bounds dialing and each round trip.
const DefaultTimeout = 10 * time.Second

// Options configures a Client.
type Options struct {
	// Addr is the server address (host:port).
	Addr string
	// TLSConfig enables TLS when set.
	TLSConfig *tls.Config
	// Password is sent with AUTH right after connecting when set.
	Password string
	// Timeout bounds dialing and each round trip (default: 10s).
	Timeout time.Duration
}

// Client is a RESP client. It is not safe for concurrent use.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	w       *bufio.Writer
	timeout time.Duration
}

// Dial connects to a server and authenticates when a password is set.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var (
		conn net.Conn
		err  error
	)
	dialer := &net.Dialer{Timeout: timeout}
	if opts.TLSConfig != nil {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: opts.TLSConfig}).DialContext(ctx, "tcp", opts.Addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", opts.Addr)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", opts.Addr, err)
	}

	c := &Client{
		conn:    conn,
		r:       bufio.NewReader(conn),
		w:       bufio.NewWriter(conn),
		timeout: timeout,
	}

	if opts.Password != "" {
		reply, err := c.DoStrings("AUTH", opts.Password)
		if err == nil {
			err = reply.Err()
		}
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("auth: %w", err)
		}
	}
	return c, nil
}

// Do sends one command and reads its reply. A server error reply is
// returned as a Reply of KindError, not as an error.
func (c *Client) Do(args ...[]byte) (resp.Reply, error) {
	if len(args) == 0 {
		return resp.Reply{}, errors.New("empty command")
	}
	if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return resp.Reply{}, err
	}
	if err := resp.WriteCommand(c.w, args...); err != nil {
		return resp.Reply{}, err
	}
	if err := c.w.Flush(); err != nil {
		return resp.Reply{}, err
	}
	return resp.ReadReply(c.r)
}

// DoStrings is Do with string arguments.
func (c *Client) DoStrings(args ...string) (resp.Reply, error) {
	b := make([][]byte, len(args))
	for i, a := range args {
		b[i] = []byte(a)
	}
	return c.Do(b...)
}

// Ping reports whether the server answers PING.
func (c *Client) Ping() error {
	reply, err := c.DoStrings("PING")
	if err != nil {
		return err
	}
	if err := reply.Err(); err != nil {
		return err
	}
	if string(reply.Str) != "PONG" {
		return fmt.Errorf("unexpected PING reply %q", reply.Str)
	}
	return nil
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
