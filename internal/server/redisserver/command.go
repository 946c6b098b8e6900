package redisserver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/internal/core/translate"
	"github.com/yndnr/yedis-go/internal/telemetry/logger"
	"github.com/yndnr/yedis-go/pkg/resp"
)

// Commands answered by the server without the translator.
var localCommands = []string{"auth", "command", "echo", "ping", "quit"}

// metricUnknown labels commands outside the command table so that client
// input cannot grow the label set.
const metricUnknown = "unknown"

// dispatch runs one command and buffers its reply. It reports whether the
// client asked to close the connection.
func (s *Server) dispatch(ctx context.Context, c *Conn, cmd resp.Command) bool {
	if c.logger.Enabled(ctx, slog.LevelDebug) {
		c.logger.Debug("command", "args", logger.TruncateArgs(cmd))
	}

	name := cmd[0]
	if bytes.EqualFold(name, []byte("quit")) {
		_ = resp.WriteSimpleString(c.bw, "OK")
		return true
	}

	if s.limiter != nil && !s.limiter.Allow(c.ip) {
		if s.metrics != nil {
			s.metrics.RateLimited.Inc()
		}
		_ = resp.WriteError(c.bw, formatRedisError(domain.ErrRateLimited))
		return false
	}

	start := time.Now()
	label, err := s.run(ctx, c, cmd)
	if s.metrics != nil {
		s.metrics.ObserveCommand(label, err, time.Since(start))
	}
	if err != nil {
		if !domain.IsDomainError(err, "") || domain.IsDomainError(err, domain.ErrStorageError.Code) {
			c.logger.Error("command failed", "command", label, "error", err)
		}
		_ = resp.WriteError(c.bw, formatRedisError(err))
	}
	return false
}

// run executes cmd and writes a successful reply. It returns the metric
// label of the command and the error to reply with, if any.
func (s *Server) run(ctx context.Context, c *Conn, cmd resp.Command) (string, error) {
	name := cmd[0]
	switch {
	case bytes.EqualFold(name, []byte("auth")):
		return "auth", s.handleAuth(c, cmd)
	case bytes.EqualFold(name, []byte("ping")):
		return "ping", s.handlePing(c, cmd)
	}

	if !c.authenticated {
		return metricUnknown, domain.ErrAuthRequired
	}

	switch {
	case bytes.EqualFold(name, []byte("echo")):
		return "echo", s.handleEcho(c, cmd)
	case bytes.EqualFold(name, []byte("command")):
		return "command", s.handleCommand(c, cmd)
	}

	label := metricUnknown
	if info, ok := translate.Lookup(name); ok {
		label = info.Name
	}

	req, err := s.translator.Translate(cmd)
	if err != nil {
		return label, err
	}
	res, err := s.executor.Execute(ctx, req)
	if err != nil {
		return label, err
	}
	return label, writeResult(c.bw, res)
}

// ============================================================================
// Local commands
// ============================================================================

// PING [message]
func (s *Server) handlePing(c *Conn, args resp.Command) error {
	switch len(args) {
	case 1:
		return resp.WriteSimpleString(c.bw, "PONG")
	case 2:
		return resp.WriteBulk(c.bw, args[1])
	default:
		return domain.ErrWrongArity.WithDetails("ping")
	}
}

// ECHO message
func (s *Server) handleEcho(c *Conn, args resp.Command) error {
	if len(args) != 2 {
		return domain.ErrWrongArity.WithDetails("echo")
	}
	return resp.WriteBulk(c.bw, args[1])
}

// AUTH [username] password. Only the "default" user exists.
func (s *Server) handleAuth(c *Conn, args resp.Command) error {
	var password []byte
	switch len(args) {
	case 2:
		password = args[1]
	case 3:
		if string(args[1]) != "default" {
			return domain.ErrInvalidPassword
		}
		password = args[2]
	default:
		return domain.ErrWrongArity.WithDetails("auth")
	}

	if err := s.auth.Verify(password); err != nil {
		if errors.Is(err, domain.ErrInvalidPassword) {
			c.logger.Warn("authentication failed")
		}
		return err
	}
	c.authenticated = true
	return resp.WriteSimpleString(c.bw, "OK")
}

// COMMAND [COUNT | DOCS | LIST]
func (s *Server) handleCommand(c *Conn, args resp.Command) error {
	if len(args) > 2 {
		return domain.ErrWrongArity.WithDetails("command")
	}

	names := make([][]byte, 0, len(localCommands)+64)
	for _, name := range localCommands {
		names = append(names, []byte(name))
	}
	for _, info := range translate.Commands() {
		names = append(names, []byte(info.Name))
	}

	if len(args) == 1 || bytes.EqualFold(args[1], []byte("list")) {
		return writeArray(c.bw, names)
	}
	switch {
	case bytes.EqualFold(args[1], []byte("count")):
		return resp.WriteInteger(c.bw, int64(len(names)))
	case bytes.EqualFold(args[1], []byte("docs")):
		// redis-cli asks for docs on connect; none are published.
		return resp.WriteArrayHeader(c.bw, 0)
	default:
		return domain.ErrInvalidArgument.WithDetailsf("unknown subcommand '%s'", args[1])
	}
}

// ============================================================================
// Replies
// ============================================================================

func writeResult(w *bufio.Writer, r service.Result) error {
	switch r.Kind {
	case service.ResultStatus:
		return resp.WriteSimpleString(w, r.Status)
	case service.ResultNil:
		return resp.WriteNullBulk(w)
	case service.ResultInteger:
		return resp.WriteInteger(w, r.Int)
	case service.ResultBulk:
		return resp.WriteBulk(w, r.Bulk)
	case service.ResultArray:
		return writeArray(w, r.Items)
	default:
		return domain.ErrInternalServer.WithDetailsf("unknown result kind %d", r.Kind)
	}
}

// writeArray writes items as bulk strings; nil items are null bulks.
func writeArray(w *bufio.Writer, items [][]byte) error {
	if err := resp.WriteArrayHeader(w, len(items)); err != nil {
		return err
	}
	for _, item := range items {
		if err := resp.WriteBulk(w, item); err != nil {
			return err
		}
	}
	return nil
}

// formatRedisError converts an error into the text of a Redis error reply.
func formatRedisError(err error) string {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return "ERR internal error"
	}

	switch {
	case errors.Is(de, domain.ErrWrongArity):
		return "ERR wrong number of arguments for '" + de.Details + "' command"
	case errors.Is(de, domain.ErrUnknownCommand):
		return "ERR unknown command '" + de.Details + "'"
	case errors.Is(de, domain.ErrWrongType):
		return "WRONGTYPE Operation against a key holding the wrong kind of value"
	case errors.Is(de, domain.ErrAuthRequired):
		return "NOAUTH Authentication required."
	case errors.Is(de, domain.ErrInvalidPassword):
		return "WRONGPASS invalid username-password pair or user is disabled."
	case errors.Is(de, domain.ErrAuthNotConfigured):
		return "ERR AUTH <password> called without any password configured for the default user. Are you sure your configuration is correct?"
	case errors.Is(de, domain.ErrStorageError), errors.Is(de, domain.ErrInternalServer):
		return "ERR internal error"
	}

	if de.Details != "" {
		return "ERR " + de.Message + ": " + de.Details
	}
	return "ERR " + de.Message
}
