package redisserver

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/core/service"
	"github.com/yndnr/yedis-go/pkg/resp"
)

func TestFormatRedisError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"arity", domain.ErrWrongArity.WithDetails("get"), "ERR wrong number of arguments for 'get' command"},
		{"unknown", domain.ErrUnknownCommand.WithDetails("FOO"), "ERR unknown command 'FOO'"},
		{"wrong type", domain.ErrWrongType, "WRONGTYPE Operation against a key holding the wrong kind of value"},
		{"noauth", domain.ErrAuthRequired, "NOAUTH Authentication required."},
		{"wrongpass", domain.ErrInvalidPassword, "WRONGPASS invalid username-password pair or user is disabled."},
		{"not integer", domain.ErrNotInteger, "ERR value is not an integer or out of range"},
		{"with details", domain.ErrInvalidArgument.WithDetails("bad flag"), "ERR invalid argument: bad flag"},
		{"wrapped", fmt.Errorf("execute: %w", domain.ErrOverflow), "ERR increment or decrement would overflow"},
		{"storage", domain.ErrStorageError.Wrap(errors.New("disk on fire")), "ERR internal error"},
		{"plain", errors.New("boom"), "ERR internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatRedisError(tt.err); got != tt.want {
				t.Errorf("formatRedisError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProtocolDetail(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: invalid bulk length", resp.ErrProtocol), "invalid bulk length"},
		{fmt.Errorf("%w: inline command longer than 16 bytes", resp.ErrLimitExceeded), "inline command longer than 16 bytes"},
		{errors.New("request exceeds max_buffer_size"), "request exceeds max_buffer_size"},
	}
	for _, tt := range tests {
		if got := protocolDetail(tt.err); got != tt.want {
			t.Errorf("protocolDetail(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestWriteResult(t *testing.T) {
	tests := []struct {
		name   string
		result service.Result
		want   string
	}{
		{"status", service.OK(), "+OK\r\n"},
		{"nil", service.Nil(), "$-1\r\n"},
		{"integer", service.Integer(-3), ":-3\r\n"},
		{"bulk", service.Bulk([]byte("hi")), "$2\r\nhi\r\n"},
		{"empty bulk", service.Bulk(nil), "$0\r\n\r\n"},
		{"array", service.Array([][]byte{[]byte("a"), nil}), "*2\r\n$1\r\na\r\n$-1\r\n"},
		{"empty array", service.Array(nil), "*0\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := bufio.NewWriter(&buf)
			if err := writeResult(w, tt.result); err != nil {
				t.Fatalf("writeResult() error = %v", err)
			}
			w.Flush()
			if got := buf.String(); got != tt.want {
				t.Errorf("writeResult() = %q, want %q", got, tt.want)
			}
		})
	}

	var buf bytes.Buffer
	if err := writeResult(bufio.NewWriter(&buf), service.Result{Kind: 99}); err == nil {
		t.Error("writeResult() should reject unknown kinds")
	}
}
