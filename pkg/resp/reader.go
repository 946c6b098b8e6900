package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Reader limits.
const (
	maxReplyLine  = 64 * 1024
	maxReplyDepth = 16
)

// Kind identifies a reply type.
type Kind byte

const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulk         Kind = '$'
	KindArray        Kind = '*'
)

// Reply is a decoded server reply.
type Reply struct {
	Kind  Kind
	Str   []byte
	Int   int64
	Array []Reply
	Null  bool
}

// String renders the reply the way redis-cli does.
func (r Reply) String() string {
	var sb strings.Builder
	r.format(&sb, "")
	return sb.String()
}

func (r Reply) format(sb *strings.Builder, indent string) {
	switch r.Kind {
	case KindSimpleString:
		sb.Write(r.Str)
	case KindError:
		sb.WriteString("(error) ")
		sb.Write(r.Str)
	case KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(r.Int, 10))
	case KindBulk:
		if r.Null {
			sb.WriteString("(nil)")
			return
		}
		sb.WriteString(strconv.Quote(string(r.Str)))
	case KindArray:
		if r.Null {
			sb.WriteString("(nil)")
			return
		}
		if len(r.Array) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		for i, el := range r.Array {
			if i > 0 {
				sb.WriteString("\n" + indent)
			}
			prefix := strconv.Itoa(i+1) + ") "
			sb.WriteString(prefix)
			el.format(sb, indent+strings.Repeat(" ", len(prefix)))
		}
	}
}

// Err returns the reply as an error when it is an error reply.
func (r Reply) Err() error {
	if r.Kind != KindError {
		return nil
	}
	return errors.New(string(r.Str))
}

// ReadReply decodes one reply from r.
func ReadReply(r *bufio.Reader) (Reply, error) {
	return readReply(r, 0)
}

func readReply(r *bufio.Reader, depth int) (Reply, error) {
	if depth > maxReplyDepth {
		return Reply{}, fmt.Errorf("%w: reply nested too deeply", ErrLimitExceeded)
	}
	line, err := readLine(r, maxReplyLine)
	if err != nil {
		return Reply{}, err
	}
	if len(line) == 0 {
		return Reply{}, fmt.Errorf("%w: empty reply line", ErrProtocol)
	}

	kind := Kind(line[0])
	body := line[1:]
	switch kind {
	case KindSimpleString, KindError:
		return Reply{Kind: kind, Str: body}, nil
	case KindInteger:
		n, err := strconv.ParseInt(string(body), 10, 64)
		if err != nil {
			return Reply{}, fmt.Errorf("%w: invalid integer reply", ErrProtocol)
		}
		return Reply{Kind: kind, Int: n}, nil
	case KindBulk:
		n, err := strconv.Atoi(string(body))
		if err != nil || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid bulk length", ErrProtocol)
		}
		if n == -1 {
			return Reply{Kind: kind, Null: true}, nil
		}
		if n > DefaultMaxValueSize {
			return Reply{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, DefaultMaxValueSize)
		}
		buf := make([]byte, n+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Reply{}, err
		}
		if !bytes.HasSuffix(buf, []byte("\r\n")) {
			return Reply{}, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
		}
		return Reply{Kind: kind, Str: buf[:n]}, nil
	case KindArray:
		n, err := strconv.Atoi(string(body))
		if err != nil || n < -1 {
			return Reply{}, fmt.Errorf("%w: invalid array length", ErrProtocol)
		}
		if n == -1 {
			return Reply{Kind: kind, Null: true}, nil
		}
		if n > MaxNumberOfArgs {
			return Reply{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, MaxNumberOfArgs)
		}
		out := Reply{Kind: kind, Array: make([]Reply, 0, min(n, 1024))}
		for i := 0; i < n; i++ {
			el, err := readReply(r, depth+1)
			if err != nil {
				return Reply{}, err
			}
			out.Array = append(out.Array, el)
		}
		return out, nil
	default:
		return Reply{}, fmt.Errorf("%w: unexpected reply type %q", ErrProtocol, line[0])
	}
}

func readLine(r *bufio.Reader, maxLen int) ([]byte, error) {
	var buf []byte
	for {
		frag, err := r.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
			}
			continue
		}
		return nil, err
	}

	if len(buf) > maxLen {
		return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, maxLen)
	}
	if len(buf) < 2 || !bytes.HasSuffix(buf, []byte("\r\n")) {
		return nil, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return buf[:len(buf)-2], nil
}
