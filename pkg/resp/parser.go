package resp

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
)

// Protocol limits.
const (
	// MaxNumberOfArgs bounds the argument count of a multibulk command.
	MaxNumberOfArgs = 1 << 20

	// MaxNumberLength bounds the digits of any length or count field.
	MaxNumberLength = 25

	// DefaultMaxValueSize is the default bound of a single bulk argument (512MB).
	DefaultMaxValueSize = 512 << 20

	// DefaultMaxInlineLen is the default bound of an inline command line (64KB).
	DefaultMaxInlineLen = 64 << 10

	lineEndLength = 2
)

var (
	// ErrProtocol reports malformed framing. The stream cannot be resynchronised.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded reports a count or length outside the accepted bounds.
	ErrLimitExceeded = errors.New("resp: limit exceeded")

	// ErrCaptureSpansRegions is returned when a capturing parser meets an
	// argument that straddles the boundary between the two regions.
	ErrCaptureSpansRegions = errors.New("resp: cannot capture arguments across two regions")
)

// Command is the argument list of one request. Command[0] is the name.
type Command [][]byte

// Name returns the command name, or "" for an empty command.
func (c Command) Name() string {
	if len(c) == 0 {
		return ""
	}
	return string(c[0])
}

// Strings returns the arguments as strings.
func (c Command) Strings() []string {
	out := make([]string, len(c))
	for i, a := range c {
		out[i] = string(a)
	}
	return out
}

// State is the position of the parser inside the current frame.
type State int

const (
	StateInitial State = iota
	StateSingleLine
	StateBulkHeader
	StateBulkArgumentSize
	StateBulkArgumentBody
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateSingleLine:
		return "single_line"
	case StateBulkHeader:
		return "bulk_header"
	case StateBulkArgumentSize:
		return "bulk_argument_size"
	case StateBulkArgumentBody:
		return "bulk_argument_body"
	case StateFinished:
		return "finished"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxValueSize sets the largest accepted bulk argument.
func WithMaxValueSize(n int64) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxValueSize = n
		}
	}
}

// WithMaxInlineLen sets the longest accepted inline command line.
func WithMaxInlineLen(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxInlineLen = n
		}
	}
}

// Parser is an incremental request parser.
//
// Offsets handed to and returned by the parser are logical: they address the
// concatenation of the regions passed to Update. A Parser is not safe for
// concurrent use.
type Parser struct {
	regions  [2][]byte
	nregions int
	fullSize int

	state      State
	pos        int
	tokenBegin int // -1 when no token is open

	argsLeft int64
	argSize  int64

	maxValueSize int64
	maxInlineLen int

	numberBuf []byte
	cmd       *Command
}

// New returns a parser that advances over frames without capturing arguments.
func New(opts ...Option) *Parser {
	p := &Parser{
		tokenBegin:   -1,
		maxValueSize: DefaultMaxValueSize,
		maxInlineLen: DefaultMaxInlineLen,
		numberBuf:    make([]byte, 0, MaxNumberLength),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capture binds the output command. Each completed frame replaces *cmd with
// a fresh slice. Pass nil to stop capturing.
//
// Multibulk arguments alias the buffer given to Update and stay valid only
// while the caller keeps those bytes intact.
func (p *Parser) Capture(cmd *Command) {
	p.cmd = cmd
}

// Update replaces the readable regions. Call it after Consume and whenever
// more bytes become available. Regions are logically concatenated.
func (p *Parser) Update(regions ...[]byte) {
	if len(regions) > 2 {
		panic("resp: at most two regions are supported")
	}
	p.regions = [2][]byte{}
	p.nregions = len(regions)
	p.fullSize = 0
	for i, r := range regions {
		p.regions[i] = r
		p.fullSize += len(r)
	}
}

// Consume tells the parser that the first n bytes of the stream were
// discarded by the owner. n must not exceed the end offset of the last
// completed frame.
func (p *Parser) Consume(n int) {
	p.pos -= n
	if p.tokenBegin >= 0 {
		p.tokenBegin -= n
	}
}

// Reset drops all progress. Use it after a fatal error if the parser is to
// be reused on a new stream.
func (p *Parser) Reset() {
	p.state = StateInitial
	p.pos = 0
	p.tokenBegin = -1
	p.argsLeft = 0
	p.argSize = 0
	p.Update()
}

// State returns the current state.
func (p *Parser) State() State {
	return p.state
}

// Buffered returns the number of bytes the parser has already scanned.
func (p *Parser) Buffered() int {
	return p.pos
}

// NextCommand advances through the available bytes. It returns the end
// offset of a complete frame, or 0 with a nil error when more bytes are
// needed. Errors wrap ErrProtocol or ErrLimitExceeded and are fatal.
func (p *Parser) NextCommand() (int, error) {
	for p.pos != p.fullSize {
		var (
			complete bool
			err      error
		)
		switch p.state {
		case StateInitial:
			p.initial()
			complete = true
		case StateSingleLine:
			complete, err = p.singleLine()
		case StateBulkHeader:
			complete, err = p.bulkHeader()
		case StateBulkArgumentSize:
			complete, err = p.bulkArgumentSize()
		case StateBulkArgumentBody:
			complete, err = p.bulkArgumentBody()
		default:
			return 0, fmt.Errorf("%w: unexpected parser state %s", ErrProtocol, p.state)
		}
		if err != nil {
			return 0, err
		}
		if !complete {
			p.pos = p.fullSize
			return 0, nil
		}
		if p.state == StateFinished {
			p.state = StateInitial
			p.tokenBegin = -1
			return p.pos, nil
		}
	}
	return 0, nil
}

func (p *Parser) initial() {
	p.tokenBegin = p.pos
	if p.byteAt(p.pos) == '*' {
		p.state = StateBulkHeader
	} else {
		p.state = StateSingleLine
	}
}

func (p *Parser) singleLine() (bool, error) {
	lineEnd, found, err := p.findEndOfLine()
	if err != nil {
		return false, err
	}
	if !found {
		if p.fullSize-p.tokenBegin > p.maxInlineLen {
			return false, fmt.Errorf("%w: inline command longer than %d bytes", ErrLimitExceeded, p.maxInlineLen)
		}
		return false, nil
	}
	if lineEnd-p.tokenBegin > p.maxInlineLen {
		return false, fmt.Errorf("%w: inline command longer than %d bytes", ErrLimitExceeded, p.maxInlineLen)
	}

	if p.cmd != nil {
		line, err := p.span(p.tokenBegin, lineEnd)
		if err != nil {
			return false, err
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return false, fmt.Errorf("%w: empty line", ErrProtocol)
		}
		args, err := SplitArgs(line)
		if err != nil {
			return false, err
		}
		*p.cmd = args
	} else if p.isBlank(p.tokenBegin, lineEnd) {
		return false, fmt.Errorf("%w: empty line", ErrProtocol)
	}

	p.state = StateFinished
	return true, nil
}

func (p *Parser) bulkHeader() (bool, error) {
	lineEnd, found, err := p.findEndOfHeaderLine()
	if err != nil || !found {
		return false, err
	}
	n, err := p.parseNumber('*', p.tokenBegin, lineEnd, 1, MaxNumberOfArgs, "Number of lines in multiline")
	if err != nil {
		return false, err
	}
	if p.cmd != nil {
		*p.cmd = make(Command, 0, min(n, 64))
	}
	p.argsLeft = n
	p.tokenBegin = p.pos
	p.state = StateBulkArgumentSize
	return true, nil
}

func (p *Parser) bulkArgumentSize() (bool, error) {
	lineEnd, found, err := p.findEndOfHeaderLine()
	if err != nil || !found {
		return false, err
	}
	n, err := p.parseNumber('$', p.tokenBegin, lineEnd, 0, p.maxValueSize, "Argument size")
	if err != nil {
		return false, err
	}
	p.argSize = n
	p.tokenBegin = p.pos
	p.state = StateBulkArgumentBody
	return true, nil
}

func (p *Parser) bulkArgumentBody() (bool, error) {
	end := p.tokenBegin + int(p.argSize)
	if end+lineEndLength > p.fullSize {
		return false, nil
	}
	if p.byteAt(end) != '\r' || p.byteAt(end+1) != '\n' {
		return false, fmt.Errorf("%w: argument of %d bytes is not terminated by CRLF", ErrProtocol, p.argSize)
	}
	if p.cmd != nil {
		arg, err := p.span(p.tokenBegin, end)
		if err != nil {
			return false, err
		}
		*p.cmd = append(*p.cmd, arg)
	}
	p.pos = end + lineEndLength
	p.tokenBegin = p.pos
	p.argsLeft--
	if p.argsLeft == 0 {
		p.state = StateFinished
	} else {
		p.state = StateBulkArgumentSize
	}
	return true, nil
}

// findEndOfLine scans from pos for '\n'. On success pos moves past it and
// the offset of the preceding '\r' is returned.
func (p *Parser) findEndOfLine() (int, bool, error) {
	nl := p.indexByte(p.pos, '\n')
	if nl < 0 {
		return 0, false, nil
	}
	if nl == p.tokenBegin {
		return 0, false, fmt.Errorf("%w: end of line at the beginning of a command", ErrProtocol)
	}
	if p.byteAt(nl-1) != '\r' {
		return 0, false, fmt.Errorf("%w: end of line is not preceded by carriage return", ErrProtocol)
	}
	p.pos = nl + 1
	return nl - 1, true, nil
}

// findEndOfHeaderLine is findEndOfLine for "*<n>" and "$<n>" lines, which
// may not grow without bound while waiting for CRLF.
func (p *Parser) findEndOfHeaderLine() (int, bool, error) {
	lineEnd, found, err := p.findEndOfLine()
	if err != nil || found {
		return lineEnd, found, err
	}
	if p.fullSize-p.tokenBegin > 1+MaxNumberLength+lineEndLength {
		return 0, false, fmt.Errorf("%w: number too long", ErrProtocol)
	}
	return 0, false, nil
}

func (p *Parser) parseNumber(prefix byte, begin, end int, lo, hi int64, field string) (int64, error) {
	if c := p.byteAt(begin); c != prefix {
		return 0, fmt.Errorf("%w: invalid character before number, expected '%c' but found %q", ErrProtocol, prefix, c)
	}
	if end-begin-1 > MaxNumberLength {
		return 0, fmt.Errorf("%w: %s is too long: %d digits", ErrProtocol, field, end-begin-1)
	}
	p.numberBuf = p.appendSpan(p.numberBuf[:0], begin+1, end)
	n, err := strconv.ParseInt(string(p.numberBuf), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s is not a number: %q", ErrProtocol, field, p.numberBuf)
	}
	if n < lo {
		return 0, fmt.Errorf("%w: %s out of expected range [%d, %d]: %d", ErrProtocol, field, lo, hi, n)
	}
	if n > hi {
		return 0, fmt.Errorf("%w: %s out of expected range [%d, %d]: %d", ErrLimitExceeded, field, lo, hi, n)
	}
	return n, nil
}

// ============================================================
// Region addressing
// ============================================================

// locate maps a logical offset to a region index and a local offset.
func (p *Parser) locate(offset int) (int, int) {
	if n := len(p.regions[0]); offset >= n && p.nregions > 1 {
		return 1, offset - n
	}
	return 0, offset
}

func (p *Parser) byteAt(offset int) byte {
	r, local := p.locate(offset)
	return p.regions[r][local]
}

func (p *Parser) indexByte(from int, c byte) int {
	r0 := p.regions[0]
	if from < len(r0) {
		if i := bytes.IndexByte(r0[from:], c); i >= 0 {
			return from + i
		}
		from = len(r0)
	}
	if p.nregions < 2 {
		return -1
	}
	local := from - len(r0)
	if i := bytes.IndexByte(p.regions[1][local:], c); i >= 0 {
		return from + i
	}
	return -1
}

// span returns the bytes [begin, end) without copying. Capture needs the
// frame to live in one region.
func (p *Parser) span(begin, end int) ([]byte, error) {
	rb, lb := p.locate(begin)
	re, le := p.locate(end)
	if begin == end {
		return p.regions[rb][lb:lb:lb], nil
	}
	if rb != re && !(re == 1 && le == 0) {
		return nil, ErrCaptureSpansRegions
	}
	if rb == 0 && re == 1 {
		le = len(p.regions[0])
	}
	return p.regions[rb][lb:le:le], nil
}

func (p *Parser) appendSpan(dst []byte, begin, end int) []byte {
	for begin < end {
		r, local := p.locate(begin)
		chunk := p.regions[r][local:]
		if len(chunk) > end-begin {
			chunk = chunk[:end-begin]
		}
		dst = append(dst, chunk...)
		begin += len(chunk)
	}
	return dst
}

func (p *Parser) isBlank(begin, end int) bool {
	for i := begin; i < end; i++ {
		switch p.byteAt(i) {
		case ' ', '\t', '\r', '\n', '\v', '\f':
		default:
			return false
		}
	}
	return true
}

// ParseCommand parses exactly one complete frame held in data.
// It returns the command and the number of bytes it occupied; n is 0 when
// data holds only part of a frame.
func ParseCommand(data []byte, opts ...Option) (Command, int, error) {
	p := New(opts...)
	var cmd Command
	p.Capture(&cmd)
	p.Update(data)
	n, err := p.NextCommand()
	if err != nil || n == 0 {
		return nil, 0, err
	}
	return cmd, n, nil
}
