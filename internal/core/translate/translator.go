package translate

import (
	"math"
	"sort"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
)

// TTL bounds in seconds. The upper bound keeps a TTL in microseconds within
// an int64.
const (
	MinTTLSeconds = 1
	MaxTTLSeconds = math.MaxInt64 / 1000000 / 1000
)

// maxNameLen bounds command names looked up without allocating.
const maxNameLen = 32

type handler func(t *Translator, args [][]byte) (domain.Request, error)

// Command describes a supported command.
type Command struct {
	Name  string
	Arity int
	Write bool
}

// AcceptsArgs reports whether n arguments, including the name, satisfy the
// command's arity.
func (c Command) AcceptsArgs(n int) bool {
	if c.Arity >= 0 {
		return n == c.Arity
	}
	return n >= -c.Arity
}

type entry struct {
	Command
	fn handler
}

var commandTable = map[string]*entry{}

func register(name string, arity int, write bool, fn handler) {
	commandTable[name] = &entry{Command: Command{Name: name, Arity: arity, Write: write}, fn: fn}
}

func init() {
	// Strings
	register("get", 2, false, parseGet)
	register("set", -3, true, parseSet)
	register("setex", 4, true, parseSetEx)
	register("psetex", 4, true, parsePSetEx)
	register("setnx", 3, true, parseSetNX)
	register("mget", -2, false, parseMGet)
	register("mset", -3, true, parseMSet)
	register("getset", 3, true, parseGetSet)
	register("append", 3, true, parseAppend)
	register("del", -2, true, parseDel)
	register("exists", -2, false, parseExists)
	register("strlen", 2, false, parseStrLen)
	register("getrange", 4, false, parseGetRange)
	register("setrange", 4, true, parseSetRange)
	register("incr", 2, true, parseIncr)
	register("incrby", 3, true, parseIncrBy)
	register("decr", 2, true, parseDecr)
	register("decrby", 3, true, parseDecrBy)

	// Hashes
	register("hset", 4, true, parseHSet)
	register("hmset", -4, true, parseHMSet)
	register("hincrby", 4, true, parseHIncrBy)
	register("hdel", -3, true, parseHDel)
	register("hget", 3, false, collectionGet(domain.OpHGet))
	register("hmget", -3, false, collectionGet(domain.OpHMGet))
	register("hgetall", 2, false, collectionGet(domain.OpHGetAll))
	register("hkeys", 2, false, collectionGet(domain.OpHKeys))
	register("hvals", 2, false, collectionGet(domain.OpHVals))
	register("hlen", 2, false, collectionGet(domain.OpHLen))
	register("hexists", 3, false, collectionGet(domain.OpHExists))
	register("hstrlen", 3, false, collectionGet(domain.OpHStrLen))

	// Sets
	register("sadd", -3, true, parseSAdd)
	register("srem", -3, true, parseSRem)
	register("smembers", 2, false, collectionGet(domain.OpSMembers))
	register("sismember", 3, false, collectionGet(domain.OpSIsMember))
	register("scard", 2, false, collectionGet(domain.OpSCard))

	// Sorted sets
	register("zadd", -4, true, parseZAdd)
	register("zrem", -3, true, parseZRem)
	register("zcard", 2, false, collectionGet(domain.OpZCard))
	register("zrangebyscore", -4, false, parseZRangeByScore)
	register("zrevrange", -4, false, parseZRevRange)

	// Time series
	register("tsadd", -4, true, parseTsAdd)
	register("tsrem", -3, true, parseTsRem)
	register("tsget", 3, false, parseTsGet)
	register("tscard", 2, false, collectionGet(domain.OpTSCard))
	register("tsrangebytime", 4, false, parseTsRangeByTime)
	register("tslastn", 3, false, parseTsLastN)
}

// Lookup returns the command registered under name, ignoring case.
func Lookup(name []byte) (Command, bool) {
	e, ok := lookup(name)
	if !ok {
		return Command{}, false
	}
	return e.Command, true
}

// Commands returns all supported commands ordered by name.
func Commands() []Command {
	out := make([]Command, 0, len(commandTable))
	for _, e := range commandTable {
		out = append(out, e.Command)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func lookup(name []byte) (*entry, bool) {
	if len(name) > maxNameLen {
		return nil, false
	}
	var buf [maxNameLen]byte
	for i, c := range name {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		buf[i] = c
	}
	e, ok := commandTable[string(buf[:len(name)])]
	return e, ok
}

// Option configures a Translator.
type Option func(*Translator)

// WithClock sets the wall clock used to turn absolute expiry times into
// TTLs.
func WithClock(now func() time.Time) Option {
	return func(t *Translator) {
		if now != nil {
			t.now = now
		}
	}
}

// Translator converts commands into requests. It holds no mutable state and
// is safe for concurrent use.
type Translator struct {
	now func() time.Time
}

// New creates a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Translate validates cmd and builds its request. cmd[0] is the command
// name.
func (t *Translator) Translate(cmd [][]byte) (domain.Request, error) {
	if len(cmd) == 0 {
		return nil, domain.ErrInvalidCommand.WithDetails("empty command")
	}
	e, ok := lookup(cmd[0])
	if !ok {
		return nil, domain.ErrUnknownCommand.WithDetails(string(cmd[0]))
	}
	if !e.AcceptsArgs(len(cmd)) {
		return nil, domain.ErrWrongArity.WithDetails(e.Name)
	}
	return e.fn(t, cmd)
}
