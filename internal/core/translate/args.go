package translate

import (
	"bytes"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/yndnr/yedis-go/internal/core/domain"
)

const (
	expireAt   = "EXPIRE_AT"
	expireIn   = "EXPIRE_IN"
	withScores = "WITHSCORES"
)

// ============================================================================
// Numbers
// ============================================================================

func parseInt64(arg []byte, field string) (int64, error) {
	v, err := strconv.ParseInt(string(arg), 10, 64)
	if err != nil {
		return 0, domain.ErrInvalidArgument.WithDetailsf("%s field %q is not a valid number", field, arg)
	}
	return v, nil
}

func parseInt32(arg []byte, field string) (int32, error) {
	v, err := parseInt64(arg, field)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, domain.ErrInvalidArgument.WithDetailsf("%s field %q is not within valid bounds", field, arg)
	}
	return int32(v), nil
}

func parseScore(arg []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(arg), 64)
	if err != nil || math.IsNaN(v) {
		return 0, domain.ErrInvalidArgument.WithDetailsf("score %q is not a valid float", arg)
	}
	return v, nil
}

func parseTimestamp(arg []byte) (int64, error) {
	return parseInt64(arg, "timestamp")
}

// ttlSeconds converts a TTL given in seconds after checking its bounds.
func ttlSeconds(seconds int64) (time.Duration, error) {
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return 0, domain.ErrInvalidCommand.WithDetailsf("TTL: %d needs be in the range [%d, %d]",
			seconds, MinTTLSeconds, MaxTTLSeconds)
	}
	return time.Duration(seconds) * time.Second, nil
}

// ============================================================================
// Flags
// ============================================================================

// upperFlag returns the upper-cased token when it is exactly two bytes
// long, and "" otherwise.
func upperFlag(arg []byte) string {
	if len(arg) != 2 {
		return ""
	}
	return string(bytes.ToUpper(arg))
}

// parseSetFlags applies the trailing EX, PX, XX and NX flags of SET. XX and
// NX overwrite each other; the last one wins.
func parseSetFlags(req *domain.SetRequest, args [][]byte) error {
	for idx := 0; idx < len(args); {
		switch flag := upperFlag(args[idx]); flag {
		case "EX", "PX":
			if idx+1 >= len(args) {
				return domain.ErrInvalidCommand.WithDetailsf("Expected TTL field after the %s flag, no value found", flag)
			}
			ttl, err := parseInt64(args[idx+1], "TTL")
			if err != nil {
				return err
			}
			if ttl < MinTTLSeconds || ttl > MaxTTLSeconds {
				return domain.ErrInvalidCommand.WithDetailsf("TTL field %s is not within valid bounds", args[idx+1])
			}
			unit := time.Millisecond
			if flag == "EX" {
				unit = time.Second
			}
			req.TTL = time.Duration(ttl) * unit
			idx += 2
		case "XX":
			req.Mode = domain.WriteModeUpdate
			idx++
		case "NX":
			req.Mode = domain.WriteModeInsert
			idx++
		default:
			return domain.ErrInvalidCommand.WithDetailsf("Unidentified argument %s found while parsing set command", args[idx])
		}
	}
	return nil
}

// parseZAddOptions consumes leading ZADD flags starting at idx and returns
// the index of the first non-flag token. Repeated flags are idempotent.
func parseZAddOptions(args [][]byte, idx int) (domain.ZAddOptions, int, error) {
	var opts domain.ZAddOptions
	for ; idx < len(args); idx++ {
		switch {
		case bytes.EqualFold(args[idx], []byte("CH")):
			opts.CH = true
		case bytes.EqualFold(args[idx], []byte("INCR")):
			opts.Incr = true
		case bytes.EqualFold(args[idx], []byte("NX")):
			if opts.XX {
				return opts, idx, domain.ErrInvalidArgument.WithDetails("XX and NX options at the same time are not compatible")
			}
			opts.NX = true
		case bytes.EqualFold(args[idx], []byte("XX")):
			if opts.NX {
				return opts, idx, domain.ErrInvalidArgument.WithDetails("XX and NX options at the same time are not compatible")
			}
			opts.XX = true
		default:
			return opts, idx, nil
		}
	}
	return opts, idx, nil
}

func parseWithScores(arg []byte) error {
	if !bytes.EqualFold(arg, []byte(withScores)) {
		return domain.ErrInvalidArgument.WithDetailsf("unexpected argument %s", arg)
	}
	return nil
}

// ============================================================================
// Pairs
// ============================================================================

// pairs is the coalesced [sub-key, value] list of a multi-set command, in
// first-seen order of the surviving sub-keys.
type pairs struct {
	keys   []string
	values [][]byte
	ttl    time.Duration
	opts   domain.ZAddOptions
}

func (p *pairs) put(key string, value []byte, index map[string]int) {
	if i, ok := index[key]; ok {
		p.values[i] = value
		return
	}
	index[key] = len(p.keys)
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
}

// parsePairs handles the HMSET, ZADD and TSADD argument shape. For sorted
// sets the sub-key is the member and the value the score, so duplicate
// members coalesce. A trailing EXPIRE_AT or EXPIRE_IN pair sets the TTL of a
// time series.
func (t *Translator) parsePairs(args [][]byte, typ domain.DataType) (*pairs, error) {
	name := string(args[0])
	if len(args) < 4 || (len(args)%2 == 1 && typ == domain.TypeHash) {
		return nil, domain.ErrInvalidArgument.WithDetailsf("wrong number of arguments: %d for command: %s", len(args), name)
	}

	p := &pairs{}
	start := 2
	if typ == domain.TypeSortedSet {
		var err error
		if p.opts, start, err = parseZAddOptions(args, start); err != nil {
			return nil, err
		}
		if p.opts.Incr && len(args)-start != 2 {
			return nil, domain.ErrInvalidArgument.WithDetailsf(
				"wrong number of tokens after INCR flag specified: Need 2 but found %d for command: %s", len(args)-start, name)
		}
	}

	if rest := len(args) - start; rest%2 == 1 || rest == 0 {
		return nil, domain.ErrInvalidArgument.WithDetailsf(
			"Expect even and non-zero number of arguments for command: %s, found %d", name, rest)
	}

	index := make(map[string]int, (len(args)-start)/2)
	for i := start; i < len(args); i += 2 {
		tok := string(args[i])
		switch {
		case typ == domain.TypeTimeSeries && (tok == expireAt || tok == expireIn):
			if i+2 != len(args) {
				return nil, domain.ErrInvalidCommand.WithDetailsf("%s should be at the end of the command", tok)
			}
			v, err := parseInt64(args[i+1], tok)
			if err != nil {
				return nil, err
			}
			if tok == expireAt {
				v -= t.now().Unix()
			}
			if p.ttl, err = ttlSeconds(v); err != nil {
				return nil, err
			}
		case typ == domain.TypeSortedSet:
			p.put(string(args[i+1]), args[i], index)
		default:
			p.put(tok, args[i+1], index)
		}
	}
	return p, nil
}

// ============================================================================
// Collections
// ============================================================================

// subKeys returns args as strings. With dedupe the result is unique and in
// byte order, otherwise the given order is kept.
func subKeys(args [][]byte, dedupe bool) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}
	if dedupe {
		slices.Sort(out)
		out = slices.Compact(out)
	}
	return out
}

// timestamps parses args as unique ascending timestamps.
func timestamps(args [][]byte) ([]int64, error) {
	out := make([]int64, len(args))
	for i, a := range args {
		v, err := parseTimestamp(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// ============================================================================
// Range bounds
// ============================================================================

// parseRangeBound parses a score or timestamp bound: "+inf", "-inf", or a
// value optionally prefixed with "(" for an exclusive bound.
func parseRangeBound(arg []byte, typ domain.DataType) (domain.Bound, error) {
	if len(arg) == 0 {
		return domain.Bound{}, domain.ErrInvalidCommand.WithDetails("range bound key cannot be empty")
	}
	var b domain.Bound
	if arg[0] == '(' && len(arg) > 1 {
		b.Exclusive = true
		arg = arg[1:]
	}
	switch string(arg) {
	case "+inf":
		return domain.PosInf, nil
	case "-inf":
		return domain.NegInf, nil
	}

	var err error
	if typ == domain.TypeTimeSeries {
		b.Int, err = parseTimestamp(arg)
	} else {
		b.Score, err = parseScore(arg)
	}
	if err != nil {
		return domain.Bound{}, err
	}
	return b, nil
}

// parseIndexBound parses an index bound. Infinities are not accepted.
func parseIndexBound(arg []byte) (domain.Bound, error) {
	if len(arg) == 0 {
		return domain.Bound{}, domain.ErrInvalidArgument.WithDetails("range bound index cannot be empty")
	}
	var b domain.Bound
	if arg[0] == '(' && len(arg) > 1 {
		b.Exclusive = true
		arg = arg[1:]
	}
	v, err := parseInt64(arg, "index")
	if err != nil {
		return domain.Bound{}, err
	}
	b.Int = v
	return b, nil
}
