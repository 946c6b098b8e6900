package translate

import (
	"github.com/yndnr/yedis-go/internal/core/domain"
)

// ============================================================================
// Hashes
// ============================================================================

func parseHSet(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.HashSetRequest{
		Key:    string(args[1]),
		Fields: []domain.FieldValue{{Field: string(args[2]), Value: args[3]}},
	}, nil
}

func parseHMSet(t *Translator, args [][]byte) (domain.Request, error) {
	p, err := t.parsePairs(args, domain.TypeHash)
	if err != nil {
		return nil, err
	}
	req := &domain.HashSetRequest{
		Key:     string(args[1]),
		Fields:  make([]domain.FieldValue, len(p.keys)),
		ReplyOK: true,
	}
	for i, k := range p.keys {
		req.Fields[i] = domain.FieldValue{Field: k, Value: p.values[i]}
	}
	return req, nil
}

func parseHIncrBy(_ *Translator, args [][]byte) (domain.Request, error) {
	delta, err := parseInt64(args[3], "INCR_BY")
	if err != nil {
		return nil, err
	}
	return &domain.IncrRequest{
		Key:   string(args[1]),
		Type:  domain.TypeHash,
		Field: string(args[2]),
		Delta: delta,
	}, nil
}

func parseHDel(_ *Translator, args [][]byte) (domain.Request, error) {
	return subKeyDelete(args, domain.TypeHash), nil
}

// collectionGet builds the handler of a read that addresses sub-keys in the
// order they were given.
func collectionGet(op domain.CollectionOp) handler {
	return func(_ *Translator, args [][]byte) (domain.Request, error) {
		return &domain.CollectionGetRequest{
			Key:     string(args[1]),
			Op:      op,
			SubKeys: subKeys(args[2:], false),
		}, nil
	}
}

func subKeyDelete(args [][]byte, typ domain.DataType) *domain.SubKeyDeleteRequest {
	return &domain.SubKeyDeleteRequest{
		Key:     string(args[1]),
		Type:    typ,
		SubKeys: subKeys(args[2:], true),
	}
}

// ============================================================================
// Sets
// ============================================================================

func parseSAdd(_ *Translator, args [][]byte) (domain.Request, error) {
	return &domain.SetAddRequest{
		Key:     string(args[1]),
		Members: subKeys(args[2:], true),
	}, nil
}

func parseSRem(_ *Translator, args [][]byte) (domain.Request, error) {
	return subKeyDelete(args, domain.TypeSet), nil
}

// ============================================================================
// Sorted sets
// ============================================================================

func parseZAdd(t *Translator, args [][]byte) (domain.Request, error) {
	p, err := t.parsePairs(args, domain.TypeSortedSet)
	if err != nil {
		return nil, err
	}
	req := &domain.SortedSetAddRequest{
		Key:     string(args[1]),
		Members: make([]domain.ScoredMember, len(p.keys)),
		Options: p.opts,
	}
	for i, member := range p.keys {
		score, err := parseScore(p.values[i])
		if err != nil {
			return nil, err
		}
		req.Members[i] = domain.ScoredMember{Member: member, Score: score}
	}
	return req, nil
}

func parseZRem(_ *Translator, args [][]byte) (domain.Request, error) {
	return subKeyDelete(args, domain.TypeSortedSet), nil
}

func parseZRangeByScore(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args) > 5 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("Expected at most 5 arguments, found %d", len(args))
	}
	lo, err := parseRangeBound(args[2], domain.TypeSortedSet)
	if err != nil {
		return nil, err
	}
	hi, err := parseRangeBound(args[3], domain.TypeSortedSet)
	if err != nil {
		return nil, err
	}
	req := &domain.RangeRequest{Key: string(args[1]), Type: domain.TypeSortedSet, Min: lo, Max: hi}
	if len(args) == 5 {
		if err := parseWithScores(args[4]); err != nil {
			return nil, err
		}
		req.WithScores = true
	}
	return req, nil
}

func parseZRevRange(_ *Translator, args [][]byte) (domain.Request, error) {
	if len(args) > 5 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("Expected at most 5 arguments, found %d", len(args))
	}
	start, err := parseIndexBound(args[2])
	if err != nil {
		return nil, err
	}
	stop, err := parseIndexBound(args[3])
	if err != nil {
		return nil, err
	}
	req := &domain.IndexRangeRequest{Key: string(args[1]), Start: start, Stop: stop, Reverse: true}
	if len(args) == 5 {
		if err := parseWithScores(args[4]); err != nil {
			return nil, err
		}
		req.WithScores = true
	}
	return req, nil
}

// ============================================================================
// Time series
// ============================================================================

func parseTsAdd(t *Translator, args [][]byte) (domain.Request, error) {
	p, err := t.parsePairs(args, domain.TypeTimeSeries)
	if err != nil {
		return nil, err
	}
	if len(p.keys) == 0 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("%s requires at least one timestamp and value", args[0])
	}
	req := &domain.TimeSeriesAddRequest{
		Key:     string(args[1]),
		Entries: make([]domain.TimeSeriesEntry, len(p.keys)),
		TTL:     p.ttl,
	}
	for i, k := range p.keys {
		ts, err := parseTimestamp([]byte(k))
		if err != nil {
			return nil, err
		}
		req.Entries[i] = domain.TimeSeriesEntry{Timestamp: ts, Value: p.values[i]}
	}
	return req, nil
}

func parseTsRem(_ *Translator, args [][]byte) (domain.Request, error) {
	ts, err := timestamps(args[2:])
	if err != nil {
		return nil, err
	}
	return &domain.TimeSeriesRemoveRequest{Key: string(args[1]), Timestamps: ts}, nil
}

func parseTsGet(_ *Translator, args [][]byte) (domain.Request, error) {
	ts, err := parseTimestamp(args[2])
	if err != nil {
		return nil, err
	}
	return &domain.TimeSeriesGetRequest{Key: string(args[1]), Timestamp: ts}, nil
}

func parseTsRangeByTime(_ *Translator, args [][]byte) (domain.Request, error) {
	lo, err := parseRangeBound(args[2], domain.TypeTimeSeries)
	if err != nil {
		return nil, err
	}
	hi, err := parseRangeBound(args[3], domain.TypeTimeSeries)
	if err != nil {
		return nil, err
	}
	return &domain.RangeRequest{Key: string(args[1]), Type: domain.TypeTimeSeries, Min: lo, Max: hi}, nil
}

// TSLASTN is TSRANGEBYTIME -inf +inf keeping the newest entries.
func parseTsLastN(_ *Translator, args [][]byte) (domain.Request, error) {
	limit, err := parseInt32(args[2], "limit")
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, domain.ErrInvalidArgument.WithDetailsf("limit field %q must be positive", args[2])
	}
	return &domain.RangeRequest{
		Key:  string(args[1]),
		Type: domain.TypeTimeSeries,
		Min:  domain.NegInf,
		Max:  domain.PosInf,
		Last: limit,
	}, nil
}
