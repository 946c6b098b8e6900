package service

import (
	"fmt"
	"math"
	"slices"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/yndnr/yedis-go/internal/core/domain"
)

// document is the value stored under one key.
//
// Only the map matching Type is populated. Sets use Members, sorted sets
// use Scores and time series use Samples.
type document struct {
	Type     domain.DataType
	ExpireAt int64 // Unix milliseconds, 0 = no expiry
	Value    []byte
	Fields   map[string][]byte
	Members  map[string]struct{}
	Scores   map[string]float64
	Samples  map[int64][]byte
}

func newDocument(typ domain.DataType) *document {
	d := &document{Type: typ}
	switch typ {
	case domain.TypeHash:
		d.Fields = make(map[string][]byte)
	case domain.TypeSet:
		d.Members = make(map[string]struct{})
	case domain.TypeSortedSet:
		d.Scores = make(map[string]float64)
	case domain.TypeTimeSeries:
		d.Samples = make(map[int64][]byte)
	}
	return d
}

// expired reports whether the document has expired at nowMs.
func (d *document) expired(nowMs int64) bool {
	return d.ExpireAt > 0 && d.ExpireAt <= nowMs
}

// size returns the number of elements of a collection.
func (d *document) size() int {
	switch d.Type {
	case domain.TypeHash:
		return len(d.Fields)
	case domain.TypeSet:
		return len(d.Members)
	case domain.TypeSortedSet:
		return len(d.Scores)
	case domain.TypeTimeSeries:
		return len(d.Samples)
	default:
		return 0
	}
}

// Record field numbers.
const (
	fieldType     protowire.Number = 1
	fieldExpireAt protowire.Number = 2
	fieldValue    protowire.Number = 3
	fieldEntry    protowire.Number = 4
)

// Entry field numbers.
const (
	entryKey       protowire.Number = 1
	entryValue     protowire.Number = 2
	entryScore     protowire.Number = 3
	entryTimestamp protowire.Number = 4
)

// encodeDocument serialises d in protobuf wire format. Entries are written
// in key order so equal documents encode to equal bytes.
func encodeDocument(d *document) []byte {
	b := make([]byte, 0, 16+len(d.Value))
	b = protowire.AppendTag(b, fieldType, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(d.Type))
	if d.ExpireAt > 0 {
		b = protowire.AppendTag(b, fieldExpireAt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.ExpireAt))
	}

	var entry []byte
	appendEntry := func(build func([]byte) []byte) {
		entry = build(entry[:0])
		b = protowire.AppendTag(b, fieldEntry, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}

	switch d.Type {
	case domain.TypeString:
		b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
		b = protowire.AppendBytes(b, d.Value)
	case domain.TypeHash:
		for _, k := range sortedKeys(d.Fields) {
			appendEntry(func(e []byte) []byte {
				e = appendStringField(e, entryKey, k)
				e = protowire.AppendTag(e, entryValue, protowire.BytesType)
				return protowire.AppendBytes(e, d.Fields[k])
			})
		}
	case domain.TypeSet:
		for _, k := range sortedKeys(d.Members) {
			appendEntry(func(e []byte) []byte {
				return appendStringField(e, entryKey, k)
			})
		}
	case domain.TypeSortedSet:
		for _, k := range sortedKeys(d.Scores) {
			appendEntry(func(e []byte) []byte {
				e = appendStringField(e, entryKey, k)
				e = protowire.AppendTag(e, entryScore, protowire.Fixed64Type)
				return protowire.AppendFixed64(e, math.Float64bits(d.Scores[k]))
			})
		}
	case domain.TypeTimeSeries:
		for _, ts := range sortedKeys(d.Samples) {
			appendEntry(func(e []byte) []byte {
				e = protowire.AppendTag(e, entryTimestamp, protowire.VarintType)
				e = protowire.AppendVarint(e, protowire.EncodeZigZag(ts))
				e = protowire.AppendTag(e, entryValue, protowire.BytesType)
				return protowire.AppendBytes(e, d.Samples[ts])
			})
		}
	}
	return b
}

func appendStringField(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func sortedKeys[K int64 | string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// decodeDocument parses a record written by encodeDocument. Unknown fields
// are skipped.
func decodeDocument(b []byte) (*document, error) {
	d := &document{}
	var entries [][]byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode record tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldType && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode record type: %w", protowire.ParseError(n))
			}
			d.Type = domain.DataType(v)
			b = b[n:]
		case num == fieldExpireAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode record expiry: %w", protowire.ParseError(n))
			}
			d.ExpireAt = int64(v)
			b = b[n:]
		case num == fieldValue && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode record value: %w", protowire.ParseError(n))
			}
			d.Value = v
			b = b[n:]
		case num == fieldEntry && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("decode record entry: %w", protowire.ParseError(n))
			}
			entries = append(entries, v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("skip record field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if d.Type == domain.TypeNone || d.Type > domain.TypeTimeSeries {
		return nil, fmt.Errorf("decode record: invalid type %d", d.Type)
	}
	if d.Type != domain.TypeString {
		nd := newDocument(d.Type)
		nd.ExpireAt = d.ExpireAt
		d = nd
	}
	for _, e := range entries {
		if err := d.decodeEntry(e); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *document) decodeEntry(b []byte) error {
	var (
		key   []byte
		value []byte
		score float64
		ts    int64
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("decode entry tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == entryKey && typ == protowire.BytesType:
			key, n = protowire.ConsumeBytes(b)
		case num == entryValue && typ == protowire.BytesType:
			value, n = protowire.ConsumeBytes(b)
		case num == entryScore && typ == protowire.Fixed64Type:
			var v uint64
			v, n = protowire.ConsumeFixed64(b)
			score = math.Float64frombits(v)
		case num == entryTimestamp && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			ts = protowire.DecodeZigZag(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("decode entry field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}

	switch d.Type {
	case domain.TypeHash:
		d.Fields[string(key)] = value
	case domain.TypeSet:
		d.Members[string(key)] = struct{}{}
	case domain.TypeSortedSet:
		d.Scores[string(key)] = score
	case domain.TypeTimeSeries:
		d.Samples[ts] = value
	}
	return nil
}
