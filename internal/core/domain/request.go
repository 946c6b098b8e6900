package domain

import (
	"strconv"
	"time"
)

// DataType is the type of value a document holds.
type DataType uint8

const (
	TypeNone DataType = iota
	TypeString
	TypeHash
	TypeSet
	TypeSortedSet
	TypeTimeSeries
)

// String returns the Redis TYPE name.
func (t DataType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeString:
		return "string"
	case TypeHash:
		return "hash"
	case TypeSet:
		return "set"
	case TypeSortedSet:
		return "zset"
	case TypeTimeSeries:
		return "timeseries"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// WriteMode controls whether a write may create or replace a value.
type WriteMode uint8

const (
	// WriteModeUpsert writes unconditionally.
	WriteModeUpsert WriteMode = iota
	// WriteModeInsert writes only if the key does not exist (NX).
	WriteModeInsert
	// WriteModeUpdate writes only if the key exists (XX).
	WriteModeUpdate
)

func (m WriteMode) String() string {
	switch m {
	case WriteModeInsert:
		return "insert"
	case WriteModeUpdate:
		return "update"
	default:
		return "upsert"
	}
}

// Request is a structured operation on a single document. The set of
// variants is closed: only the request types of this package implement it.
type Request interface {
	// DocKey returns the key of the document the request targets.
	DocKey() string
	// IsWrite reports whether the request may modify the document.
	IsWrite() bool

	isRequest()
}

// ============================================================================
// String Requests
// ============================================================================

// SetRequest is SET and its variants (SETEX, PSETEX, SETNX).
type SetRequest struct {
	Key   string
	Value []byte
	TTL   time.Duration // whole milliseconds; 0 means no expiry
	Mode  WriteMode
	// ReplyInteger is set for SETNX, which replies 1 or 0 instead of
	// +OK or a null bulk.
	ReplyInteger bool
}

// GetSetRequest is GETSET.
type GetSetRequest struct {
	Key   string
	Value []byte
}

// AppendRequest is APPEND.
type AppendRequest struct {
	Key   string
	Value []byte
}

// SetRangeRequest is SETRANGE.
type SetRangeRequest struct {
	Key    string
	Offset int32
	Value  []byte
}

// IncrRequest is INCR, INCRBY, DECR, DECRBY on strings and HINCRBY on
// hashes. Field is only set for hashes.
type IncrRequest struct {
	Key   string
	Type  DataType
	Field string
	Delta int64
}

// DeleteRequest is DEL of a single key.
type DeleteRequest struct {
	Key string
}

// GetRequest is GET.
type GetRequest struct {
	Key string
}

// StrLenRequest is STRLEN.
type StrLenRequest struct {
	Key string
}

// ExistsRequest is EXISTS of a single key.
type ExistsRequest struct {
	Key string
}

// GetRangeRequest is GETRANGE. Negative offsets count from the end.
type GetRangeRequest struct {
	Key   string
	Start int32
	End   int32
}

// ============================================================================
// Collection Requests
// ============================================================================

// FieldValue is one field of a hash write.
type FieldValue struct {
	Field string
	Value []byte
}

// HashSetRequest is HSET and HMSET.
type HashSetRequest struct {
	Key    string
	Fields []FieldValue
	// ReplyOK is set for HMSET, which replies +OK instead of a count.
	ReplyOK bool
}

// SetAddRequest is SADD. Members are unique and sorted.
type SetAddRequest struct {
	Key     string
	Members []string
}

// ZAddOptions are the ZADD flags.
type ZAddOptions struct {
	CH   bool
	Incr bool
	NX   bool
	XX   bool
}

// ScoredMember is one member of a sorted set write.
type ScoredMember struct {
	Member string
	Score  float64
}

// SortedSetAddRequest is ZADD.
type SortedSetAddRequest struct {
	Key     string
	Members []ScoredMember
	Options ZAddOptions
}

// TimeSeriesEntry is one sample of a time series write.
type TimeSeriesEntry struct {
	Timestamp int64
	Value     []byte
}

// TimeSeriesAddRequest is TSADD.
type TimeSeriesAddRequest struct {
	Key     string
	Entries []TimeSeriesEntry
	TTL     time.Duration // whole milliseconds; 0 means no expiry
}

// SubKeyDeleteRequest is HDEL, SREM and ZREM. SubKeys are unique and sorted.
type SubKeyDeleteRequest struct {
	Key     string
	Type    DataType
	SubKeys []string
}

// TimeSeriesRemoveRequest is TSREM. Timestamps are unique and ascending.
type TimeSeriesRemoveRequest struct {
	Key        string
	Timestamps []int64
}

// CollectionOp selects what a CollectionGetRequest reads.
type CollectionOp uint8

const (
	OpHGet CollectionOp = iota
	OpHMGet
	OpHStrLen
	OpHExists
	OpHGetAll
	OpHKeys
	OpHVals
	OpHLen
	OpSMembers
	OpSIsMember
	OpSCard
	OpZCard
	OpTSCard
)

var collectionOpNames = [...]string{
	OpHGet:      "hget",
	OpHMGet:     "hmget",
	OpHStrLen:   "hstrlen",
	OpHExists:   "hexists",
	OpHGetAll:   "hgetall",
	OpHKeys:     "hkeys",
	OpHVals:     "hvals",
	OpHLen:      "hlen",
	OpSMembers:  "smembers",
	OpSIsMember: "sismember",
	OpSCard:     "scard",
	OpZCard:     "zcard",
	OpTSCard:    "tscard",
}

func (o CollectionOp) String() string {
	if int(o) < len(collectionOpNames) {
		return collectionOpNames[o]
	}
	return "unknown(" + strconv.Itoa(int(o)) + ")"
}

// Type returns the document type the operation reads.
func (o CollectionOp) Type() DataType {
	switch o {
	case OpSMembers, OpSIsMember, OpSCard:
		return TypeSet
	case OpZCard:
		return TypeSortedSet
	case OpTSCard:
		return TypeTimeSeries
	default:
		return TypeHash
	}
}

// CollectionGetRequest reads fields or members of a hash or set, or the
// cardinality of any collection. SubKeys keep the order they were given in.
type CollectionGetRequest struct {
	Key     string
	Op      CollectionOp
	SubKeys []string
}

// TimeSeriesGetRequest is TSGET.
type TimeSeriesGetRequest struct {
	Key       string
	Timestamp int64
}

// RangeRequest is ZRANGEBYSCORE, TSRANGEBYTIME and TSLASTN.
type RangeRequest struct {
	Key        string
	Type       DataType // TypeSortedSet or TypeTimeSeries
	Min        Bound
	Max        Bound
	WithScores bool
	// Last keeps only the newest Last entries when positive.
	Last int32
}

// IndexRangeRequest is ZREVRANGE.
type IndexRangeRequest struct {
	Key        string
	Start      Bound
	Stop       Bound
	WithScores bool
	Reverse    bool
}

func (r *SetRequest) DocKey() string              { return r.Key }
func (r *GetSetRequest) DocKey() string           { return r.Key }
func (r *AppendRequest) DocKey() string           { return r.Key }
func (r *SetRangeRequest) DocKey() string         { return r.Key }
func (r *IncrRequest) DocKey() string             { return r.Key }
func (r *DeleteRequest) DocKey() string           { return r.Key }
func (r *GetRequest) DocKey() string              { return r.Key }
func (r *StrLenRequest) DocKey() string           { return r.Key }
func (r *ExistsRequest) DocKey() string           { return r.Key }
func (r *GetRangeRequest) DocKey() string         { return r.Key }
func (r *HashSetRequest) DocKey() string          { return r.Key }
func (r *SetAddRequest) DocKey() string           { return r.Key }
func (r *SortedSetAddRequest) DocKey() string     { return r.Key }
func (r *TimeSeriesAddRequest) DocKey() string    { return r.Key }
func (r *SubKeyDeleteRequest) DocKey() string     { return r.Key }
func (r *TimeSeriesRemoveRequest) DocKey() string { return r.Key }
func (r *CollectionGetRequest) DocKey() string    { return r.Key }
func (r *TimeSeriesGetRequest) DocKey() string    { return r.Key }
func (r *RangeRequest) DocKey() string            { return r.Key }
func (r *IndexRangeRequest) DocKey() string       { return r.Key }

func (*SetRequest) IsWrite() bool              { return true }
func (*GetSetRequest) IsWrite() bool           { return true }
func (*AppendRequest) IsWrite() bool           { return true }
func (*SetRangeRequest) IsWrite() bool         { return true }
func (*IncrRequest) IsWrite() bool             { return true }
func (*DeleteRequest) IsWrite() bool           { return true }
func (*HashSetRequest) IsWrite() bool          { return true }
func (*SetAddRequest) IsWrite() bool           { return true }
func (*SortedSetAddRequest) IsWrite() bool     { return true }
func (*TimeSeriesAddRequest) IsWrite() bool    { return true }
func (*SubKeyDeleteRequest) IsWrite() bool     { return true }
func (*TimeSeriesRemoveRequest) IsWrite() bool { return true }
func (*GetRequest) IsWrite() bool              { return false }
func (*StrLenRequest) IsWrite() bool           { return false }
func (*ExistsRequest) IsWrite() bool           { return false }
func (*GetRangeRequest) IsWrite() bool         { return false }
func (*CollectionGetRequest) IsWrite() bool    { return false }
func (*TimeSeriesGetRequest) IsWrite() bool    { return false }
func (*RangeRequest) IsWrite() bool            { return false }
func (*IndexRangeRequest) IsWrite() bool       { return false }

func (*SetRequest) isRequest()              {}
func (*GetSetRequest) isRequest()           {}
func (*AppendRequest) isRequest()           {}
func (*SetRangeRequest) isRequest()         {}
func (*IncrRequest) isRequest()             {}
func (*DeleteRequest) isRequest()           {}
func (*GetRequest) isRequest()              {}
func (*StrLenRequest) isRequest()           {}
func (*ExistsRequest) isRequest()           {}
func (*GetRangeRequest) isRequest()         {}
func (*HashSetRequest) isRequest()          {}
func (*SetAddRequest) isRequest()           {}
func (*SortedSetAddRequest) isRequest()     {}
func (*TimeSeriesAddRequest) isRequest()    {}
func (*SubKeyDeleteRequest) isRequest()     {}
func (*TimeSeriesRemoveRequest) isRequest() {}
func (*CollectionGetRequest) isRequest()    {}
func (*TimeSeriesGetRequest) isRequest()    {}
func (*RangeRequest) isRequest()            {}
func (*IndexRangeRequest) isRequest()       {}
