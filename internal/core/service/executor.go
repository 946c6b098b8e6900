package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/yedis-go/internal/core/domain"
	"github.com/yndnr/yedis-go/internal/storage"
)

// docPrefix namespaces documents inside the KV engine.
const docPrefix = "d/"

// ExecutorConfig holds configuration for Executor.
type ExecutorConfig struct {
	// LockStripes is the number of key lock stripes (default: 256).
	LockStripes int

	// MaxValueSize bounds string values built by APPEND and SETRANGE
	// (default: 512MB).
	MaxValueSize int64

	// SweepInterval is the interval between expired-key sweeps. Zero
	// disables the sweeper; expired keys are still hidden from reads.
	SweepInterval time.Duration

	// Clock returns the current time (default: time.Now).
	Clock func() time.Time

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultExecutorConfig returns default configuration.
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{
		LockStripes:   256,
		MaxValueSize:  512 << 20,
		SweepInterval: time.Minute,
	}
}

// Executor applies requests to a KV engine. Requests on the same key are
// serialised through a striped lock; requests on different keys run in
// parallel.
type Executor struct {
	engine       storage.KVEngine
	locks        []sync.RWMutex
	maxValueSize int64
	now          func() time.Time
	logger       *slog.Logger

	sweepInterval time.Duration
	stopCh        chan struct{}
	doneCh        chan struct{}
	startOnce     sync.Once
	stopOnce      sync.Once
}

// NewExecutor creates an Executor over engine.
func NewExecutor(engine storage.KVEngine, config *ExecutorConfig) *Executor {
	defaults := DefaultExecutorConfig()
	if config == nil {
		config = defaults
	}
	stripes := config.LockStripes
	if stripes <= 0 {
		stripes = defaults.LockStripes
	}
	maxValueSize := config.MaxValueSize
	if maxValueSize <= 0 {
		maxValueSize = defaults.MaxValueSize
	}
	now := config.Clock
	if now == nil {
		now = time.Now
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		engine:        engine,
		locks:         make([]sync.RWMutex, stripes),
		maxValueSize:  maxValueSize,
		now:           now,
		logger:        logger,
		sweepInterval: config.SweepInterval,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

func (x *Executor) lockFor(key string) *sync.RWMutex {
	return &x.locks[murmur3.Sum32([]byte(key))%uint32(len(x.locks))]
}

func (x *Executor) nowMs() int64 {
	return x.now().UnixMilli()
}

// Execute applies req and returns its result.
func (x *Executor) Execute(ctx context.Context, req domain.Request) (Result, error) {
	mu := x.lockFor(req.DocKey())
	if req.IsWrite() {
		mu.Lock()
		defer mu.Unlock()
	} else {
		mu.RLock()
		defer mu.RUnlock()
	}

	switch r := req.(type) {
	// Strings
	case *domain.SetRequest:
		return x.set(ctx, r)
	case *domain.GetRequest:
		return x.get(ctx, r)
	case *domain.GetSetRequest:
		return x.getSet(ctx, r)
	case *domain.AppendRequest:
		return x.appendValue(ctx, r)
	case *domain.StrLenRequest:
		return x.strLen(ctx, r)
	case *domain.GetRangeRequest:
		return x.getRange(ctx, r)
	case *domain.SetRangeRequest:
		return x.setRange(ctx, r)
	case *domain.IncrRequest:
		return x.incr(ctx, r)
	case *domain.DeleteRequest:
		return x.del(ctx, r)
	case *domain.ExistsRequest:
		return x.exists(ctx, r)

	// Collections
	case *domain.HashSetRequest:
		return x.hashSet(ctx, r)
	case *domain.SetAddRequest:
		return x.setAdd(ctx, r)
	case *domain.SortedSetAddRequest:
		return x.zadd(ctx, r)
	case *domain.TimeSeriesAddRequest:
		return x.tsAdd(ctx, r)
	case *domain.SubKeyDeleteRequest:
		return x.subKeyDelete(ctx, r)
	case *domain.TimeSeriesRemoveRequest:
		return x.tsRemove(ctx, r)
	case *domain.CollectionGetRequest:
		return x.collectionGet(ctx, r)
	case *domain.TimeSeriesGetRequest:
		return x.tsGet(ctx, r)
	case *domain.RangeRequest:
		return x.rangeQuery(ctx, r)
	case *domain.IndexRangeRequest:
		return x.indexRange(ctx, r)
	default:
		return Result{}, domain.ErrNotSupported.WithDetailsf("request type %T", req)
	}
}

// ============================================================================
// Document access
// ============================================================================

func docKey(key string) []byte {
	return append([]byte(docPrefix), key...)
}

// load returns the live document under key, or nil when the key is missing
// or expired.
func (x *Executor) load(ctx context.Context, key string) (*document, error) {
	raw, err := x.engine.Get(ctx, docKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, domain.ErrStorageError.Wrap(err)
	}
	d, err := decodeDocument(raw)
	if err != nil {
		return nil, domain.ErrStorageError.Wrap(fmt.Errorf("key %q: %w", key, err))
	}
	if d.expired(x.nowMs()) {
		return nil, nil
	}
	return d, nil
}

// loadTyped is load followed by a type check. A missing key yields nil.
func (x *Executor) loadTyped(ctx context.Context, key string, typ domain.DataType) (*document, error) {
	d, err := x.load(ctx, key)
	if err != nil || d == nil {
		return nil, err
	}
	if d.Type != typ {
		return nil, domain.ErrWrongType
	}
	return d, nil
}

// loadOrCreate returns the document under key, or a new empty document of
// the given type.
func (x *Executor) loadOrCreate(ctx context.Context, key string, typ domain.DataType) (*document, error) {
	d, err := x.loadTyped(ctx, key, typ)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = newDocument(typ)
	}
	return d, nil
}

// store writes d under key. Empty collections are deleted.
func (x *Executor) store(ctx context.Context, key string, d *document) error {
	if d.Type != domain.TypeString && d.size() == 0 {
		return x.remove(ctx, key)
	}
	if err := x.engine.Set(ctx, docKey(key), encodeDocument(d)); err != nil {
		return domain.ErrStorageError.Wrap(err)
	}
	return nil
}

func (x *Executor) remove(ctx context.Context, key string) error {
	if err := x.engine.Delete(ctx, docKey(key)); err != nil {
		return domain.ErrStorageError.Wrap(err)
	}
	return nil
}

func (x *Executor) expireAt(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return x.nowMs() + ttl.Milliseconds()
}

// ============================================================================
// Expiry sweeper
// ============================================================================

// Start launches the background sweeper when SweepInterval is set.
func (x *Executor) Start() {
	x.startOnce.Do(func() {
		if x.sweepInterval <= 0 {
			close(x.doneCh)
			return
		}
		go x.sweepLoop()
	})
}

// Stop stops the sweeper and waits for it to exit.
func (x *Executor) Stop() {
	x.startOnce.Do(func() { close(x.doneCh) })
	x.stopOnce.Do(func() { close(x.stopCh) })
	<-x.doneCh
}

func (x *Executor) sweepLoop() {
	defer close(x.doneCh)

	ticker := time.NewTicker(x.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), x.sweepInterval)
			n, err := x.Sweep(ctx)
			cancel()
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				x.logger.Error("expiry sweep failed", "error", err)
				continue
			}
			if n > 0 {
				x.logger.Debug("expiry sweep", "deleted", n)
			}
		case <-x.stopCh:
			return
		}
	}
}

// Sweep deletes every expired document and returns how many were removed.
func (x *Executor) Sweep(ctx context.Context) (int, error) {
	nowMs := x.nowMs()
	var expired []string
	err := x.engine.Scan(ctx, []byte(docPrefix), func(key, value []byte) bool {
		d, err := decodeDocument(value)
		if err == nil && d.expired(nowMs) {
			expired = append(expired, string(key[len(docPrefix):]))
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, key := range expired {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		ok, err := x.deleteIfExpired(ctx, key)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// deleteIfExpired rechecks key under its lock, since it may have been
// rewritten after the scan.
func (x *Executor) deleteIfExpired(ctx context.Context, key string) (bool, error) {
	mu := x.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	raw, err := x.engine.Get(ctx, docKey(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	d, err := decodeDocument(raw)
	if err != nil || !d.expired(x.nowMs()) {
		return false, nil
	}
	return true, x.remove(ctx, key)
}

// ============================================================================
// Strings
// ============================================================================

func (x *Executor) set(ctx context.Context, r *domain.SetRequest) (Result, error) {
	if int64(len(r.Value)) > x.maxValueSize {
		return Result{}, domain.ErrValueTooLarge
	}
	if r.Mode != domain.WriteModeUpsert {
		d, err := x.load(ctx, r.Key)
		if err != nil {
			return Result{}, err
		}
		exists := d != nil
		if (r.Mode == domain.WriteModeInsert && exists) || (r.Mode == domain.WriteModeUpdate && !exists) {
			if r.ReplyInteger {
				return Integer(0), nil
			}
			return Nil(), nil
		}
	}

	d := &document{Type: domain.TypeString, Value: r.Value, ExpireAt: x.expireAt(r.TTL)}
	if err := x.store(ctx, r.Key, d); err != nil {
		return Result{}, err
	}
	if r.ReplyInteger {
		return Integer(1), nil
	}
	return OK(), nil
}

func (x *Executor) get(ctx context.Context, r *domain.GetRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeString)
	if err != nil {
		return Result{}, err
	}
	if d == nil {
		return Nil(), nil
	}
	return Bulk(d.Value), nil
}

func (x *Executor) getSet(ctx context.Context, r *domain.GetSetRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeString)
	if err != nil {
		return Result{}, err
	}
	if err := x.store(ctx, r.Key, &document{Type: domain.TypeString, Value: r.Value}); err != nil {
		return Result{}, err
	}
	if d == nil {
		return Nil(), nil
	}
	return Bulk(d.Value), nil
}

func (x *Executor) appendValue(ctx context.Context, r *domain.AppendRequest) (Result, error) {
	d, err := x.loadOrCreate(ctx, r.Key, domain.TypeString)
	if err != nil {
		return Result{}, err
	}
	if int64(len(d.Value)+len(r.Value)) > x.maxValueSize {
		return Result{}, domain.ErrValueTooLarge
	}
	d.Value = append(d.Value, r.Value...)
	if err := x.store(ctx, r.Key, d); err != nil {
		return Result{}, err
	}
	return Integer(int64(len(d.Value))), nil
}

func (x *Executor) strLen(ctx context.Context, r *domain.StrLenRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeString)
	if err != nil || d == nil {
		return Integer(0), err
	}
	return Integer(int64(len(d.Value))), nil
}

func (x *Executor) getRange(ctx context.Context, r *domain.GetRangeRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeString)
	if err != nil {
		return Result{}, err
	}
	if d == nil {
		return Bulk(nil), nil
	}
	start, end, ok := clampRange(int64(r.Start), int64(r.End), int64(len(d.Value)))
	if !ok {
		return Bulk(nil), nil
	}
	return Bulk(d.Value[start : end+1]), nil
}

// clampRange resolves negative offsets against n and clamps them, as
// GETRANGE does. ok is false for an empty range.
func clampRange(start, end, n int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if n == 0 || end < 0 || start > end {
		return 0, 0, false
	}
	return start, end, true
}

func (x *Executor) setRange(ctx context.Context, r *domain.SetRangeRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeString)
	if err != nil {
		return Result{}, err
	}
	if len(r.Value) == 0 {
		if d == nil {
			return Integer(0), nil
		}
		return Integer(int64(len(d.Value))), nil
	}
	end := int64(r.Offset) + int64(len(r.Value))
	if end > x.maxValueSize {
		return Result{}, domain.ErrValueTooLarge
	}
	if d == nil {
		d = newDocument(domain.TypeString)
	}
	if int64(len(d.Value)) < end {
		d.Value = append(d.Value, make([]byte, end-int64(len(d.Value)))...)
	}
	copy(d.Value[r.Offset:], r.Value)
	if err := x.store(ctx, r.Key, d); err != nil {
		return Result{}, err
	}
	return Integer(int64(len(d.Value))), nil
}

func (x *Executor) incr(ctx context.Context, r *domain.IncrRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, r.Type)
	if err != nil {
		return Result{}, err
	}
	exists := d != nil
	if d == nil {
		d = newDocument(r.Type)
	}

	var current []byte
	if r.Type == domain.TypeHash {
		current, exists = d.Fields[r.Field]
	} else {
		current = d.Value
	}
	n, err := addInt(current, exists, r.Delta)
	if err != nil {
		return Result{}, err
	}
	v := strconv.AppendInt(nil, n, 10)
	if r.Type == domain.TypeHash {
		d.Fields[r.Field] = v
	} else {
		d.Value = v
	}
	if err := x.store(ctx, r.Key, d); err != nil {
		return Result{}, err
	}
	return Integer(n), nil
}

func (x *Executor) del(ctx context.Context, r *domain.DeleteRequest) (Result, error) {
	d, err := x.load(ctx, r.Key)
	if err != nil {
		return Result{}, err
	}
	if d == nil {
		return Integer(0), nil
	}
	if err := x.remove(ctx, r.Key); err != nil {
		return Result{}, err
	}
	return Integer(1), nil
}

func (x *Executor) exists(ctx context.Context, r *domain.ExistsRequest) (Result, error) {
	d, err := x.load(ctx, r.Key)
	if err != nil {
		return Result{}, err
	}
	return boolInt(d != nil), nil
}

// ============================================================================
// Hashes and sets
// ============================================================================

func (x *Executor) hashSet(ctx context.Context, r *domain.HashSetRequest) (Result, error) {
	d, err := x.loadOrCreate(ctx, r.Key, domain.TypeHash)
	if err != nil {
		return Result{}, err
	}
	added := 0
	for _, f := range r.Fields {
		if _, ok := d.Fields[f.Field]; !ok {
			added++
		}
		d.Fields[f.Field] = f.Value
	}
	if err := x.store(ctx, r.Key, d); err != nil {
		return Result{}, err
	}
	if r.ReplyOK {
		return OK(), nil
	}
	return Integer(int64(added)), nil
}

func (x *Executor) setAdd(ctx context.Context, r *domain.SetAddRequest) (Result, error) {
	d, err := x.loadOrCreate(ctx, r.Key, domain.TypeSet)
	if err != nil {
		return Result{}, err
	}
	added := 0
	for _, m := range r.Members {
		if _, ok := d.Members[m]; !ok {
			d.Members[m] = struct{}{}
			added++
		}
	}
	if added > 0 {
		if err := x.store(ctx, r.Key, d); err != nil {
			return Result{}, err
		}
	}
	return Integer(int64(added)), nil
}

func (x *Executor) subKeyDelete(ctx context.Context, r *domain.SubKeyDeleteRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, r.Type)
	if err != nil || d == nil {
		return Integer(0), err
	}
	removed := 0
	for _, k := range r.SubKeys {
		switch r.Type {
		case domain.TypeHash:
			if _, ok := d.Fields[k]; ok {
				delete(d.Fields, k)
				removed++
			}
		case domain.TypeSet:
			if _, ok := d.Members[k]; ok {
				delete(d.Members, k)
				removed++
			}
		case domain.TypeSortedSet:
			if _, ok := d.Scores[k]; ok {
				delete(d.Scores, k)
				removed++
			}
		}
	}
	if removed > 0 {
		if err := x.store(ctx, r.Key, d); err != nil {
			return Result{}, err
		}
	}
	return Integer(int64(removed)), nil
}

func (x *Executor) collectionGet(ctx context.Context, r *domain.CollectionGetRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, r.Op.Type())
	if err != nil {
		return Result{}, err
	}
	if d == nil {
		d = newDocument(r.Op.Type())
	}

	switch r.Op {
	case domain.OpHGet:
		v, ok := d.Fields[r.SubKeys[0]]
		if !ok {
			return Nil(), nil
		}
		return Bulk(v), nil
	case domain.OpHMGet:
		items := make([][]byte, len(r.SubKeys))
		for i, f := range r.SubKeys {
			items[i] = d.Fields[f]
		}
		return Array(items), nil
	case domain.OpHStrLen:
		return Integer(int64(len(d.Fields[r.SubKeys[0]]))), nil
	case domain.OpHExists:
		_, ok := d.Fields[r.SubKeys[0]]
		return boolInt(ok), nil
	case domain.OpHGetAll:
		keys := sortedKeys(d.Fields)
		items := make([][]byte, 0, 2*len(keys))
		for _, k := range keys {
			items = append(items, []byte(k), nonNil(d.Fields[k]))
		}
		return Array(items), nil
	case domain.OpHKeys:
		return Array(stringItems(sortedKeys(d.Fields))), nil
	case domain.OpHVals:
		keys := sortedKeys(d.Fields)
		items := make([][]byte, len(keys))
		for i, k := range keys {
			items[i] = nonNil(d.Fields[k])
		}
		return Array(items), nil
	case domain.OpSMembers:
		return Array(stringItems(sortedKeys(d.Members))), nil
	case domain.OpSIsMember:
		_, ok := d.Members[r.SubKeys[0]]
		return boolInt(ok), nil
	case domain.OpHLen, domain.OpSCard, domain.OpZCard, domain.OpTSCard:
		return Integer(int64(d.size())), nil
	default:
		return Result{}, domain.ErrNotSupported.WithDetailsf("collection read %s", r.Op)
	}
}

func stringItems(keys []string) [][]byte {
	items := make([][]byte, len(keys))
	for i, k := range keys {
		items[i] = []byte(k)
	}
	return items
}

// nonNil keeps empty stored values from turning into null replies.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// ============================================================================
// Sorted sets
// ============================================================================

func (x *Executor) zadd(ctx context.Context, r *domain.SortedSetAddRequest) (Result, error) {
	d, err := x.loadOrCreate(ctx, r.Key, domain.TypeSortedSet)
	if err != nil {
		return Result{}, err
	}

	opts := r.Options
	added, changed := 0, 0
	var incrResult *float64
	for _, m := range r.Members {
		old, exists := d.Scores[m.Member]
		if (opts.NX && exists) || (opts.XX && !exists) {
			continue
		}
		score := m.Score
		if opts.Incr && exists {
			score += old
		}
		if math.IsNaN(score) { // inf + -inf
			return Result{}, domain.ErrNotFloat.WithDetails("resulting score is not a number")
		}
		switch {
		case !exists:
			added++
		case old != score:
			changed++
		}
		d.Scores[m.Member] = score
		if opts.Incr {
			incrResult = &score
		}
	}

	if added > 0 || changed > 0 {
		if err := x.store(ctx, r.Key, d); err != nil {
			return Result{}, err
		}
	}
	if opts.Incr {
		if incrResult == nil {
			return Nil(), nil
		}
		return Bulk(formatScore(*incrResult)), nil
	}
	if opts.CH {
		return Integer(int64(added + changed)), nil
	}
	return Integer(int64(added)), nil
}

type scoredMember struct {
	member string
	score  float64
}

// byScore returns the members ordered by score, then member.
func byScore(d *document) []scoredMember {
	out := make([]scoredMember, 0, len(d.Scores))
	for m, s := range d.Scores {
		out = append(out, scoredMember{m, s})
	}
	slices.SortFunc(out, func(a, b scoredMember) int {
		if c := cmp.Compare(a.score, b.score); c != 0 {
			return c
		}
		return cmp.Compare(a.member, b.member)
	})
	return out
}

func appendScored(items [][]byte, m scoredMember, withScores bool) [][]byte {
	items = append(items, []byte(m.member))
	if withScores {
		items = append(items, formatScore(m.score))
	}
	return items
}

func (x *Executor) indexRange(ctx context.Context, r *domain.IndexRangeRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeSortedSet)
	if err != nil || d == nil {
		return Array(nil), err
	}
	members := byScore(d)
	if r.Reverse {
		for i, j := 0, len(members)-1; i < j; i, j = i+1, j-1 {
			members[i], members[j] = members[j], members[i]
		}
	}

	lo, hi, ok := indexWindow(r.Start, r.Stop, int64(len(members)))
	if !ok {
		return Array(nil), nil
	}
	var items [][]byte
	for _, m := range members[lo : hi+1] {
		items = appendScored(items, m, r.WithScores)
	}
	return Array(items), nil
}

// indexWindow resolves index bounds against n. Negative indices count from
// the end; an exclusive bound then moves one step inward.
func indexWindow(start, stop domain.Bound, n int64) (int64, int64, bool) {
	lo, hi := start.Int, stop.Int
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}
	if start.Exclusive {
		if lo == math.MaxInt64 {
			return 0, 0, false
		}
		lo++
	}
	if stop.Exclusive {
		if hi == math.MinInt64 {
			return 0, 0, false
		}
		hi--
	}
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	if n == 0 || hi < 0 || lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// ============================================================================
// Ranges and time series
// ============================================================================

func (x *Executor) rangeQuery(ctx context.Context, r *domain.RangeRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, r.Type)
	if err != nil || d == nil {
		return Array(nil), err
	}

	var items [][]byte
	if r.Type == domain.TypeSortedSet {
		for _, m := range byScore(d) {
			if r.Min.AboveLowerScore(m.score) && r.Max.BelowUpperScore(m.score) {
				items = appendScored(items, m, r.WithScores)
			}
		}
		return Array(items), nil
	}

	var stamps []int64
	for _, ts := range sortedKeys(d.Samples) {
		if r.Min.AboveLowerInt(ts) && r.Max.BelowUpperInt(ts) {
			stamps = append(stamps, ts)
		}
	}
	if r.Last > 0 && len(stamps) > int(r.Last) {
		stamps = stamps[len(stamps)-int(r.Last):]
	}
	for _, ts := range stamps {
		items = append(items, strconv.AppendInt(nil, ts, 10), nonNil(d.Samples[ts]))
	}
	return Array(items), nil
}

func (x *Executor) tsAdd(ctx context.Context, r *domain.TimeSeriesAddRequest) (Result, error) {
	d, err := x.loadOrCreate(ctx, r.Key, domain.TypeTimeSeries)
	if err != nil {
		return Result{}, err
	}
	for _, e := range r.Entries {
		d.Samples[e.Timestamp] = e.Value
	}
	if r.TTL > 0 {
		d.ExpireAt = x.expireAt(r.TTL)
	}
	if err := x.store(ctx, r.Key, d); err != nil {
		return Result{}, err
	}
	return OK(), nil
}

func (x *Executor) tsRemove(ctx context.Context, r *domain.TimeSeriesRemoveRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeTimeSeries)
	if err != nil || d == nil {
		return OK(), err
	}
	removed := false
	for _, ts := range r.Timestamps {
		if _, ok := d.Samples[ts]; ok {
			delete(d.Samples, ts)
			removed = true
		}
	}
	if removed {
		if err := x.store(ctx, r.Key, d); err != nil {
			return Result{}, err
		}
	}
	return OK(), nil
}

func (x *Executor) tsGet(ctx context.Context, r *domain.TimeSeriesGetRequest) (Result, error) {
	d, err := x.loadTyped(ctx, r.Key, domain.TypeTimeSeries)
	if err != nil || d == nil {
		return Nil(), err
	}
	v, ok := d.Samples[r.Timestamp]
	if !ok {
		return Nil(), nil
	}
	return Bulk(v), nil
}

// ============================================================================
// Integers
// ============================================================================

// addInt parses current as a decimal int64 and adds delta. A value that
// does not exist counts as 0.
func addInt(current []byte, exists bool, delta int64) (int64, error) {
	var n int64
	if exists {
		v, err := strconv.ParseInt(string(current), 10, 64)
		// Only the canonical form counts: no '+', spaces or leading zeros.
		if err != nil || strconv.FormatInt(v, 10) != string(current) {
			return 0, domain.ErrNotInteger
		}
		n = v
	}
	if (delta > 0 && n > math.MaxInt64-delta) || (delta < 0 && n < math.MinInt64-delta) {
		return 0, domain.ErrOverflow
	}
	return n + delta, nil
}
