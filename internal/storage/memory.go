package storage

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryEngine is a KVEngine kept entirely in process memory. Nothing
// survives a restart.
type MemoryEngine struct {
	data   *xsync.MapOf[string, []byte]
	closed atomic.Bool
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine() *MemoryEngine {
	return &MemoryEngine{data: xsync.NewMapOf[string, []byte]()}
}

// Get retrieves a copy of the value stored under key.
func (e *MemoryEngine) Get(_ context.Context, key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	v, ok := e.data.Load(string(key))
	if !ok {
		return nil, ErrKeyNotFound
	}
	return bytes.Clone(v), nil
}

// Set stores value under key.
func (e *MemoryEngine) Set(_ context.Context, key, value []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.data.Store(string(key), value)
	return nil
}

// Delete removes key.
func (e *MemoryEngine) Delete(_ context.Context, key []byte) error {
	if e.closed.Load() {
		return ErrClosed
	}
	e.data.Delete(string(key))
	return nil
}

// Scan visits the keys with the given prefix in key order. Entries written
// during the scan may or may not be visited.
func (e *MemoryEngine) Scan(ctx context.Context, prefix []byte, fn func(key, value []byte) bool) error {
	if e.closed.Load() {
		return ErrClosed
	}
	p := string(prefix)
	var keys []string
	e.data.Range(func(k string, _ []byte) bool {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
		return true
	})
	slices.Sort(keys)

	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, ok := e.data.Load(k)
		if !ok {
			continue
		}
		if !fn([]byte(k), bytes.Clone(v)) {
			break
		}
	}
	return nil
}

// GC is a no-op; deleted entries are released to the Go runtime directly.
func (e *MemoryEngine) GC(context.Context) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	return 0, nil
}

// Stats returns the key count and the summed key and value sizes.
func (e *MemoryEngine) Stats(context.Context) (*KVStats, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	var size uint64
	e.data.Range(func(k string, v []byte) bool {
		size += uint64(len(k) + len(v))
		return true
	})
	return &KVStats{
		TotalKeys: uint64(e.data.Size()),
		TotalSize: size,
	}, nil
}

// Close drops all data.
func (e *MemoryEngine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.data.Clear()
	return nil
}
