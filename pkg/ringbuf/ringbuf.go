// Package ringbuf provides a growable byte ring buffer for connection input.
//
// Readable bytes are exposed as at most two regions so that a parser can
// work on them in place. When the buffer fills up it doubles its capacity,
// up to a configured maximum, and becomes contiguous again.
package ringbuf

import (
	"errors"
	"io"
)

// ErrFull is returned by Fill when the buffer is full and may not grow.
var ErrFull = errors.New("ringbuf: buffer is full")

// Buffer is a ring buffer. It is not safe for concurrent use.
type Buffer struct {
	buf  []byte
	head int
	size int
	max  int
}

// New returns a buffer with the given initial capacity that grows up to max
// bytes. max below initial is raised to initial.
func New(initial, max int) *Buffer {
	if initial <= 0 {
		initial = 4096
	}
	if max < initial {
		max = initial
	}
	return &Buffer{buf: make([]byte, initial), max: max}
}

// Len returns the number of readable bytes.
func (b *Buffer) Len() int { return b.size }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Regions returns the readable bytes in order. The second region is empty
// unless the data wraps around the end of the buffer.
func (b *Buffer) Regions() ([]byte, []byte) {
	end := b.head + b.size
	if end <= len(b.buf) {
		return b.buf[b.head:end], nil
	}
	return b.buf[b.head:], b.buf[:end-len(b.buf)]
}

// Writable returns the contiguous free space after the readable bytes.
// It is empty when the buffer is full.
func (b *Buffer) Writable() []byte {
	if b.size == len(b.buf) {
		return nil
	}
	if b.size == 0 {
		b.head = 0
	}
	tail := (b.head + b.size) % len(b.buf)
	if tail >= b.head {
		return b.buf[tail:]
	}
	return b.buf[tail:b.head]
}

// Commit marks n bytes of the last Writable region as readable.
func (b *Buffer) Commit(n int) {
	if n < 0 || b.size+n > len(b.buf) {
		panic("ringbuf: commit out of range")
	}
	b.size += n
}

// Discard drops the first n readable bytes.
func (b *Buffer) Discard(n int) {
	if n < 0 || n > b.size {
		panic("ringbuf: discard out of range")
	}
	b.head = (b.head + n) % len(b.buf)
	b.size -= n
	if b.size == 0 {
		b.head = 0
	}
}

// AppendTo appends the first n readable bytes to dst.
func (b *Buffer) AppendTo(dst []byte, n int) []byte {
	r0, r1 := b.Regions()
	if n <= len(r0) {
		return append(dst, r0[:n]...)
	}
	dst = append(dst, r0...)
	return append(dst, r1[:n-len(r0)]...)
}

// Grow doubles the capacity, bounded by the maximum, and makes the readable
// bytes contiguous. It returns ErrFull when the buffer is already at the
// maximum.
func (b *Buffer) Grow() error {
	if len(b.buf) >= b.max {
		return ErrFull
	}
	next := make([]byte, min(2*len(b.buf), b.max))
	r0, r1 := b.Regions()
	n := copy(next, r0)
	copy(next[n:], r1)
	b.buf = next
	b.head = 0
	return nil
}

// Fill performs a single Read from r into the free space, growing the
// buffer first when it is full.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	if b.size == len(b.buf) {
		if err := b.Grow(); err != nil {
			return 0, err
		}
	}
	n, err := r.Read(b.Writable())
	if n > 0 {
		b.Commit(n)
	}
	return n, err
}
