// Package shard implements the fixed-capacity vector blocks the store is
// built from. A shard on disk is a raw contiguous array of n x d float32
// values in row-major order, immutable once flushed; only the occupied rows
// of a partially filled shard are written.
package shard

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// Ext is the file extension of shard files.
const Ext = ".shrd"

var (
	// ErrFull is returned when appending to a shard buffer at capacity.
	ErrFull = errors.New("shard: buffer full")
	// ErrRowSize is returned when a vector does not match the buffer dimension.
	ErrRowSize = errors.New("shard: row size does not match dimension")
)

// Filename returns the deterministic name of the shard with the given index,
// e.g. "shards_000000.shrd".
func Filename(i int) string {
	return fmt.Sprintf("shards_%06d%s", i, Ext)
}

// Buffer is an in-memory shard under construction. It holds at most Cap rows
// of Dim float32 values and is reused across rollovers via Reset.
type Buffer struct {
	data     []float32
	capacity int
	dim      int
	length   int
}

// NewBuffer creates an empty buffer holding up to capacity rows of dim
// float32 values. Both arguments must be positive.
func NewBuffer(capacity, dim int) *Buffer {
	if capacity <= 0 || dim <= 0 {
		panic(fmt.Sprintf("shard: invalid buffer shape (%d, %d)", capacity, dim))
	}
	return &Buffer{
		data:     make([]float32, capacity*dim),
		capacity: capacity,
		dim:      dim,
	}
}

// Append copies v into the next free row.
func (b *Buffer) Append(v []float32) error {
	if len(v) != b.dim {
		return ErrRowSize
	}
	if b.length == b.capacity {
		return ErrFull
	}
	copy(b.data[b.length*b.dim:], v)
	b.length++
	return nil
}

// Len returns the number of occupied rows.
func (b *Buffer) Len() int { return b.length }

// Cap returns the row capacity.
func (b *Buffer) Cap() int { return b.capacity }

// Dim returns the vector dimensionality.
func (b *Buffer) Dim() int { return b.dim }

// Full reports whether the buffer is at capacity.
func (b *Buffer) Full() bool { return b.length == b.capacity }

// Reset discards all rows, keeping the allocation.
func (b *Buffer) Reset() {
	clear(b.data)
	b.length = 0
}

// Row returns the i-th occupied row. The slice aliases the buffer.
func (b *Buffer) Row(i int) []float32 {
	return b.data[i*b.dim : (i+1)*b.dim]
}

// Bytes returns the occupied rows as raw bytes. The slice aliases the buffer
// and is invalidated by Append and Reset.
func (b *Buffer) Bytes() []byte {
	if b.length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.data[0])), b.length*b.dim*4) //nolint:gosec // raw float32 wire format
}

// WriteFile persists the occupied rows to path and syncs the file. The
// resulting file holds exactly Len x Dim float32 values.
func (b *Buffer) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("shard: create %s: %w", path, err)
	}

	if _, err := f.Write(b.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("shard: write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("shard: sync %s: %w", path, err)
	}

	return f.Close()
}
