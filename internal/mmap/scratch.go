package mmap

import (
	"fmt"
	"unsafe"
)

// Scratch is an anonymous process-local mapping used as a staging buffer for
// the logical embedding table. It keeps large intermediate tables out of the
// ordinary Go heap and guarantees the backing memory is released when Close
// is called, including on error paths during table assembly.
//
// A Scratch must not be shared between store readers.
type Scratch struct {
	data []byte
	f32  []float32
}

// NewScratch allocates a zero-initialized scratch mapping holding count
// float32 values.
func NewScratch(count int) (*Scratch, error) {
	if count < 0 {
		return nil, fmt.Errorf("mmap: negative scratch size %d", count)
	}
	if count == 0 {
		return &Scratch{}, nil
	}

	data, err := mmapAnon(count * 4)
	if err != nil {
		return nil, fmt.Errorf("mmap: scratch alloc: %w", err)
	}

	return &Scratch{
		data: data,
		f32:  unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), count), //nolint:gosec // mapping is page-aligned
	}, nil
}

// Float32s returns the mapping as a float32 slice. The slice is invalidated
// by Close.
func (s *Scratch) Float32s() []float32 {
	return s.f32
}

// Bytes returns the raw mapping. The slice is invalidated by Close.
func (s *Scratch) Bytes() []byte {
	return s.data
}

// Close releases the backing memory. It is safe to call multiple times.
func (s *Scratch) Close() error {
	if s == nil || s.data == nil {
		return nil
	}
	err := munmapAnon(s.data)
	s.data = nil
	s.f32 = nil
	return err
}
