package mmap

import (
	"errors"
	"io"
	"os"
	"unsafe"
)

var (
	// ErrClosed is returned when attempting to access a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the file size is invalid (e.g. negative).
	ErrInvalidSize = errors.New("mmap: invalid file size")
)

// File represents a memory-mapped file.
type File struct {
	Data []byte
	f    *os.File
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size < 0 {
		f.Close()
		return nil, ErrInvalidSize
	}
	if size == 0 {
		return &File{Data: nil, f: f}, nil
	}

	data, err := mmapFile(f, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &File{Data: data, f: f}, nil
}

// Close unmaps the memory and closes the underlying file.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.Data != nil {
		err = munmapFile(m.Data)
		m.Data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}

// ReadAt implements io.ReaderAt on a memory-mapped file. It fails with
// ErrClosed once the mapping has been closed.
func (m *File) ReadAt(p []byte, off int64) (n int, err error) {
	if m.f == nil {
		return 0, ErrClosed
	}
	if m.Data == nil {
		return 0, io.EOF
	}
	if off < 0 || off >= int64(len(m.Data)) {
		return 0, io.EOF
	}
	n = copy(p, m.Data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Float32s reinterprets the first count float32 values of b without copying
// when b is 4-byte aligned; misaligned buffers are copied instead.
func Float32s(b []byte, count int) []float32 {
	if count == 0 {
		return nil
	}
	if uintptr(unsafe.Pointer(&b[0]))%4 != 0 {
		// Fallback to copy if not aligned (rare; mmap regions are page-aligned).
		out := make([]float32, count)
		for i := range out {
			out[i] = *(*float32)(unsafe.Pointer(&b[i*4])) //nolint:gosec // unsafe is required for mmap access
		}
		return out
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), count) //nolint:gosec // unsafe is required for mmap access
}
