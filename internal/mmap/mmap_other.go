//go:build !unix

package mmap

import (
	"io"
	"os"
)

func mmapFile(f *os.File, size int) ([]byte, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(io.NewSectionReader(f, 0, int64(size)), data); err != nil {
		return nil, err
	}
	return data, nil
}

func munmapFile(data []byte) error { return nil }

func mmapAnon(size int) ([]byte, error) { return make([]byte, size), nil }

func munmapAnon(data []byte) error { return nil }
