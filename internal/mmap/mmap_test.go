package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("MapsFileContents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data")
		want := []byte("hello, mmap")
		require.NoError(t, os.WriteFile(path, want, 0o644))

		m, err := Open(path)
		require.NoError(t, err)

		assert.Equal(t, want, m.Data)
		require.NoError(t, m.Close())
		require.NoError(t, m.Close()) // idempotent
	})

	t.Run("EmptyFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty")
		require.NoError(t, os.WriteFile(path, nil, 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		assert.Nil(t, m.Data)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("ReadAtAfterClose", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data")
		require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, m.Close())

		_, err = m.ReadAt(make([]byte, 1), 0)
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("ReadAt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "data")
		require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

		m, err := Open(path)
		require.NoError(t, err)
		defer m.Close()

		buf := make([]byte, 4)
		n, err := m.ReadAt(buf, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		assert.Equal(t, "3456", string(buf))
	})
}

func TestScratch(t *testing.T) {
	t.Run("WriteAndRead", func(t *testing.T) {
		s, err := NewScratch(8)
		require.NoError(t, err)
		defer s.Close()

		f32 := s.Float32s()
		require.Len(t, f32, 8)
		assert.Len(t, s.Bytes(), 32)

		for i := range f32 {
			f32[i] = float32(i) * 1.5
		}
		assert.Equal(t, float32(10.5), s.Float32s()[7])
	})

	t.Run("ZeroInitialized", func(t *testing.T) {
		s, err := NewScratch(4)
		require.NoError(t, err)
		defer s.Close()

		for _, v := range s.Float32s() {
			assert.Zero(t, v)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		s, err := NewScratch(0)
		require.NoError(t, err)
		assert.Empty(t, s.Float32s())
		require.NoError(t, s.Close())
	})

	t.Run("Negative", func(t *testing.T) {
		_, err := NewScratch(-1)
		assert.Error(t, err)
	})

	t.Run("CloseReleases", func(t *testing.T) {
		s, err := NewScratch(4)
		require.NoError(t, err)

		require.NoError(t, s.Close())
		assert.Nil(t, s.Float32s())
		assert.Nil(t, s.Bytes())
		require.NoError(t, s.Close()) // idempotent
	})
}

func TestFloat32s(t *testing.T) {
	s, err := NewScratch(3)
	require.NoError(t, err)
	defer s.Close()

	copy(s.Float32s(), []float32{1, 2, 3})

	got := Float32s(s.Bytes(), 3)
	assert.Equal(t, []float32{1, 2, 3}, got)

	assert.Nil(t, Float32s(nil, 0))
}
