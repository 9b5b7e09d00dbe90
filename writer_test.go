package embstore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/embstore/keyindex"
	"github.com/hupe1980/embstore/manifest"
	"github.com/hupe1980/embstore/shard"
	"github.com/hupe1980/embstore/testutil"
)

func TestWriter(t *testing.T) {
	t.Run("ShardRollover", func(t *testing.T) {
		dir := t.TempDir()
		rng := testutil.NewRNG(1)

		w, err := NewWriter(dir, 8, WithShardCapacity(4))
		require.NoError(t, err)
		require.NoError(t, w.Open())
		require.NoError(t, w.Open()) // idempotent while open

		var rollovers int
		for i := 0; i < 9; i++ {
			rolled, err := w.Set(fmt.Sprintf("prot-%d", i), rng.Vector(8))
			require.NoError(t, err)
			if rolled {
				rollovers++
			}
		}
		assert.Equal(t, 2, rollovers)
		assert.Equal(t, int64(9), w.Len())

		require.NoError(t, w.Close())
		require.NoError(t, w.Close()) // no-op

		// Exactly 3 shard files with occupancies [4,4,1].
		for i, rows := range []int{4, 4, 1} {
			fi, err := os.Stat(filepath.Join(dir, ShardsDirName, shard.Filename(i)))
			require.NoError(t, err)
			assert.Equal(t, int64(rows*8*4), fi.Size())
		}
		entries, err := os.ReadDir(filepath.Join(dir, ShardsDirName))
		require.NoError(t, err)
		assert.Len(t, entries, 3)

		md, err := manifest.Load(filepath.Join(dir, ManifestFileName))
		require.NoError(t, err)
		require.Len(t, md, 3)
		for i, rows := range []int{4, 4, 1} {
			assert.Equal(t, shard.Filename(i), md[i].Shard)
			assert.Equal(t, i, md[i].ShardID)
			assert.Equal(t, rows, md[i].N)
			assert.Equal(t, 8, md[i].D)
		}

		r := NewReader(dir)
		require.NoError(t, r.Open())
		defer r.Close()
		assert.Equal(t, 9, r.Matrix().Rows())
	})

	t.Run("DuplicateKeyLeavesStateUnchanged", func(t *testing.T) {
		dir := t.TempDir()
		rng := testutil.NewRNG(2)

		w, err := NewWriter(dir, 4, WithShardCapacity(8))
		require.NoError(t, err)
		require.NoError(t, w.Open())

		first := rng.Vector(4)
		_, err = w.Set("dup", first)
		require.NoError(t, err)

		_, err = w.Set("dup", rng.Vector(4))
		assert.ErrorIs(t, err, ErrDuplicateKey)
		assert.Equal(t, int64(1), w.Len())

		// The store remains usable after the failed call.
		_, err = w.Set("fresh", rng.Vector(4))
		require.NoError(t, err)
		assert.Equal(t, int64(2), w.Len())

		require.NoError(t, w.Close())

		r := NewReader(dir)
		require.NoError(t, r.Open())
		defer r.Close()

		assert.Equal(t, 2, r.Len())
		got, err := r.GetByKey("dup")
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), 4)
		require.NoError(t, err)
		require.NoError(t, w.Open())
		defer w.Close()

		_, err = w.Set("short", []float32{1, 2})

		var dm *ErrDimensionMismatch
		require.ErrorAs(t, err, &dm)
		assert.Equal(t, 4, dm.Expected)
		assert.Equal(t, 2, dm.Actual)
		assert.Zero(t, w.Len())
	})

	t.Run("SetOnClosedWriter", func(t *testing.T) {
		w, err := NewWriter(t.TempDir(), 4)
		require.NoError(t, err)
		require.NoError(t, w.Open())
		require.NoError(t, w.Close())

		_, err = w.Set("late", []float32{1, 2, 3, 4})
		assert.ErrorIs(t, err, ErrClosed)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		_, err := NewWriter(t.TempDir(), 0)
		assert.Error(t, err)

		_, err = NewWriter(t.TempDir(), 4, WithShardCapacity(-1))
		assert.Error(t, err)
	})

	t.Run("CommitEverySet", func(t *testing.T) {
		dir := t.TempDir()

		w, err := NewWriter(dir, 2, WithShardCapacity(4), WithCommitEverySet())
		require.NoError(t, err)
		require.NoError(t, w.Open())

		_, err = w.Set("a", []float32{1, 2})
		require.NoError(t, err)
		_, err = w.Set("b", []float32{3, 4})
		require.NoError(t, err)
		// No Close, no rollover: without the option both keys would still
		// sit in the uncommitted batch.

		ix := keyindex.New(filepath.Join(dir, KeyIndexFileName), true)
		require.NoError(t, ix.Open())
		defer ix.Close()

		id, err := ix.ResolveKey("a")
		require.NoError(t, err)
		assert.Equal(t, int64(0), id)

		id, err = ix.ResolveKey("b")
		require.NoError(t, err)
		assert.Equal(t, int64(1), id)

		require.NoError(t, w.Close())
	})

	// A failed final flush must not commit the keys of the shard that never
	// reached disk: the store reopens with no trace of them.
	t.Run("FailedCloseDiscardsUnflushedKeys", func(t *testing.T) {
		dir := t.TempDir()

		w, err := NewWriter(dir, 2, WithShardCapacity(4))
		require.NoError(t, err)
		require.NoError(t, w.Open())

		_, err = w.Set("k0", []float32{1, 2})
		require.NoError(t, err)
		_, err = w.Set("k1", []float32{3, 4})
		require.NoError(t, err)

		// Squat on the shard filename so the flush at Close fails.
		require.NoError(t, os.Mkdir(filepath.Join(dir, ShardsDirName, shard.Filename(0)), 0o755))

		require.Error(t, w.Close())

		r := NewReader(dir)
		require.NoError(t, r.Open())
		defer r.Close()

		assert.Zero(t, r.Len())
		for key := range r.Keys() {
			t.Fatalf("key %q must not survive a failed flush", key)
		}

		_, err = r.GetByKey("k0")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = r.ResolveKey("k1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// Killing the writer after flushing shard s but before flushing s+1 must
// leave a store that opens successfully and exposes exactly the vectors
// committed through shard s. Abandoning the writer without Close simulates
// the crash.
func TestWriterCrashWindow(t *testing.T) {
	dir := t.TempDir()
	rng := testutil.NewRNG(3)

	w, err := NewWriter(dir, 4, WithShardCapacity(2))
	require.NoError(t, err)
	require.NoError(t, w.Open())

	vecs := rng.Vectors(5, 4)
	for i, v := range vecs {
		_, err := w.Set(fmt.Sprintf("prot-%d", i), v)
		require.NoError(t, err)
	}
	// No Close: two shards are flushed, the fifth vector sits only in the
	// in-memory buffer and in the uncommitted key-index batch.

	r := NewReader(dir)
	require.NoError(t, r.Open())
	defer r.Close()

	assert.Equal(t, 4, r.Len())
	for i := 0; i < 4; i++ {
		got, err := r.GetByKey(fmt.Sprintf("prot-%d", i))
		require.NoError(t, err)
		assert.Equal(t, vecs[i], got)
	}

	_, err = r.GetByKey("prot-4")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, w.Close())
}
