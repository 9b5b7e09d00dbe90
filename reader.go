package embstore

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/embstore/internal/conv"
	"github.com/hupe1980/embstore/internal/mmap"
	"github.com/hupe1980/embstore/keyindex"
	"github.com/hupe1980/embstore/manifest"
)

// Matrix is a read-only, zero-copy view of the logical embedding table:
// the virtual concatenation of all shards, addressed by a single zero-based
// id space. Row slices alias the reader's scratch mapping and are
// invalidated by Reader.Close. Callers must not mutate them.
type Matrix struct {
	data []float32
	rows int
	dim  int
}

// Rows returns the number of vectors in the table.
func (m *Matrix) Rows() int { return m.rows }

// Dim returns the vector dimensionality.
func (m *Matrix) Dim() int { return m.dim }

// Row returns the vector with id i.
func (m *Matrix) Row(i int) []float32 {
	return m.data[i*m.dim : (i+1)*m.dim]
}

// Data returns the whole table as one row-major slice.
func (m *Matrix) Data() []float32 { return m.data }

// Reader reconstitutes a finalized store into one logical contiguous vector
// table. Open memory-maps every shard listed in the manifest, copies the
// occupied rows into an anonymous scratch mapping at the correct offsets
// and opens the key index read-only.
//
// All query methods are safe for concurrent use once Open has returned;
// Open and Close are not. Multiple Readers may share a store path.
type Reader struct {
	path string
	opts options

	keys    *keyindex.Index
	scratch *mmap.Scratch
	mat     *Matrix
	isOpen  bool
}

// NewReader creates a Reader for the store rooted at path. The store is not
// touched until Open.
func NewReader(path string, optFns ...Option) *Reader {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Reader{
		path: path,
		opts: opts,
	}
}

// Open validates the store layout, assembles the logical table and opens
// the key index. It fails with ErrValidation when a required component is
// missing or malformed. It is idempotent while open.
func (r *Reader) Open() error {
	if r.isOpen {
		return nil
	}

	for _, name := range []string{KeyIndexFileName, ShardsDirName, ManifestFileName} {
		if _, err := os.Stat(filepath.Join(r.path, name)); err != nil {
			return fmt.Errorf("%w: missing %s: %v", ErrValidation, name, err)
		}
	}

	rows, err := manifest.Load(filepath.Join(r.path, ManifestFileName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	n, d, err := manifest.Shape(rows)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	scratch, err := mmap.NewScratch(n * d)
	if err != nil {
		return err
	}

	if err := r.assemble(scratch.Float32s(), rows, d); err != nil {
		scratch.Close()
		return err
	}

	keys := keyindex.New(filepath.Join(r.path, KeyIndexFileName), true)
	if err := keys.Open(); err != nil {
		scratch.Close()
		return translateError(err)
	}

	r.keys = keys
	r.scratch = scratch
	r.mat = &Matrix{data: scratch.Float32s(), rows: n, dim: d}
	r.isOpen = true

	r.opts.logger.LogOpen("reader", r.path, nil)

	return nil
}

// assemble maps each shard read-only and copies its occupied rows into the
// staging table at its manifest offset. Shards are copied in parallel; each
// mapping is released as soon as its rows are staged.
func (r *Reader) assemble(table []float32, rows []manifest.Row, dim int) error {
	var g errgroup.Group

	offset := 0
	for _, row := range rows {
		off := offset
		offset += row.N * dim

		g.Go(func() error {
			path := filepath.Join(r.path, ShardsDirName, filepath.Base(row.Shard))

			m, err := mmap.Open(path)
			if err != nil {
				return fmt.Errorf("%w: shard %s: %v", ErrValidation, row.Shard, err)
			}
			defer m.Close()

			count := row.N * dim
			if len(m.Data) < count*4 {
				return fmt.Errorf("%w: shard %s: %d bytes, want %d", ErrValidation, row.Shard, len(m.Data), count*4)
			}

			copy(table[off:off+count], mmap.Float32s(m.Data, count))
			return nil
		})
	}

	return g.Wait()
}

// GetByKey returns the vector stored under key. It fails with ErrNotFound
// when the key is absent.
func (r *Reader) GetByKey(key string) ([]float32, error) {
	id, err := r.ResolveKey(key)
	if err != nil {
		return nil, err
	}
	return r.GetByID(id)
}

// GetByID returns the vector with the given id. Ids are table indices;
// no key-index resolution is involved. It fails with ErrNotFound when the
// id is out of range.
func (r *Reader) GetByID(id int64) ([]float32, error) {
	if !r.isOpen {
		return nil, ErrClosed
	}

	i, err := conv.Int64ToInt(id)
	if err != nil || i < 0 || i >= r.mat.rows {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	return r.mat.Row(i), nil
}

// ResolveKey returns the id registered for key.
func (r *Reader) ResolveKey(key string) (int64, error) {
	if !r.isOpen {
		return 0, ErrClosed
	}
	id, err := r.keys.ResolveKey(key)
	if err != nil {
		return 0, translateError(err)
	}
	return id, nil
}

// ResolveID returns the key registered for id.
func (r *Reader) ResolveID(id int64) (string, error) {
	if !r.isOpen {
		return "", ErrClosed
	}
	key, err := r.keys.ResolveID(id)
	if err != nil {
		return "", translateError(err)
	}
	return key, nil
}

// Keys iterates all keys in insertion (id) order. The sequence is lazy,
// finite and restartable.
func (r *Reader) Keys() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !r.isOpen {
			return
		}
		for key := range r.keys.Keys() {
			if !yield(key) {
				return
			}
		}
	}
}

// Matrix returns the logical table view, or nil when the Reader is closed.
func (r *Reader) Matrix() *Matrix {
	if !r.isOpen {
		return nil
	}
	return r.mat
}

// Len returns the number of vectors in the table, 0 when closed.
func (r *Reader) Len() int {
	if !r.isOpen {
		return 0
	}
	return r.mat.rows
}

// Dimension returns the vector dimensionality, 0 when closed.
func (r *Reader) Dimension() int {
	if !r.isOpen {
		return 0
	}
	return r.mat.dim
}

// Close releases the scratch mapping and the key index. Subsequent calls on
// the Reader fail with ErrClosed; Close itself is a no-op when repeated.
func (r *Reader) Close() error {
	if !r.isOpen {
		return nil
	}

	var errs []error
	if err := r.keys.Close(); err != nil {
		errs = append(errs, translateError(err))
	}
	if err := r.scratch.Close(); err != nil {
		errs = append(errs, err)
	}

	r.isOpen = false
	r.keys = nil
	r.scratch = nil
	r.mat = nil

	return errors.Join(errs...)
}
