package embstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/embstore/keyindex"
	"github.com/hupe1980/embstore/manifest"
	"github.com/hupe1980/embstore/shard"
)

// Writer builds a sharded embedding store. Vectors are appended one at a
// time; ids are assigned in strict insertion order starting at 0.
//
// The in-progress shard lives in memory and reaches disk only at rollover
// and Close. The flush order is always shard file, then manifest row, then
// key-index commit, so the manifest never references a shard that was not
// fully written: a crash loses at most one shard's worth of uncommitted
// records, never corrupts the store.
//
// A Writer is not safe for concurrent use, and exactly one Writer may be
// open against a store path at a time. A second concurrent Writer is not
// detected and produces undefined on-disk state.
type Writer struct {
	path string
	dim  int
	opts options

	keys *keyindex.Index
	man  *manifest.Writer
	buf  *shard.Buffer

	shardID int
	nextID  int64
	isOpen  bool
}

// NewWriter creates a Writer for the store rooted at path, storing vectors
// of dimension dim. The store is not touched until Open.
func NewWriter(path string, dim int, optFns ...Option) (*Writer, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embstore: invalid dimension %d", dim)
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.shardCapacity <= 0 {
		return nil, fmt.Errorf("embstore: invalid shard capacity %d", opts.shardCapacity)
	}

	return &Writer{
		path: path,
		dim:  dim,
		opts: opts,
	}, nil
}

// Open creates the store layout and transitions the Writer to its open
// state. It is idempotent while open.
//
// Open always starts an empty store: the manifest is truncated and ids
// restart at 0. Opening a Writer against a previously finalized store is
// undefined (registered keys will collide).
func (w *Writer) Open() error {
	if w.isOpen {
		return nil
	}

	if err := os.MkdirAll(filepath.Join(w.path, ShardsDirName), 0o755); err != nil {
		return fmt.Errorf("embstore: create store layout: %w", err)
	}

	keys := keyindex.New(filepath.Join(w.path, KeyIndexFileName), false)
	if err := keys.Open(); err != nil {
		return translateError(err)
	}

	man, err := manifest.NewWriter(filepath.Join(w.path, ManifestFileName))
	if err != nil {
		keys.Close()
		return err
	}

	w.keys = keys
	w.man = man
	w.buf = shard.NewBuffer(w.opts.shardCapacity, w.dim)
	w.shardID = 0
	w.nextID = 0
	w.isOpen = true

	w.opts.logger.LogOpen("writer", w.path, nil)

	return nil
}

// Set appends vector under key, assigning it the next id. It reports
// whether a shard rollover occurred before the append; the flag is valid
// even when an error is returned.
//
// A duplicate key fails with ErrDuplicateKey and leaves the id counter and
// shard contents unchanged.
func (w *Writer) Set(key string, vector []float32) (rolledOver bool, err error) {
	if !w.isOpen {
		return false, ErrClosed
	}
	if len(vector) != w.dim {
		return false, &ErrDimensionMismatch{Expected: w.dim, Actual: len(vector)}
	}

	if w.buf.Full() {
		if err := w.rollover(); err != nil {
			return false, err
		}
		rolledOver = true
	}

	// Register before appending: a duplicate key must not occupy a slot.
	if err := w.keys.Add(w.nextID, key); err != nil {
		err = translateError(err)
		w.opts.logger.LogSet(key, w.nextID, rolledOver, err)
		return rolledOver, err
	}

	if err := w.buf.Append(vector); err != nil {
		return rolledOver, err
	}

	if w.opts.commitEverySet {
		if err := w.keys.Commit(); err != nil {
			return rolledOver, translateError(err)
		}
	}

	w.opts.logger.LogSet(key, w.nextID, rolledOver, nil)
	w.nextID++

	return rolledOver, nil
}

// rollover flushes the full current shard and allocates a fresh one.
func (w *Writer) rollover() error {
	if err := w.flushShard(); err != nil {
		return err
	}
	w.buf.Reset()
	return nil
}

// flushShard persists the current shard, appends its manifest row and
// commits the key-index batch, in that order.
func (w *Writer) flushShard() error {
	name := shard.Filename(w.shardID)

	if err := w.buf.WriteFile(filepath.Join(w.path, ShardsDirName, name)); err != nil {
		w.opts.logger.LogFlush(name, w.shardID, w.buf.Len(), err)
		return err
	}

	if err := w.man.Append(manifest.Row{
		Shard:   name,
		ShardID: w.shardID,
		N:       w.buf.Len(),
		D:       w.dim,
	}); err != nil {
		w.opts.logger.LogFlush(name, w.shardID, w.buf.Len(), err)
		return err
	}

	if err := w.keys.Commit(); err != nil {
		return translateError(err)
	}

	w.opts.logger.LogFlush(name, w.shardID, w.buf.Len(), nil)
	w.shardID++

	return nil
}

// Close flushes a non-empty partial shard, commits the key index and
// transitions the Writer to its closed state. Calling Close twice is a
// no-op.
func (w *Writer) Close() error {
	if !w.isOpen {
		return nil
	}

	var errs []error
	if w.buf.Len() > 0 {
		if err := w.flushShard(); err != nil {
			errs = append(errs, err)
			// The open batch holds exactly the keys of the shard that failed
			// to flush; discard it so the index never references a vector
			// that did not reach disk.
			if rbErr := w.keys.Rollback(); rbErr != nil {
				errs = append(errs, translateError(rbErr))
			}
		}
	}

	if err := w.keys.Close(); err != nil {
		errs = append(errs, translateError(err))
	}
	if err := w.man.Close(); err != nil {
		errs = append(errs, err)
	}

	w.isOpen = false
	w.buf = nil
	w.keys = nil
	w.man = nil

	return errors.Join(errs...)
}

// Len returns the number of records written so far.
func (w *Writer) Len() int64 { return w.nextID }

// Dimension returns the configured vector dimensionality.
func (w *Writer) Dimension() int { return w.dim }

// ShardCapacity returns the configured number of vectors per shard.
func (w *Writer) ShardCapacity() int { return w.opts.shardCapacity }
