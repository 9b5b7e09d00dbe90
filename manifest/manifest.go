// Package manifest reads and writes the store's shard manifest,
// a tab-separated file with one row per flushed shard, written in flush
// order. Read in file order it fully determines the logical table: its
// total length is the sum of the per-shard row counts.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
)

// FileName is the manifest's name under the store root.
const FileName = "metadata.tsv"

var header = []string{"shard", "shard_id", "n", "d"}

// ErrMalformed is returned when the manifest cannot be parsed.
var ErrMalformed = errors.New("manifest: malformed")

// Row describes a single flushed shard.
type Row struct {
	Shard   string // shard filename, relative to the shards directory
	ShardID int    // zero-based flush order
	N       int    // occupied rows in this shard
	D       int    // vector dimensionality
}

// Writer appends rows to a manifest file. Every append is flushed and synced
// before returning, so a row is durable before the shard it describes
// becomes visible to readers.
type Writer struct {
	f *os.File
	w *csv.Writer
}

// NewWriter creates (or truncates) the manifest at path and writes the
// header row.
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("manifest: create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'

	mw := &Writer{f: f, w: w}
	if err := mw.write(header); err != nil {
		f.Close()
		return nil, err
	}

	return mw, nil
}

// Append records a flushed shard.
func (mw *Writer) Append(row Row) error {
	return mw.write([]string{
		row.Shard,
		strconv.Itoa(row.ShardID),
		strconv.Itoa(row.N),
		strconv.Itoa(row.D),
	})
}

func (mw *Writer) write(record []string) error {
	if err := mw.w.Write(record); err != nil {
		return fmt.Errorf("manifest: write: %w", err)
	}
	mw.w.Flush()
	if err := mw.w.Error(); err != nil {
		return fmt.Errorf("manifest: flush: %w", err)
	}
	if err := mw.f.Sync(); err != nil {
		return fmt.Errorf("manifest: sync: %w", err)
	}
	return nil
}

// Close closes the underlying file. It is safe to call multiple times.
func (mw *Writer) Close() error {
	if mw.f == nil {
		return nil
	}
	err := mw.f.Close()
	mw.f = nil
	return err
}

// Load parses the manifest at path, validating the header and row shape.
func Load(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}
	for i, name := range header {
		if records[0][i] != name {
			return nil, fmt.Errorf("%w: unexpected header %v", ErrMalformed, records[0])
		}
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := Row{Shard: rec[0]}
		if row.ShardID, err = strconv.Atoi(rec[1]); err != nil {
			return nil, fmt.Errorf("%w: shard_id %q", ErrMalformed, rec[1])
		}
		if row.N, err = strconv.Atoi(rec[2]); err != nil {
			return nil, fmt.Errorf("%w: n %q", ErrMalformed, rec[2])
		}
		if row.D, err = strconv.Atoi(rec[3]); err != nil {
			return nil, fmt.Errorf("%w: d %q", ErrMalformed, rec[3])
		}
		if row.N < 0 || row.D <= 0 {
			return nil, fmt.Errorf("%w: invalid shape (%d, %d)", ErrMalformed, row.N, row.D)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Shape returns the logical table shape (total rows, dimension) described by
// rows. It fails if the rows disagree on dimension. An empty manifest has
// shape (0, 0).
func Shape(rows []Row) (n, d int, err error) {
	if len(rows) == 0 {
		return 0, 0, nil
	}

	d = rows[0].D
	for _, row := range rows {
		if row.D != d {
			return 0, 0, fmt.Errorf("%w: inconsistent dimension %d vs %d", ErrMalformed, row.D, d)
		}
		n += row.N
	}

	return n, d, nil
}
