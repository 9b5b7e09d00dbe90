// Package flat provides an exact brute-force Searcher over a contiguous
// row-major float32 table, such as the logical table exposed by a store
// reader.
package flat

import (
	"container/heap"
	"fmt"

	"github.com/hupe1980/embstore/index"
	"github.com/hupe1980/embstore/metric"
)

// Compile-time check that Flat satisfies the Searcher capability.
var _ index.Searcher = (*Flat)(nil)

// Options contains configuration options for the flat index.
type Options struct {
	// DistanceFunc is the distance used to rank rows.
	DistanceFunc index.DistanceFunc
}

// DefaultOptions contains the default configuration options for the flat index.
var DefaultOptions = Options{
	DistanceFunc: metric.SquaredL2,
}

// Option configures the flat index.
type Option func(*Options)

// WithDistanceFunc sets the distance function used to rank rows.
func WithDistanceFunc(fn index.DistanceFunc) Option {
	return func(o *Options) {
		if fn != nil {
			o.DistanceFunc = fn
		}
	}
}

// Flat is an exact nearest-neighbor index over a row-major table. The table
// is not copied; the caller must keep it alive and immutable while the index
// is in use. All methods are safe for concurrent use.
type Flat struct {
	data []float32
	rows int
	dim  int
	fn   index.DistanceFunc
}

// New creates a flat index over data, interpreted as len(data)/dim rows of
// dim float32 values each.
func New(data []float32, dim int, optFns ...Option) (*Flat, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("flat: invalid dimension %d", dim)
	}
	if len(data)%dim != 0 {
		return nil, fmt.Errorf("flat: data length %d is not a multiple of dimension %d", len(data), dim)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Flat{
		data: data,
		rows: len(data) / dim,
		dim:  dim,
		fn:   opts.DistanceFunc,
	}, nil
}

// Len returns the number of rows in the index.
func (f *Flat) Len() int { return f.rows }

// Dimension returns the vector dimensionality of the index.
func (f *Flat) Dimension() int { return f.dim }

// Search scans every row and returns the k nearest ids sorted ascending by
// distance. Fewer than k results are returned when the table is smaller
// than k.
func (f *Flat) Search(query []float32, k int) ([]index.Result, error) {
	if k < 1 {
		return nil, index.ErrInvalidK
	}
	if len(query) != f.dim {
		return nil, &index.ErrDimensionMismatch{Expected: f.dim, Actual: len(query)}
	}

	// Bounded max-heap: the root is the worst candidate seen so far.
	h := make(resultHeap, 0, k)
	for i := 0; i < f.rows; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]

		d, err := f.fn(query, row)
		if err != nil {
			return nil, fmt.Errorf("flat: distance: %w", err)
		}

		if len(h) < k {
			heap.Push(&h, index.Result{ID: int64(i), Distance: d})
		} else if d < h[0].Distance {
			h[0] = index.Result{ID: int64(i), Distance: d}
			heap.Fix(&h, 0)
		}
	}

	// Drain worst-first, filling the result slice back to front.
	results := make([]index.Result, len(h))
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(&h).(index.Result)
	}

	return results, nil
}

type resultHeap []index.Result

func (h resultHeap) Len() int           { return len(h) }
func (h resultHeap) Less(i, j int) bool { return h[i].Distance > h[j].Distance }
func (h resultHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *resultHeap) Push(x any) {
	*h = append(*h, x.(index.Result))
}

func (h *resultHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
