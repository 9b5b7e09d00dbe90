package embstore

import (
	"fmt"
	"iter"

	"github.com/hupe1980/embstore/index"
)

// Neighbor is a single nearest-neighbor hit, attributed to its external key.
type Neighbor struct {
	Key      string
	Distance float32
}

// KNN layers an already-built search index over a Reader's logical table
// and translates the index's internal ids back to external keys. Index
// construction and training happen elsewhere; any index.Searcher works.
//
// KNN is safe for concurrent use if the wrapped Searcher is.
type KNN struct {
	reader   *Reader
	searcher index.Searcher
	opts     options
}

// NewKNN wraps reader and searcher. The searcher must have been built over
// the same logical table the reader exposes.
func NewKNN(reader *Reader, searcher index.Searcher, optFns ...Option) *KNN {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &KNN{
		reader:   reader,
		searcher: searcher,
		opts:     opts,
	}
}

// NearestNeighbors returns up to k neighbors of query, sorted ascending by
// distance in the searcher's native order (ties are not re-sorted).
//
// An id returned by the searcher that the reader cannot resolve indicates
// an index/store mismatch and fails with ErrNotFound; the store and the
// index were not built together, so no retry will help.
func (k *KNN) NearestNeighbors(query []float32, n int) ([]Neighbor, error) {
	if n < 1 {
		return nil, ErrInvalidK
	}

	results, err := k.searcher.Search(query, n)
	if err != nil {
		err = translateError(err)
		k.opts.logger.LogSearch(n, 0, err)
		return nil, err
	}

	neighbors := make([]Neighbor, 0, len(results))
	for _, res := range results {
		key, err := k.reader.ResolveID(res.ID)
		if err != nil {
			return nil, fmt.Errorf("embstore: index/store mismatch at id %d: %w", res.ID, err)
		}
		neighbors = append(neighbors, Neighbor{Key: key, Distance: res.Distance})
	}

	k.opts.logger.LogSearch(n, len(neighbors), nil)

	return neighbors, nil
}

// Embedding returns the stored vector for key, bypassing search.
func (k *KNN) Embedding(key string) ([]float32, error) {
	return k.reader.GetByKey(key)
}

// Keys iterates all keys in the underlying store in insertion order.
func (k *KNN) Keys() iter.Seq[string] {
	return k.reader.Keys()
}

// Close closes the wrapped Reader.
func (k *KNN) Close() error {
	return k.reader.Close()
}
