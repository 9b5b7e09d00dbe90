// Package index defines the search capability consumed by the store's
// nearest-neighbor adapter. Index construction and training are external;
// the store only opens, queries, and attributes results from an index it
// is handed.
package index

import (
	"errors"
	"fmt"
)

// ErrInvalidK is returned when k is not positive.
var ErrInvalidK = errors.New("index: k must be positive")

// ErrDimensionMismatch indicates a query/index dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int // Expected dimensions
	Actual   int // Actual dimensions
}

// Error returns the error message for dimension mismatch.
func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// DistanceFunc represents a function for calculating the distance between two vectors.
type DistanceFunc func(v1, v2 []float32) (float32, error)

// Result represents a single search hit: the internal id of a stored vector
// and its distance to the query.
type Result struct {
	ID       int64
	Distance float32
}

// Searcher is the capability an already-built search index must expose:
// given a query vector and k, return up to k nearest internal ids with
// their distances, sorted ascending by distance.
type Searcher interface {
	Search(query []float32, k int) ([]Result, error)
}
