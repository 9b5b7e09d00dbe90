package embstore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/embstore/index"
	"github.com/hupe1980/embstore/keyindex"
)

var (
	// ErrNotFound is returned when a key or id is not present in the store.
	ErrNotFound = errors.New("embstore: not found")
	// ErrDuplicateKey is returned when setting a key that is already stored.
	ErrDuplicateKey = errors.New("embstore: duplicate key")
	// ErrDuplicateID is returned when the key index already maps the id.
	ErrDuplicateID = errors.New("embstore: duplicate id")
	// ErrReadOnly is returned when mutating a read-only component.
	ErrReadOnly = errors.New("embstore: read-only")
	// ErrClosed is returned when operating on a closed Writer or Reader.
	ErrClosed = errors.New("embstore: closed")
	// ErrValidation is returned when a required on-disk component is missing
	// or malformed at open time.
	ErrValidation = errors.New("embstore: invalid store layout")
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("embstore: k must be positive")
)

// ErrDimensionMismatch indicates a vector/store dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("embstore: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// translateError maps subpackage errors onto the package-level taxonomy so
// callers only match against embstore sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, keyindex.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, keyindex.ErrDuplicateKey):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case errors.Is(err, keyindex.ErrDuplicateID):
		return fmt.Errorf("%w: %w", ErrDuplicateID, err)
	case errors.Is(err, keyindex.ErrReadOnly):
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	case errors.Is(err, keyindex.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, index.ErrInvalidK):
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}

	var dm *index.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	return err
}
