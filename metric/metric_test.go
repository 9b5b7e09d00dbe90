package metric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSquaredL2(t *testing.T) {
	d, err := SquaredL2([]float32{1, 2, 3}, []float32{1, 2, 3})
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = SquaredL2([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.Equal(t, float32(25), d)

	_, err = SquaredL2([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestEuclidean(t *testing.T) {
	d, err := Euclidean([]float32{0, 0}, []float32{3, 4})
	require.NoError(t, err)
	assert.Equal(t, float32(5), d)

	_, err = Euclidean([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestCosineDistance(t *testing.T) {
	d, err := CosineDistance([]float32{1, 0}, []float32{2, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, d, 1e-6)

	d, err = CosineDistance([]float32{1, 0}, []float32{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1, d, 1e-6)

	d, err = CosineDistance([]float32{1, 0}, []float32{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 2, d, 1e-6)

	// Zero vectors have distance 1 to everything.
	d, err = CosineDistance([]float32{0, 0}, []float32{1, 0})
	require.NoError(t, err)
	assert.Equal(t, float32(1), d)

	_, err = CosineDistance([]float32{1}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMagnitude(t *testing.T) {
	assert.Equal(t, float32(5), Magnitude([]float32{3, 4}))
	assert.Zero(t, Magnitude([]float32{0, 0, 0}))
}
