// Package metric provides scalar distance kernels for float32 vectors.
package metric

import (
	"errors"
	"math"
)

// ErrLengthMismatch is returned when two vectors have different lengths.
var ErrLengthMismatch = errors.New("metric: vector sizes do not match")

// Dot calculates the dot product of two float32 slices of equal length.
func Dot(v1, v2 []float32) float32 {
	var sum float32
	for i := range v1 {
		sum += v1[i] * v2[i]
	}
	return sum
}

// Magnitude calculates the magnitude (length) of a float32 slice.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(Dot(v, v))))
}

// SquaredL2 calculates the squared L2 distance between two float32 slices.
func SquaredL2(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrLengthMismatch
	}

	var sum float32
	for i := range v1 {
		d := v1[i] - v2[i]
		sum += d * d
	}
	return sum, nil
}

// Euclidean calculates the L2 distance between two float32 slices.
func Euclidean(v1, v2 []float32) (float32, error) {
	sq, err := SquaredL2(v1, v2)
	if err != nil {
		return 0, err
	}
	return float32(math.Sqrt(float64(sq))), nil
}

// CosineDistance calculates 1 - cosine similarity between two float32 slices.
// Zero vectors have distance 1 to everything.
func CosineDistance(v1, v2 []float32) (float32, error) {
	if len(v1) != len(v2) {
		return 0, ErrLengthMismatch
	}

	magA := Magnitude(v1)
	magB := Magnitude(v2)

	// Avoid division by zero
	if magA == 0 || magB == 0 {
		return 1, nil
	}

	return 1 - Dot(v1, v2)/(magA*magB), nil
}
