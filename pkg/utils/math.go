package utils

import "math"

// NormalizeL2 scales x in place to unit Euclidean length and returns the
// length it had. A zero vector is left as is.
func NormalizeL2(x []float32) float64 {
	var sq float64
	for _, v := range x {
		sq += float64(v) * float64(v)
	}
	norm := math.Sqrt(sq)
	if norm == 0 {
		return 0
	}
	for i, v := range x {
		x[i] = float32(float64(v) / norm)
	}
	return norm
}
