package vector

import "math"

// similarity scores v against q so that higher is always closer: the dot
// product for cosine (vectors are unit length), the negated Euclidean
// distance for L2. Vectors of different length never match.
func (m Metric) similarity(q, v []float32) float64 {
	if len(q) != len(v) {
		return math.Inf(-1)
	}
	var acc float64
	if m == MetricL2 {
		for i := range q {
			d := float64(q[i]) - float64(v[i])
			acc += d * d
		}
		return -math.Sqrt(acc)
	}
	for i := range q {
		acc += float64(q[i]) * float64(v[i])
	}
	return acc
}
