package semantic

import "math"

// dot computes the inner product of two equal-length vectors, clamped to
// [-1, 1] to absorb float error on normalized inputs.
func dot(a, b []float32) float64 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	d := float64(sum)
	if d > 1 {
		return 1
	}
	if d < -1 {
		return -1
	}
	return d
}

// normalizeVector returns a unit-length copy of v. Zero vectors come back
// unchanged so degraded index slots simply never match.
func normalizeVector(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)

	normalized := make([]float32, len(v))
	for i, x := range v {
		normalized[i] = float32(float64(x) / norm)
	}
	return normalized
}
