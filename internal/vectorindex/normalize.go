// ABOUTME: L2 normalization and inner product for float32 vectors
// ABOUTME: Zero or non-finite norms are rejected as degenerate
package vectorindex

import "math"

// Norm returns the L2 norm of v, accumulated in float64.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		f := float64(x)
		sum += f * f
	}
	return math.Sqrt(sum)
}

// Normalize returns v / ||v|| as a new slice. It fails with a
// DegenerateVectorError when the norm is zero, NaN or infinite.
func Normalize(v []float32) ([]float32, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, &DegenerateVectorError{Norm: n}
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out, nil
}

// Dot is the inner product of two equal-length vectors.
func Dot(a, b []float32) float32 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return float32(sum)
}
