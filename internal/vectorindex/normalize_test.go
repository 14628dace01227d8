// ABOUTME: Tests for normalization and the inner product
// ABOUTME: Covers unit length, exact values, idempotence and degenerate inputs
package vectorindex

import (
	"errors"
	"math"
	"testing"
)

const tolerance = 1e-6

func approxEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tolerance {
			return false
		}
	}
	return true
}

func TestNormalize_UnitNorm(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
	}{
		{"axis", []float32{3, 0, 0}},
		{"3-4-5", []float32{3, 4}},
		{"negative", []float32{-1, -2, -3, -4}},
		{"tiny", []float32{1e-20, 1e-20}},
		{"large", []float32{1e18, 1e18, 1e18}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Normalize(tt.v)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			if n := Norm(u); math.Abs(n-1) > tolerance {
				t.Errorf("||Normalize(v)|| = %v, want 1", n)
			}
		})
	}
}

func TestNormalize_Values(t *testing.T) {
	u, err := Normalize([]float32{3, 4})
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if !approxEqual(u, []float32{0.6, 0.8}) {
		t.Errorf("Normalize([3 4]) = %v, want [0.6 0.8]", u)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	vectors := [][]float32{
		{1, 2, 3},
		{0.5, -0.25, 8, 0},
		{1e-3, 1e3},
	}

	for _, v := range vectors {
		once, err := Normalize(v)
		if err != nil {
			t.Fatalf("Normalize(%v) error = %v", v, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(Normalize(%v)) error = %v", v, err)
		}
		if !approxEqual(once, twice) {
			t.Errorf("Normalize not idempotent: %v vs %v", once, twice)
		}
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	v := []float32{3, 4}
	if _, err := Normalize(v); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if v[0] != 3 || v[1] != 4 {
		t.Errorf("input mutated to %v", v)
	}
}

func TestNormalize_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		v    []float32
	}{
		{"zero vector", []float32{0, 0, 0}},
		{"empty vector", []float32{}},
		{"nan", []float32{float32(math.NaN()), 1}},
		{"inf", []float32{float32(math.Inf(1)), 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Normalize(tt.v)
			if !errors.Is(err, ErrDegenerateVector) {
				t.Errorf("error = %v, want ErrDegenerateVector", err)
			}
			var dve *DegenerateVectorError
			if !errors.As(err, &dve) {
				t.Errorf("error type = %T, want *DegenerateVectorError", err)
			}
			if u != nil {
				t.Errorf("Normalize() = %v, want nil", u)
			}
		})
	}
}
