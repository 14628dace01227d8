// ABOUTME: Typed errors for the vector index
// ABOUTME: Degenerate vectors, dimension mismatches and duplicate keys
package vectorindex

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateVector is matched by every DegenerateVectorError.
	ErrDegenerateVector = errors.New("degenerate vector")
	// ErrDimensionMismatch is matched by every DimensionMismatchError.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDuplicateKey is returned when Build receives the same key twice.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNegativeTopK is returned by Search for top_k < 0.
	ErrNegativeTopK = errors.New("top_k must be >= 0")
)

// DegenerateVectorError is returned when a vector cannot be normalized,
// because its norm is zero or not finite.
type DegenerateVectorError struct {
	Norm float64
}

func (e *DegenerateVectorError) Error() string {
	return fmt.Sprintf("degenerate vector: norm %v cannot be normalized", e.Norm)
}

func (e *DegenerateVectorError) Is(target error) bool {
	return target == ErrDegenerateVector
}

// DimensionMismatchError is returned when a vector's length differs from the index dimension.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Want, e.Got)
}

func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}
