// Package linalg provides the numeric primitives used by singular spectrum
// transformation: a fixed-iteration power method, Lanczos tridiagonalization,
// a symmetric tridiagonal eigensolver and thin SVD helpers on top of gonum.
package linalg

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrZeroVector is returned when a vector that must be normalized has zero norm.
	ErrZeroVector = errors.New("linalg: zero vector")

	// ErrDimensionMismatch is returned when operand shapes disagree.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrNoConvergence is returned when a gonum/LAPACK factorization fails.
	ErrNoConvergence = errors.New("linalg: factorization did not converge")
)

// Tridiagonal is a real symmetric tridiagonal matrix stored by its diagonal
// and first off-diagonal. len(Off) == len(Diag)-1 for a non-empty matrix.
type Tridiagonal struct {
	Diag []float64
	Off  []float64
}

// Dim returns the order of the matrix.
func (t *Tridiagonal) Dim() int {
	return len(t.Diag)
}

// SymDense expands the tridiagonal matrix into a dense symmetric matrix.
func (t *Tridiagonal) SymDense() *mat.SymDense {
	n := t.Dim()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, t.Diag[i])
		if i+1 < n {
			s.SetSym(i, i+1, t.Off[i])
		}
	}
	return s
}

// Gram returns xᵀx as a symmetric matrix.
func Gram(x mat.Matrix) *mat.SymDense {
	_, c := x.Dims()
	g := mat.NewSymDense(c, nil)
	g.SymOuterK(1, x.T())
	return g
}

// Normalize scales v to unit Euclidean norm in place.
func Normalize(v []float64) error {
	n := floats.Norm(v, 2)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return ErrZeroVector
	}
	floats.Scale(1/n, v)
	return nil
}
