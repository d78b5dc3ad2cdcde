package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LeftSingularVectors returns the k leading left singular vectors of a as the
// columns of an r×k matrix.
func LeftSingularVectors(a mat.Matrix, k int) (*mat.Dense, error) {
	r, c := a.Dims()
	if k < 1 || k > min(r, c) {
		return nil, fmt.Errorf("%w: %d singular vectors requested from %dx%d matrix",
			ErrDimensionMismatch, k, r, c)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThinU); !ok {
		return nil, fmt.Errorf("svd: %w", ErrNoConvergence)
	}

	var u mat.Dense
	svd.UTo(&u)
	m, _ := u.Dims()

	var lead mat.Dense
	lead.CloneFrom(u.Slice(0, m, 0, k))
	return &lead, nil
}

// SingularValues returns the singular values of a in descending order.
func SingularValues(a mat.Matrix) ([]float64, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return nil, fmt.Errorf("svd: %w", ErrNoConvergence)
	}
	return svd.Values(nil), nil
}
