package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// breakdownTol is the relative size of an off-diagonal below which the Krylov
// space is treated as invariant and the recurrence stops.
const breakdownTol = 1e-10

// Lanczos reduces the symmetric matrix c to a rank×rank symmetric tridiagonal
// matrix by building an orthonormal Krylov basis from seed. Each new basis
// vector is re-orthogonalized against all previous ones.
//
// When the Krylov space becomes invariant before rank steps, the recurrence
// stops and the returned matrix is smaller than rank.
func Lanczos(c mat.Symmetric, seed []float64, rank int) (*Tridiagonal, error) {
	n := c.SymmetricDim()
	if len(seed) != n {
		return nil, fmt.Errorf("%w: lanczos on %dx%d with seed of length %d",
			ErrDimensionMismatch, n, n, len(seed))
	}
	if rank < 1 || rank > n {
		return nil, fmt.Errorf("%w: lanczos rank %d outside [1, %d]", ErrDimensionMismatch, rank, n)
	}

	q := append([]float64(nil), seed...)
	if err := Normalize(q); err != nil {
		return nil, fmt.Errorf("lanczos seed: %w", err)
	}

	t := &Tridiagonal{
		Diag: make([]float64, 0, rank),
		Off:  make([]float64, 0, rank-1),
	}
	basis := make([][]float64, 0, rank)
	w := mat.NewVecDense(n, nil)
	var scale float64

	for j := 0; j < rank; j++ {
		basis = append(basis, q)
		w.MulVec(c, mat.NewVecDense(n, q))
		r := w.RawVector().Data

		alpha := floats.Dot(q, r)
		t.Diag = append(t.Diag, alpha)
		scale = math.Max(scale, math.Abs(alpha))
		if j == rank-1 {
			break
		}

		// full re-orthogonalization subsumes the three-term recurrence
		for _, b := range basis {
			floats.AddScaled(r, -floats.Dot(b, r), b)
		}
		beta := floats.Norm(r, 2)
		if beta <= breakdownTol*math.Max(scale, beta) {
			break
		}
		scale = math.Max(scale, beta)
		t.Off = append(t.Off, beta)

		q = make([]float64, n)
		floats.ScaleTo(q, 1/beta, r)
	}

	return t, nil
}
