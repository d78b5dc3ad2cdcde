package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// PowerMethod approximates the leading singular triplet of a by running nIter
// rounds of x ← aᵀa·x starting from x0. The iteration count is fixed; there is
// no convergence test. It returns the left vector u = a·v/‖a·v‖, the singular
// value estimate s = ‖a·v‖ and the right vector v = x/‖x‖.
//
// x0 is not modified.
func PowerMethod(a mat.Matrix, x0 []float64, nIter int) (u []float64, s float64, v []float64, err error) {
	r, c := a.Dims()
	if len(x0) != c {
		return nil, 0, nil, fmt.Errorf("%w: power method on %dx%d with seed of length %d",
			ErrDimensionMismatch, r, c, len(x0))
	}
	if nIter < 0 {
		return nil, 0, nil, fmt.Errorf("linalg: negative iteration count %d", nIter)
	}

	x := mat.NewVecDense(c, append([]float64(nil), x0...))
	ax := mat.NewVecDense(r, nil)
	for i := 0; i < nIter; i++ {
		ax.MulVec(a, x)
		x.MulVec(a.T(), ax)
	}

	v = append([]float64(nil), x.RawVector().Data...)
	if err := Normalize(v); err != nil {
		return nil, 0, nil, fmt.Errorf("power method: %w", err)
	}

	av := mat.NewVecDense(r, nil)
	av.MulVec(a, mat.NewVecDense(c, v))
	u = append([]float64(nil), av.RawVector().Data...)
	s = floats.Norm(u, 2)
	if err := Normalize(u); err != nil {
		return nil, 0, nil, fmt.Errorf("power method: %w", err)
	}

	return u, s, v, nil
}
