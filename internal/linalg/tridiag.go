package linalg

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/lapack"
	golapack "gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/mat"
)

// EigTridiag computes the full eigen-decomposition of a symmetric tridiagonal
// matrix with the implicit QL/QR method (LAPACK dsteqr). Eigenvalues are
// returned in descending order and column k of vectors is the unit eigenvector
// for values[k].
func EigTridiag(t *Tridiagonal) (values []float64, vectors *mat.Dense, err error) {
	n := t.Dim()
	if n == 0 {
		return nil, nil, fmt.Errorf("%w: empty tridiagonal matrix", ErrDimensionMismatch)
	}
	if len(t.Off) != n-1 {
		return nil, nil, fmt.Errorf("%w: tridiagonal of order %d with %d off-diagonal entries",
			ErrDimensionMismatch, n, len(t.Off))
	}

	d := append([]float64(nil), t.Diag...)
	e := append(make([]float64, 0, n), t.Off...)
	z := make([]float64, n*n)
	work := make([]float64, max(1, 2*n-2))

	if ok := (golapack.Implementation{}).Dsteqr(lapack.EVTridiag, n, d, e, z, n, work); !ok {
		return nil, nil, fmt.Errorf("eig tridiag: %w", ErrNoConvergence)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return d[order[a]] > d[order[b]]
	})

	values = make([]float64, n)
	vectors = mat.NewDense(n, n, nil)
	for k, src := range order {
		values[k] = d[src]
		for i := 0; i < n; i++ {
			vectors.Set(i, k, z[i*n+src])
		}
	}
	return values, vectors, nil
}
