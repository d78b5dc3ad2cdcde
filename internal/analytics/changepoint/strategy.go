package changepoint

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/soltixdb/sst/internal/linalg"
)

// powerIterations is fixed at one step. FELIX-SST trades accuracy of the
// test-side singular vector for speed; do not iterate to convergence.
const powerIterations = 1

// CompareSVD scores the dissimilarity of the dominant nComponents-dimensional
// subspaces of ptest and phist as 1 - cos θ₁, θ₁ being the smallest principal
// angle between them. 0 means identical subspaces, 1 orthogonal ones.
func CompareSVD(ptest, phist mat.Matrix, nComponents int) (float64, error) {
	uTest, err := linalg.LeftSingularVectors(ptest, nComponents)
	if err != nil {
		return 0, fmt.Errorf("test subspace: %w", err)
	}
	uHist, err := linalg.LeftSingularVectors(phist, nComponents)
	if err != nil {
		return 0, fmt.Errorf("history subspace: %w", err)
	}

	var cross mat.Dense
	cross.Mul(uTest.T(), uHist)

	s, err := linalg.SingularValues(&cross)
	if err != nil {
		return 0, fmt.Errorf("cross subspace: %w", err)
	}
	return clampUnit(1 - s[0]), nil
}

// CompareLanczos is the FELIX-SST approximation of CompareSVD. One power step
// on ptest from seed yields the test direction u; Lanczos on phist seeded with u
// gives a rank×rank tridiagonal matrix whose leading eigenvectors' first
// entries measure how much of u lies in the dominant history subspace.
//
// u is returned as the candidate seed for the next index.
func CompareLanczos(ptest, phist mat.Symmetric, nComponents, rank int, seed []float64) (float64, []float64, error) {
	u, _, _, err := linalg.PowerMethod(ptest, seed, powerIterations)
	if err != nil {
		return 0, nil, err
	}

	tri, err := linalg.Lanczos(phist, u, rank)
	if err != nil {
		return 0, nil, err
	}

	_, vectors, err := linalg.EigTridiag(tri)
	if err != nil {
		return 0, nil, err
	}

	k := min(nComponents, tri.Dim())
	var proj float64
	for j := 0; j < k; j++ {
		v := vectors.At(0, j)
		proj += v * v
	}
	return clampUnit(1 - proj), u, nil
}

// clampUnit removes rounding excursions outside [0,1].
func clampUnit(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
