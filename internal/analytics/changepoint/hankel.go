package changepoint

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/soltixdb/sst/internal/linalg"
)

// BuildHankel builds the (end-start)×order trajectory matrix whose column i is
// series[start-i : end-i]. It needs start-order ≥ 0 and end ≤ len(series).
func BuildHankel(series []float64, order, start, end int) (*mat.Dense, error) {
	if order < 1 || end <= start {
		return nil, fmt.Errorf("%w: hankel order=%d start=%d end=%d", ErrInvalidInput, order, start, end)
	}
	if start-order < 0 || end > len(series) {
		return nil, fmt.Errorf("%w: hankel [%d,%d) with order %d over series of length %d",
			ErrIndexOutOfRange, start, end, order, len(series))
	}

	win := end - start
	x := mat.NewDense(win, order, nil)
	for i := 0; i < order; i++ {
		x.SetCol(i, series[start-i:end-i])
	}
	return x, nil
}

// correlation returns the order×order matrix xᵀx of the window [start,end).
func correlation(series []float64, order, start, end int) (*mat.SymDense, error) {
	x, err := BuildHankel(series, order, start, end)
	if err != nil {
		return nil, err
	}
	return linalg.Gram(x), nil
}
