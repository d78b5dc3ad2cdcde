package changepoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func rampSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i)
	}
	return s
}

func TestBuildHankel_Values(t *testing.T) {
	x, err := BuildHankel(rampSeries(10), 3, 3, 6)
	require.NoError(t, err)

	r, c := x.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	want := mat.NewDense(3, 3, []float64{
		3, 2, 1,
		4, 3, 2,
		5, 4, 3,
	})
	assert.True(t, mat.Equal(want, x), "got %v", mat.Formatted(x))
}

func TestBuildHankel_Idempotent(t *testing.T) {
	series := []float64{1.1, 1.7, 1.3, 1.9, 1.2, 1.5, 1.8, 1.4}
	a, err := BuildHankel(series, 2, 3, 7)
	require.NoError(t, err)
	b, err := BuildHankel(series, 2, 3, 7)
	require.NoError(t, err)

	assert.Equal(t, a.RawMatrix().Data, b.RawMatrix().Data)
	assert.Equal(t, []float64{1.1, 1.7, 1.3, 1.9, 1.2, 1.5, 1.8, 1.4}, series)
}

func TestBuildHankel_DoesNotAliasSeries(t *testing.T) {
	series := rampSeries(6)
	x, err := BuildHankel(series, 2, 2, 4)
	require.NoError(t, err)

	x.Set(0, 0, -1)
	assert.Equal(t, 2.0, series[2])
}

func TestBuildHankel_OutOfRange(t *testing.T) {
	series := rampSeries(10)

	_, err := BuildHankel(series, 3, 2, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = BuildHankel(series, 3, 5, 11)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestBuildHankel_InvalidShape(t *testing.T) {
	series := rampSeries(10)

	_, err := BuildHankel(series, 0, 3, 6)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = BuildHankel(series, 2, 6, 6)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCorrelation_IsGramOfHankel(t *testing.T) {
	series := []float64{1, 2, 1, 3, 1, 4, 1, 5}
	p, err := correlation(series, 2, 4, 7)
	require.NoError(t, err)

	x, err := BuildHankel(series, 2, 4, 7)
	require.NoError(t, err)
	var want mat.Dense
	want.Mul(x.T(), x)

	assert.True(t, mat.EqualApprox(&want, p, 1e-12))
}
