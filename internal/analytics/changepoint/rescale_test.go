package changepoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMaxScale(t *testing.T) {
	in := []float64{2, 4, 6, 3}
	out := MinMaxScale(in, 1, 2)

	assert.InDeltaSlice(t, []float64{1, 1.5, 2, 1.25}, out, 1e-15)
	assert.Equal(t, []float64{2, 4, 6, 3}, in)
}

func TestMinMaxScale_Constant(t *testing.T) {
	out := MinMaxScale([]float64{7, 7, 7}, 1, 2)
	assert.Equal(t, []float64{1, 1, 1}, out)
}

func TestMinMaxScale_Empty(t *testing.T) {
	assert.Empty(t, MinMaxScale(nil, 1, 2))
}
