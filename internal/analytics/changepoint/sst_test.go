package changepoint

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/soltixdb/sst/internal/logging"
)

const jumpAt = 500

func newScenario(t *testing.T, opts ...Option) *SingularSpectrumTransformation {
	t.Helper()
	base := []Option{WithOrder(50), WithLag(25), WithNComponents(3), WithSeed(7)}
	sst, err := New(50, append(base, opts...)...)
	require.NoError(t, err)
	return sst
}

func TestNew_Defaults(t *testing.T) {
	sst, err := New(40)
	require.NoError(t, err)

	p := sst.Params()
	assert.Equal(t, 40, p.Order)
	assert.Equal(t, 20, p.Lag)
	assert.Equal(t, 3, p.NComponents)
	assert.Equal(t, 5, p.RankLanczos)
	assert.True(t, p.UseLanczos)
	assert.Equal(t, DefaultEps, p.Eps)
	assert.Equal(t, AlgorithmLanczos, sst.Algorithm())
}

func TestNew_OptionsOverrideDerivedValues(t *testing.T) {
	sst, err := New(40, WithOrder(30), WithNComponents(2), WithLanczos(false), WithWorkers(3), WithEps(0))
	require.NoError(t, err)

	p := sst.Params()
	assert.Equal(t, 30, p.Order)
	assert.Equal(t, 15, p.Lag)
	assert.Equal(t, 4, p.RankLanczos)
	assert.Equal(t, 3, p.Workers)
	assert.Zero(t, p.Eps)
	assert.Equal(t, AlgorithmSVD, sst.Algorithm())
}

func TestNew_InvalidParams(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(10, WithNComponents(11))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = New(10, WithRankLanczos(11))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewFromParams(t *testing.T) {
	sst, err := NewFromParams(Params{WindowLength: 20, UseLanczos: false})
	require.NoError(t, err)
	assert.Equal(t, 20, sst.Params().Order)
	assert.Equal(t, 3, sst.Params().NComponents)
}

func TestScoreOffline_InvalidSeries(t *testing.T) {
	sst, err := New(10)
	require.NoError(t, err)

	_, err = sst.ScoreOffline(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = sst.ScoreOffline([]float64{1, math.NaN(), 2})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = sst.ScoreOffline([]float64{1, math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoreOffline_ShortSeriesWarns(t *testing.T) {
	var buf bytes.Buffer
	sst, err := New(10, WithLogger(logging.NewWithWriter(&buf, zerolog.DebugLevel)))
	require.NoError(t, err)

	scores, err := sst.ScoreOffline([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, scores)
	assert.Contains(t, buf.String(), "too short")
}

func TestScoreOffline_DoesNotModifyInput(t *testing.T) {
	series := sineWithJump(300, 200)
	orig := append([]float64(nil), series...)

	sst := newScenario(t)
	_, err := sst.ScoreOffline(series)
	require.NoError(t, err)
	assert.Equal(t, orig, series)
}

func TestScoreOffline_InvariantToAffineTransform(t *testing.T) {
	series := sineWithJump(300, 200)
	shifted := make([]float64, len(series))
	for i, v := range series {
		shifted[i] = 10*v - 4
	}

	sst := newScenario(t, WithLanczos(false))
	a, err := sst.ScoreOffline(series)
	require.NoError(t, err)
	b, err := sst.ScoreOffline(shifted)
	require.NoError(t, err)

	assert.InDeltaSlice(t, a, b, 1e-9)
}

func TestScoreOffline_WithRandIsReproducible(t *testing.T) {
	series := sineWithJump(300, 200)

	a, err := newScenario(t, WithRand(constSource(0.3))).ScoreOffline(series)
	require.NoError(t, err)
	b, err := newScenario(t, WithRand(constSource(0.3))).ScoreOffline(series)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func assertPeakNearJump(t *testing.T, scores []float64, margin int) {
	t.Helper()

	// the history window trails by lag=25, so the response extends past jump+margin
	peak := floats.MaxIdx(scores)
	assert.GreaterOrEqual(t, peak, jumpAt-margin, "peak at %d", peak)
	assert.LessOrEqual(t, peak, jumpAt+2*margin+25, "peak at %d", peak)

	var far float64
	for i, s := range scores {
		if i < jumpAt-margin || i > jumpAt+3*margin {
			far = math.Max(far, s)
		}
	}
	assert.Greater(t, scores[peak], 0.0)
	assert.Less(t, far, scores[peak]/100, "far=%g peak=%g", far, scores[peak])
}

func TestScoreOffline_AmplitudeJump(t *testing.T) {
	series := sineWithJump(1000, jumpAt)

	for _, useLanczos := range []bool{false, true} {
		sst := newScenario(t, WithLanczos(useLanczos))
		scores, err := sst.ScoreOffline(series)
		require.NoError(t, err)
		require.Len(t, scores, 1000)

		for i := 0; i < sst.Params().StartIndex()-1; i++ {
			require.Zero(t, scores[i])
		}
		for _, s := range scores {
			require.GreaterOrEqual(t, s, 0.0)
			require.LessOrEqual(t, s, 1.0)
		}
		assertPeakNearJump(t, scores, 50)
	}
}

func TestScoreOffline_StrategiesAgree(t *testing.T) {
	// at n=3 the Krylov scores track the SVD ones only loosely (r ≈ 0.23 on
	// this series); the leading direction is where the two must agree
	series := sineWithJump(1000, jumpAt)

	svd, err := New(50, WithNComponents(1), WithLanczos(false))
	require.NoError(t, err)
	lanczos, err := New(50, WithNComponents(1), WithRankLanczos(3), WithSeed(3))
	require.NoError(t, err)

	a, err := svd.ScoreOffline(series)
	require.NoError(t, err)
	b, err := lanczos.ScoreOffline(series)
	require.NoError(t, err)

	start := svd.Params().StartIndex() - 1
	r := stat.Correlation(a[start:], b[start:], nil)
	assert.Greater(t, r, 0.9)

	assertPeakNearJump(t, a, 50)
	assertPeakNearJump(t, b, 50)
}

func TestScoreOffline_PeriodicSeriesIsSelfSimilar(t *testing.T) {
	series := sineWithJump(400, 1000)

	for _, useLanczos := range []bool{false, true} {
		sst := newScenario(t, WithLanczos(useLanczos))
		scores, err := sst.ScoreOffline(series)
		require.NoError(t, err)

		for i := sst.Params().StartIndex() - 1; i < len(scores); i++ {
			assert.Less(t, scores[i], 1e-6, "index %d lanczos=%v", i, useLanczos)
		}
	}
}
