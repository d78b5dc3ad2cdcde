package changepoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestDataPoints(values []float64) []DataPoint {
	points := make([]DataPoint, len(values))
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		points[i] = DataPoint{
			Time:  baseTime.Add(time.Duration(i) * time.Minute),
			Value: v,
		}
	}
	return points
}

func TestListDetectors(t *testing.T) {
	names := ListDetectors()
	assert.Contains(t, names, "sst")
	assert.Contains(t, names, AlgorithmLanczos)
	assert.Contains(t, names, AlgorithmSVD)
	assert.IsNonDecreasing(t, names)
}

func TestGetDetector(t *testing.T) {
	d, err := GetDetector(AlgorithmSVD)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmSVD, d.Name())

	d, err = GetDetector(AlgorithmSST)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmSST, d.Name())

	_, err = GetDetector("prophet")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig(30)
	assert.Equal(t, 30, cfg.Params.WindowLength)
	assert.Equal(t, 30, cfg.MinDistance)
	assert.Equal(t, 0.5, cfg.Threshold)
}

func TestDetectChangePoints(t *testing.T) {
	data := createTestDataPoints(sineWithJump(1000, jumpAt))

	for _, algorithm := range []string{AlgorithmSVD, AlgorithmLanczos} {
		cfg := DefaultConfig(50)
		cfg.Params.Seed = 11
		cfg.Threshold = 1e-9
		cfg.MinDistance = 300

		result, err := DetectChangePoints(algorithm, data, cfg)
		require.NoError(t, err)
		assert.Equal(t, algorithm, result.Algorithm)
		assert.Len(t, result.Scores, len(data))
		assert.Equal(t, 50, result.Params.Order)
		require.NotEmpty(t, result.ChangePoints)

		top := result.ChangePoints[0]
		for _, cp := range result.ChangePoints {
			if cp.Score > top.Score {
				top = cp
			}
		}
		assert.GreaterOrEqual(t, top.Index, jumpAt-50)
		assert.LessOrEqual(t, top.Index, jumpAt+125)
		assert.Equal(t, data[top.Index].Time, top.Time)
	}
}

func TestPinnedStrategy(t *testing.T) {
	useLanczos, ok := PinnedStrategy(AlgorithmLanczos)
	assert.True(t, ok)
	assert.True(t, useLanczos)

	useLanczos, ok = PinnedStrategy(AlgorithmSVD)
	assert.True(t, ok)
	assert.False(t, useLanczos)

	_, ok = PinnedStrategy(AlgorithmSST)
	assert.False(t, ok)

	_, ok = PinnedStrategy("nope")
	assert.False(t, ok)
}

func TestDetectChangePoints_GenericFollowsParams(t *testing.T) {
	data := createTestDataPoints(sineWithJump(300, 150))

	cfg := DefaultConfig(20)
	cfg.Params.UseLanczos = false
	result, err := DetectChangePoints(AlgorithmSST, data, cfg)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmSVD, result.Algorithm)
	assert.False(t, result.Params.UseLanczos)

	cfg.Params.UseLanczos = true
	cfg.Params.Seed = 3
	result, err = DetectChangePoints(AlgorithmSST, data, cfg)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmLanczos, result.Algorithm)
}

func TestDetectChangePoints_PinnedOverridesParams(t *testing.T) {
	data := createTestDataPoints(sineWithJump(300, 150))

	cfg := DefaultConfig(20)
	cfg.Params.UseLanczos = true
	result, err := DetectChangePoints(AlgorithmSVD, data, cfg)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmSVD, result.Algorithm)
	assert.False(t, result.Params.UseLanczos)
}

func TestDetectChangePoints_KeepsExplicitEps(t *testing.T) {
	data := createTestDataPoints(sineWithJump(300, 150))

	cfg := DefaultConfig(20)
	cfg.Params.Eps = 0
	cfg.Params.Seed = 5
	result, err := DetectChangePoints(AlgorithmLanczos, data, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Params.Eps)
}

func TestDetectChangePoints_UnknownAlgorithm(t *testing.T) {
	_, err := DetectChangePoints("nope", createTestDataPoints([]float64{1, 2, 3}), DefaultConfig(2))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDetectChangePoints_InvalidParams(t *testing.T) {
	cfg := DefaultConfig(10)
	cfg.Params.NComponents = 20

	_, err := DetectChangePoints(AlgorithmSVD, createTestDataPoints(sineWithJump(100, 50)), cfg)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
