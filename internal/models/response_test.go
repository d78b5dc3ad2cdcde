package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/archive"
	"github.com/soltixdb/sst/internal/downsampling"
)

func TestNewResultResponse(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &archive.Record{
		ID:           "id",
		Label:        "label",
		Algorithm:    changepoint.AlgorithmSVD,
		Scores:       []float64{0, 0.2, 0.9, 0.1},
		ChangePoints: []changepoint.ChangePoint{{Index: 2, Score: 0.9}},
		CreatedAt:    created,
	}

	resp := NewResultResponse(rec)
	assert.Equal(t, "id", resp.ID)
	assert.Equal(t, 4, resp.Length)
	assert.Equal(t, rec.Scores, resp.Scores)
	require.Len(t, resp.ChangePoints, 1)
	assert.Equal(t, 2, resp.ChangePoints[0].Index)
	assert.Empty(t, resp.ChangePoints[0].Time)
	assert.Equal(t, created.Format(time.RFC3339Nano), resp.CreatedAt)
}

func TestResultResponse_Downsample(t *testing.T) {
	scores := make([]float64, 1000)
	scores[401] = 0.3
	scores[700] = 0.95

	resp := ResultResponse{
		Length:       len(scores),
		Scores:       scores,
		ChangePoints: []ChangePointView{{Index: 401, Score: 0.3}, {Index: 700, Score: 0.95}},
	}
	require.NoError(t, resp.Downsample(downsampling.ModeM4, 40))

	assert.Len(t, resp.Indices, len(resp.Scores))
	assert.Less(t, len(resp.Scores), 1000)
	assert.Contains(t, resp.Indices, 401)
	assert.Contains(t, resp.Indices, 700)
	assert.Equal(t, 1000, resp.Length)
	for i, idx := range resp.Indices {
		assert.Equal(t, scores[idx], resp.Scores[i])
	}
}

func TestResultResponse_DownsampleNoop(t *testing.T) {
	resp := ResultResponse{Scores: []float64{1, 2, 3}}
	require.NoError(t, resp.Downsample(downsampling.ModeLTTB, 10))
	assert.Equal(t, []float64{1, 2, 3}, resp.Scores)
	assert.Nil(t, resp.Indices)

	resp = ResultResponse{Scores: make([]float64, 50)}
	require.NoError(t, resp.Downsample(downsampling.ModeNone, 10))
	assert.Len(t, resp.Scores, 50)
	assert.Nil(t, resp.Indices)
}
