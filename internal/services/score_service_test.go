package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/archive"
	"github.com/soltixdb/sst/internal/config"
	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/profiles"
	"github.com/soltixdb/sst/internal/queue"
)

const testJobSubject = "test.jobs"

func testDetectorConfig() config.DetectorConfig {
	return config.DetectorConfig{
		Algorithm:       "sst",
		WindowLength:    10,
		NComponents:     2,
		Eps:             1e-3,
		Workers:         2,
		Threshold:       1e-9,
		MaxSeriesLength: 1000,
	}
}

// stepSeries is a sine whose amplitude triples at jump
func stepSeries(n, jump int) []float64 {
	values := make([]float64, n)
	for i := range values {
		amp := 1.0
		if i >= jump {
			amp = 3
		}
		values[i] = amp * math.Sin(2*math.Pi*float64(i)/12)
	}
	return values
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func newTestService(t *testing.T, withArchive bool, pub queue.Publisher) *ScoreService {
	t.Helper()
	var store *archive.Store
	if withArchive {
		var err error
		store, err = archive.New(t.TempDir(), true, logging.Nop())
		require.NoError(t, err)
	}
	return NewScoreService(logging.Nop(), testDetectorConfig(), profiles.NewMemoryStore(), store, pub, testJobSubject)
}

func requireServiceError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr), "expected ServiceError, got %T", err)
	assert.Equal(t, code, svcErr.Code, svcErr.Message)
}

func TestScoreService_Score(t *testing.T) {
	svc := newTestService(t, false, nil)
	seed := int64(3)

	resp, err := svc.Score(context.Background(), &models.ScoreRequest{
		Values: stepSeries(200, 100),
		Params: models.ParamsInput{Seed: &seed},
	})
	require.NoError(t, err)

	assert.Equal(t, changepoint.AlgorithmLanczos, resp.Algorithm)
	assert.Equal(t, 200, resp.Length)
	assert.Len(t, resp.Scores, 200)
	assert.Equal(t, 10, resp.Params.WindowLength)
	assert.Equal(t, 2, resp.Params.NComponents)
	assert.Equal(t, 10, resp.MinDistance, "min distance defaults to window length")
	assert.Empty(t, resp.ResultID)

	require.NotEmpty(t, resp.ChangePoints)
	for _, cp := range resp.ChangePoints {
		assert.GreaterOrEqual(t, cp.Index, resp.Params.StartIndex()-1)
		assert.Less(t, cp.Index, 200)
		assert.Empty(t, cp.Time)
	}
}

func TestScoreService_UseLanczosSelectsStrategy(t *testing.T) {
	svc := newTestService(t, false, nil)

	resp, err := svc.Score(context.Background(), &models.ScoreRequest{
		Values: stepSeries(200, 100),
		Params: models.ParamsInput{UseLanczos: boolPtr(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, changepoint.AlgorithmSVD, resp.Algorithm)
	assert.False(t, resp.Params.UseLanczos)

	resp, err = svc.Score(context.Background(), &models.ScoreRequest{
		Algorithm: changepoint.AlgorithmSVD,
		Values:    stepSeries(200, 100),
		Params:    models.ParamsInput{UseLanczos: boolPtr(false)},
	})
	require.NoError(t, err)
	assert.Equal(t, changepoint.AlgorithmSVD, resp.Algorithm)
}

func TestScoreService_UseLanczosConflict(t *testing.T) {
	svc := newTestService(t, false, nil)

	_, err := svc.Score(context.Background(), &models.ScoreRequest{
		Algorithm: changepoint.AlgorithmSVD,
		Values:    stepSeries(200, 100),
		Params:    models.ParamsInput{UseLanczos: boolPtr(true)},
	})
	requireServiceError(t, err, CodeInvalidParams)

	_, err = svc.Score(context.Background(), &models.ScoreRequest{
		Algorithm: changepoint.AlgorithmLanczos,
		Values:    stepSeries(200, 100),
		Params:    models.ParamsInput{UseLanczos: boolPtr(false)},
	})
	requireServiceError(t, err, CodeInvalidParams)
}

func TestScoreService_ExplicitZeroEps(t *testing.T) {
	svc := newTestService(t, false, nil)
	eps := 0.0
	seed := int64(9)

	resp, err := svc.Score(context.Background(), &models.ScoreRequest{
		Values: stepSeries(200, 100),
		Params: models.ParamsInput{Eps: &eps, Seed: &seed},
	})
	require.NoError(t, err)
	assert.Equal(t, changepoint.AlgorithmLanczos, resp.Algorithm)
	assert.Equal(t, 0.0, resp.Params.Eps)
}

func TestScoreService_ScorePointsCarryTime(t *testing.T) {
	svc := newTestService(t, false, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	values := stepSeries(150, 80)
	points := make([]models.PointInput, len(values))
	for i, v := range values {
		points[i] = models.PointInput{Time: base.Add(time.Duration(i) * time.Minute).Format(time.RFC3339), Value: v}
	}

	resp, err := svc.Score(context.Background(), &models.ScoreRequest{
		Algorithm: changepoint.AlgorithmSVD,
		Points:    points,
	})
	require.NoError(t, err)
	assert.Equal(t, changepoint.AlgorithmSVD, resp.Algorithm)
	require.NotEmpty(t, resp.ChangePoints)
	cp := resp.ChangePoints[0]
	assert.Equal(t, base.Add(time.Duration(cp.Index)*time.Minute).Format(time.RFC3339Nano), cp.Time)
}

func TestScoreService_ProfileLayering(t *testing.T) {
	svc := newTestService(t, false, nil)
	ctx := context.Background()

	threshold := 0.25
	_, err := svc.PutProfile(ctx, "slow", &models.ProfileRequest{
		Algorithm:   changepoint.AlgorithmSVD,
		Params:      models.ParamsInput{WindowLength: intPtr(12), Order: intPtr(8)},
		Threshold:   &threshold,
		MinDistance: intPtr(30),
	})
	require.NoError(t, err)

	resp, err := svc.Score(ctx, &models.ScoreRequest{
		Profile: "slow",
		Values:  stepSeries(200, 100),
		Params:  models.ParamsInput{WindowLength: intPtr(14)},
	})
	require.NoError(t, err)

	assert.Equal(t, "slow", resp.Profile)
	assert.Equal(t, changepoint.AlgorithmSVD, resp.Algorithm)
	assert.Equal(t, 14, resp.Params.WindowLength, "request overrides profile")
	assert.Equal(t, 8, resp.Params.Order, "profile overrides config")
	assert.Equal(t, 4, resp.Params.Lag)
	assert.Equal(t, 0.25, resp.Threshold)
	assert.Equal(t, 30, resp.MinDistance)
}

func TestScoreService_ScoreErrors(t *testing.T) {
	svc := newTestService(t, false, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.ScoreRequest
		code string
	}{
		{"empty", models.ScoreRequest{}, CodeInvalidRequest},
		{"too long", models.ScoreRequest{Values: make([]float64, 1001)}, CodeSeriesTooLong},
		{"unknown profile", models.ScoreRequest{Profile: "missing", Values: []float64{1}}, CodeProfileNotFound},
		{"unknown algorithm", models.ScoreRequest{Algorithm: "cusum", Values: []float64{1}}, CodeInvalidAlgo},
		{"bad params", models.ScoreRequest{Values: []float64{1}, Params: models.ParamsInput{NComponents: intPtr(20)}}, CodeInvalidParams},
		{"bad time", models.ScoreRequest{Points: []models.PointInput{{Time: "noon", Value: 1}}}, CodeInvalidRequest},
		{"non-finite", models.ScoreRequest{Values: []float64{1, math.NaN(), 2}}, CodeInvalidRequest},
		{"archive disabled", models.ScoreRequest{Values: []float64{1}, Archive: true}, CodeArchiveDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Score(ctx, &tt.req)
			requireServiceError(t, err, tt.code)
		})
	}
}

func TestScoreService_ArchiveLifecycle(t *testing.T) {
	svc := newTestService(t, true, nil)

	resp, err := svc.Score(context.Background(), &models.ScoreRequest{
		Values:  stepSeries(120, 60),
		Archive: true,
		Label:   "line-3",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ResultID)

	rec, err := svc.GetResult(resp.ResultID)
	require.NoError(t, err)
	assert.Equal(t, resp.Scores, rec.Scores)
	assert.Equal(t, "line-3", rec.Label)
	assert.Len(t, rec.ChangePoints, len(resp.ChangePoints))

	list, err := svc.ListResults()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, resp.ResultID, list[0].ID)

	require.NoError(t, svc.DeleteResult(resp.ResultID))
	_, err = svc.GetResult(resp.ResultID)
	requireServiceError(t, err, CodeResultNotFound)
	requireServiceError(t, svc.DeleteResult(resp.ResultID), CodeResultNotFound)

	_, err = svc.GetResult("../../etc/passwd")
	requireServiceError(t, err, CodeInvalidRequest)
}

func TestScoreService_ArchiveDisabled(t *testing.T) {
	svc := newTestService(t, false, nil)

	_, err := svc.GetResult(uuid.NewString())
	requireServiceError(t, err, CodeArchiveDisabled)
	_, err = svc.ListResults()
	requireServiceError(t, err, CodeArchiveDisabled)
	requireServiceError(t, svc.DeleteResult(uuid.NewString()), CodeArchiveDisabled)
}

func TestScoreService_SubmitAndProcessJob(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()

	jobs := make(chan []byte, 1)
	require.NoError(t, q.Subscribe(testJobSubject, func(_ context.Context, data []byte) error {
		jobs <- data
		return nil
	}))

	svc := newTestService(t, true, q)
	req := &models.ScoreRequest{Values: stepSeries(120, 60), Label: "async"}

	submitted, err := svc.SubmitJob(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, testJobSubject, submitted.Subject)
	assert.Equal(t, submitted.JobID, submitted.ResultID)

	var job models.ScoreJob
	select {
	case data := <-jobs:
		require.NoError(t, json.Unmarshal(data, &job))
	case <-time.After(2 * time.Second):
		t.Fatal("job was not published")
	}
	assert.Equal(t, submitted.JobID, job.ID)
	assert.True(t, job.Request.Archive)
	assert.False(t, req.Archive, "caller's request is not modified")

	result := svc.ProcessJob(context.Background(), &job)
	assert.Equal(t, models.JobStatusCompleted, result.Status)
	assert.Equal(t, submitted.ResultID, result.ResultID)
	assert.Empty(t, result.Error)

	rec, err := svc.GetResult(submitted.ResultID)
	require.NoError(t, err)
	assert.Equal(t, "async", rec.Label)
	assert.Len(t, rec.Scores, 120)
}

func TestScoreService_SubmitJobErrors(t *testing.T) {
	q := queue.NewMemoryQueue()
	defer func() { _ = q.Close() }()

	_, err := newTestService(t, true, nil).SubmitJob(context.Background(), &models.ScoreRequest{Values: []float64{1}})
	requireServiceError(t, err, CodeQueueDisabled)

	_, err = newTestService(t, false, q).SubmitJob(context.Background(), &models.ScoreRequest{Values: []float64{1}})
	requireServiceError(t, err, CodeArchiveDisabled)

	_, err = newTestService(t, true, q).SubmitJob(context.Background(), &models.ScoreRequest{})
	requireServiceError(t, err, CodeInvalidRequest)
}

func TestScoreService_ProcessJobFailure(t *testing.T) {
	svc := newTestService(t, true, nil)

	result := svc.ProcessJob(context.Background(), &models.ScoreJob{
		ID:      uuid.NewString(),
		Request: models.ScoreRequest{Algorithm: "nope", Values: []float64{1, 2}},
	})
	assert.Equal(t, models.JobStatusFailed, result.Status)
	assert.NotEmpty(t, result.Error)
	assert.Empty(t, result.ResultID)
	assert.False(t, result.CompletedAt.IsZero())
}

func TestScoreService_ListDetectors(t *testing.T) {
	svc := newTestService(t, false, nil)
	resp := svc.ListDetectors()
	assert.Contains(t, resp.Detectors, changepoint.AlgorithmSVD)
	assert.Contains(t, resp.Detectors, changepoint.AlgorithmLanczos)
	assert.Equal(t, "sst", resp.Default)
}
