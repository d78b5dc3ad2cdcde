package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/sst/internal/analytics"
	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/archive"
	"github.com/soltixdb/sst/internal/config"
	"github.com/soltixdb/sst/internal/logging"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/profiles"
	"github.com/soltixdb/sst/internal/queue"
)

// DefaultAlgorithm is used when neither request, profile nor config name one
const DefaultAlgorithm = changepoint.AlgorithmSST

// ScoreService handles change-point scoring business logic
type ScoreService struct {
	logger     *logging.Logger
	config     config.DetectorConfig
	profiles   profiles.Store
	archive    *archive.Store  // nil disables archiving and results
	publisher  queue.Publisher // nil disables async jobs
	jobSubject string
}

// NewScoreService creates a new ScoreService
func NewScoreService(
	logger *logging.Logger,
	cfg config.DetectorConfig,
	profileStore profiles.Store,
	archiveStore *archive.Store,
	publisher queue.Publisher,
	jobSubject string,
) *ScoreService {
	if profileStore == nil {
		profileStore = profiles.NewMemoryStore()
	}
	return &ScoreService{
		logger:     logger,
		config:     cfg,
		profiles:   profileStore,
		archive:    archiveStore,
		publisher:  publisher,
		jobSubject: jobSubject,
	}
}

// resolved is a request with profile and config defaults applied
type resolved struct {
	profile   string
	algorithm string
	detector  changepoint.DetectorConfig
	data      []changepoint.DataPoint
}

// resolve validates req and layers request > profile > config settings
func (s *ScoreService) resolve(ctx context.Context, req *models.ScoreRequest) (*resolved, error) {
	if req.Len() == 0 {
		return nil, NewServiceError(CodeInvalidRequest, "values or points are required")
	}
	if s.config.MaxSeriesLength > 0 && req.Len() > s.config.MaxSeriesLength {
		return nil, NewServiceErrorWithDetails(CodeSeriesTooLong, "series exceeds maximum length",
			map[string]interface{}{"length": req.Len(), "max_length": s.config.MaxSeriesLength})
	}

	profile := &models.Profile{}
	if req.Profile != "" {
		var err error
		profile, err = s.profiles.Get(ctx, req.Profile)
		if err != nil {
			return nil, s.profileError(req.Profile, err)
		}
	}

	algorithm := firstNonEmpty(req.Algorithm, profile.Algorithm, s.config.Algorithm, DefaultAlgorithm)
	if _, err := changepoint.GetDetector(algorithm); err != nil {
		return nil, NewServiceErrorWithDetails(CodeInvalidAlgo, err.Error(),
			map[string]interface{}{"available": changepoint.ListDetectors()})
	}

	input := profile.Params.Merge(req.Params)
	params, err := applyStrategy(algorithm, input, input.ApplyTo(s.baseParams()))
	if err != nil {
		return nil, err
	}

	threshold := s.config.Threshold
	if profile.Threshold != nil {
		threshold = *profile.Threshold
	}
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	minDistance := s.config.MinDistance
	if profile.MinDistance != nil {
		minDistance = *profile.MinDistance
	}
	if req.MinDistance != nil {
		minDistance = *req.MinDistance
	}
	if minDistance <= 0 {
		minDistance = params.WindowLength
	}

	data, err := req.Series()
	if err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}
	if err := analytics.CheckFinite(analytics.TimeSeriesData(data).Values()); err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}

	// run the detector's own defaulting so bad combinations fail before queueing
	if err := params.WithDefaults().Validate(); err != nil {
		return nil, NewServiceError(CodeInvalidParams, err.Error())
	}

	return &resolved{
		profile:   req.Profile,
		algorithm: algorithm,
		detector: changepoint.DetectorConfig{
			Params:      params,
			Threshold:   threshold,
			MinDistance: minDistance,
		},
		data: data,
	}, nil
}

// applyStrategy fixes p.UseLanczos for algorithms that pin a strategy and
// rejects an explicit use_lanczos that contradicts it.
func applyStrategy(algorithm string, in models.ParamsInput, p changepoint.Params) (changepoint.Params, error) {
	useLanczos, pinned := changepoint.PinnedStrategy(algorithm)
	if !pinned {
		return p, nil
	}
	if in.UseLanczos != nil && *in.UseLanczos != useLanczos {
		return p, NewServiceErrorf(CodeInvalidParams,
			"use_lanczos=%t conflicts with algorithm %s", *in.UseLanczos, algorithm)
	}
	p.UseLanczos = useLanczos
	return p, nil
}

func (s *ScoreService) baseParams() changepoint.Params {
	eps := s.config.Eps
	if eps == 0 {
		eps = changepoint.DefaultEps
	}
	return changepoint.Params{
		WindowLength: s.config.WindowLength,
		NComponents:  s.config.NComponents,
		Order:        s.config.Order,
		Lag:          s.config.Lag,
		RankLanczos:  s.config.RankLanczos,
		UseLanczos:   true,
		Eps:          eps,
		Workers:      s.config.Workers,
	}
}

// Score runs the detector synchronously. With req.Archive the result is
// also stored and its ID returned.
func (s *ScoreService) Score(ctx context.Context, req *models.ScoreRequest) (*models.ScoreResponse, error) {
	if req.Archive && s.archive == nil {
		return nil, NewServiceError(CodeArchiveDisabled, "result archive is disabled")
	}
	return s.score(ctx, req, "")
}

func (s *ScoreService) score(ctx context.Context, req *models.ScoreRequest, resultID string) (*models.ScoreResponse, error) {
	r, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := changepoint.DetectChangePoints(r.algorithm, r.data, r.detector)
	if err != nil {
		if errors.Is(err, changepoint.ErrInvalidInput) {
			return nil, NewServiceError(CodeInvalidParams, err.Error())
		}
		s.logger.Error("Change-point detection failed", "algorithm", r.algorithm, "error", err)
		return nil, NewServiceError(CodeInternal, "change-point detection failed")
	}
	elapsed := time.Since(start)

	resp := &models.ScoreResponse{
		Profile:      r.profile,
		Algorithm:    result.Algorithm,
		Params:       result.Params,
		Threshold:    r.detector.Threshold,
		MinDistance:  r.detector.MinDistance,
		Length:       len(result.Scores),
		Scores:       result.Scores,
		ChangePoints: models.NewChangePointViews(result.ChangePoints),
		DurationMs:   float64(elapsed.Microseconds()) / 1000,
	}

	if req.Archive {
		rec, err := s.archive.Save(archive.Record{
			ID:           resultID,
			Label:        req.Label,
			Algorithm:    result.Algorithm,
			Params:       result.Params,
			Scores:       result.Scores,
			ChangePoints: result.ChangePoints,
		})
		if err != nil {
			s.logger.Error("Failed to archive result", "error", err)
			return nil, NewServiceError(CodeInternal, "failed to archive result")
		}
		resp.ResultID = rec.ID
	}

	s.logger.Info("Series scored",
		"algorithm", resp.Algorithm,
		"profile", r.profile,
		"length", resp.Length,
		"change_points", len(resp.ChangePoints),
		"result_id", resp.ResultID,
		"duration", elapsed)
	return resp, nil
}

// SubmitJob validates req and publishes it for the worker. The result is
// archived under the returned ResultID once processed.
func (s *ScoreService) SubmitJob(ctx context.Context, req *models.ScoreRequest) (*models.SubmitJobResponse, error) {
	if s.publisher == nil {
		return nil, NewServiceError(CodeQueueDisabled, "job queue is disabled")
	}
	if s.archive == nil {
		return nil, NewServiceError(CodeArchiveDisabled, "result archive is disabled")
	}
	if _, err := s.resolve(ctx, req); err != nil {
		return nil, err
	}

	job := models.ScoreJob{
		ID:          uuid.NewString(),
		Request:     *req,
		SubmittedAt: time.Now().UTC(),
	}
	job.Request.Archive = true

	data, err := json.Marshal(job)
	if err != nil {
		return nil, NewServiceError(CodeInternal, "failed to encode job")
	}
	if err := s.publisher.Publish(ctx, s.jobSubject, data); err != nil {
		s.logger.Error("Failed to publish job", "job_id", job.ID, "subject", s.jobSubject, "error", err)
		return nil, NewServiceError(CodeInternal, "failed to publish job")
	}

	s.logger.Info("Scoring job submitted", "job_id", job.ID, "length", req.Len())
	return &models.SubmitJobResponse{
		JobID:    job.ID,
		ResultID: job.ID,
		Subject:  s.jobSubject,
	}, nil
}

// ProcessJob scores a queued job and archives it under the job ID.
func (s *ScoreService) ProcessJob(ctx context.Context, job *models.ScoreJob) models.JobResult {
	result := models.JobResult{JobID: job.ID}

	req := job.Request
	req.Archive = true

	var resp *models.ScoreResponse
	var err error
	if s.archive == nil {
		err = NewServiceError(CodeArchiveDisabled, "result archive is disabled")
	} else {
		resp, err = s.score(ctx, &req, job.ID)
	}

	result.CompletedAt = time.Now().UTC()
	if err != nil {
		result.Status = models.JobStatusFailed
		result.Error = err.Error()
		s.logger.Warn("Scoring job failed", "job_id", job.ID, "error", err)
		return result
	}

	result.Status = models.JobStatusCompleted
	result.ResultID = resp.ResultID
	result.Algorithm = resp.Algorithm
	result.ChangePoints = len(resp.ChangePoints)
	return result
}

// GetResult loads an archived result
func (s *ScoreService) GetResult(id string) (*archive.Record, error) {
	if s.archive == nil {
		return nil, NewServiceError(CodeArchiveDisabled, "result archive is disabled")
	}
	rec, err := s.archive.Load(id)
	if err != nil {
		return nil, s.archiveError(id, err)
	}
	return rec, nil
}

// ListResults lists archived results, newest first
func (s *ScoreService) ListResults() ([]archive.Summary, error) {
	if s.archive == nil {
		return nil, NewServiceError(CodeArchiveDisabled, "result archive is disabled")
	}
	list, err := s.archive.List()
	if err != nil {
		s.logger.Error("Failed to list results", "error", err)
		return nil, NewServiceError(CodeInternal, "failed to list results")
	}
	return list, nil
}

// DeleteResult removes an archived result
func (s *ScoreService) DeleteResult(id string) error {
	if s.archive == nil {
		return NewServiceError(CodeArchiveDisabled, "result archive is disabled")
	}
	if err := s.archive.Delete(id); err != nil {
		return s.archiveError(id, err)
	}
	return nil
}

// ListDetectors returns the registered algorithms
func (s *ScoreService) ListDetectors() models.DetectorListResponse {
	return models.DetectorListResponse{
		Detectors: changepoint.ListDetectors(),
		Default:   firstNonEmpty(s.config.Algorithm, DefaultAlgorithm),
	}
}

func (s *ScoreService) archiveError(id string, err error) error {
	switch {
	case errors.Is(err, archive.ErrInvalidID):
		return NewServiceErrorf(CodeInvalidRequest, "invalid result id: %s", id)
	case errors.Is(err, archive.ErrNotFound):
		return NewServiceErrorf(CodeResultNotFound, "result not found: %s", id)
	default:
		s.logger.Error("Archive access failed", "id", id, "error", err)
		return NewServiceError(CodeInternal, "failed to access result archive")
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
