package services

import (
	"context"
	"errors"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/models"
	"github.com/soltixdb/sst/internal/profiles"
)

// PutProfile creates or replaces a named profile after checking that its
// settings resolve to a valid detector configuration.
func (s *ScoreService) PutProfile(ctx context.Context, name string, req *models.ProfileRequest) (*models.Profile, error) {
	if err := profiles.ValidateName(name); err != nil {
		return nil, NewServiceError(CodeInvalidRequest, err.Error())
	}

	if req.Algorithm != "" {
		if _, err := changepoint.GetDetector(req.Algorithm); err != nil {
			return nil, NewServiceErrorWithDetails(CodeInvalidAlgo, err.Error(),
				map[string]interface{}{"available": changepoint.ListDetectors()})
		}
	}

	algorithm := firstNonEmpty(req.Algorithm, s.config.Algorithm, DefaultAlgorithm)
	params, err := applyStrategy(algorithm, req.Params, req.Params.ApplyTo(s.baseParams()))
	if err != nil {
		return nil, err
	}
	if err := params.WithDefaults().Validate(); err != nil {
		return nil, NewServiceError(CodeInvalidParams, err.Error())
	}
	if req.Threshold != nil && *req.Threshold < 0 {
		return nil, NewServiceError(CodeInvalidParams, "threshold cannot be negative")
	}
	if req.MinDistance != nil && *req.MinDistance < 0 {
		return nil, NewServiceError(CodeInvalidParams, "min_distance cannot be negative")
	}

	p := &models.Profile{
		Name:        name,
		Description: req.Description,
		Algorithm:   req.Algorithm,
		Params:      req.Params,
		Threshold:   req.Threshold,
		MinDistance: req.MinDistance,
	}
	if err := s.profiles.Put(ctx, p); err != nil {
		return nil, s.profileError(name, err)
	}

	s.logger.Info("Profile saved", "profile", name, "algorithm", p.Algorithm)
	return p, nil
}

// GetProfile returns a profile by name
func (s *ScoreService) GetProfile(ctx context.Context, name string) (*models.Profile, error) {
	p, err := s.profiles.Get(ctx, name)
	if err != nil {
		return nil, s.profileError(name, err)
	}
	return p, nil
}

// ListProfiles returns all profiles ordered by name
func (s *ScoreService) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	list, err := s.profiles.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list profiles", "error", err)
		return nil, NewServiceError(CodeInternal, "failed to list profiles")
	}
	return list, nil
}

// DeleteProfile removes a profile
func (s *ScoreService) DeleteProfile(ctx context.Context, name string) error {
	if err := s.profiles.Delete(ctx, name); err != nil {
		return s.profileError(name, err)
	}
	s.logger.Info("Profile deleted", "profile", name)
	return nil
}

func (s *ScoreService) profileError(name string, err error) error {
	switch {
	case errors.Is(err, profiles.ErrNotFound):
		return NewServiceErrorf(CodeProfileNotFound, "profile not found: %s", name)
	case errors.Is(err, profiles.ErrInvalidName):
		return NewServiceError(CodeInvalidRequest, err.Error())
	default:
		s.logger.Error("Profile store access failed", "profile", name, "error", err)
		return NewServiceError(CodeInternal, "failed to access profile store")
	}
}
