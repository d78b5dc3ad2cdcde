package models

import (
	"fmt"
	"time"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
)

// PointInput is one sample of a timestamped series
type PointInput struct {
	Time  string  `json:"time"` // RFC3339
	Value float64 `json:"value"`
}

// ParamsInput carries optional hyperparameter overrides. Nil fields keep the
// value they are applied to.
type ParamsInput struct {
	WindowLength *int     `json:"window_length,omitempty"`
	NComponents  *int     `json:"n_components,omitempty"`
	Order        *int     `json:"order,omitempty"`
	Lag          *int     `json:"lag,omitempty"`
	RankLanczos  *int     `json:"rank_lanczos,omitempty"`
	UseLanczos   *bool    `json:"use_lanczos,omitempty"`
	Eps          *float64 `json:"eps,omitempty"`
	Seed         *int64   `json:"seed,omitempty"`
}

// ApplyTo overlays the set fields on p
func (in ParamsInput) ApplyTo(p changepoint.Params) changepoint.Params {
	if in.WindowLength != nil {
		p.WindowLength = *in.WindowLength
	}
	if in.NComponents != nil {
		p.NComponents = *in.NComponents
	}
	if in.Order != nil {
		p.Order = *in.Order
	}
	if in.Lag != nil {
		p.Lag = *in.Lag
	}
	if in.RankLanczos != nil {
		p.RankLanczos = *in.RankLanczos
	}
	if in.UseLanczos != nil {
		p.UseLanczos = *in.UseLanczos
	}
	if in.Eps != nil {
		p.Eps = *in.Eps
	}
	if in.Seed != nil {
		p.Seed = *in.Seed
	}
	return p
}

// Merge returns in with the fields set in override replacing its own
func (in ParamsInput) Merge(override ParamsInput) ParamsInput {
	if override.WindowLength != nil {
		in.WindowLength = override.WindowLength
	}
	if override.NComponents != nil {
		in.NComponents = override.NComponents
	}
	if override.Order != nil {
		in.Order = override.Order
	}
	if override.Lag != nil {
		in.Lag = override.Lag
	}
	if override.RankLanczos != nil {
		in.RankLanczos = override.RankLanczos
	}
	if override.UseLanczos != nil {
		in.UseLanczos = override.UseLanczos
	}
	if override.Eps != nil {
		in.Eps = override.Eps
	}
	if override.Seed != nil {
		in.Seed = override.Seed
	}
	return in
}

// ScoreRequest represents a scoring request. Exactly one of Values and
// Points must be given.
type ScoreRequest struct {
	Profile     string       `json:"profile,omitempty"`
	Algorithm   string       `json:"algorithm,omitempty"` // sst, sst_lanczos, sst_svd
	Values      []float64    `json:"values,omitempty"`
	Points      []PointInput `json:"points,omitempty"`
	Params      ParamsInput  `json:"params"`
	Threshold   *float64     `json:"threshold,omitempty"`
	MinDistance *int         `json:"min_distance,omitempty"`
	Archive     bool         `json:"archive,omitempty"`
	Label       string       `json:"label,omitempty"`
}

// Series converts the request samples to detector input
func (r *ScoreRequest) Series() ([]changepoint.DataPoint, error) {
	switch {
	case len(r.Values) > 0 && len(r.Points) > 0:
		return nil, fmt.Errorf("values and points are mutually exclusive")
	case len(r.Values) > 0:
		data := make([]changepoint.DataPoint, len(r.Values))
		for i, v := range r.Values {
			data[i] = changepoint.DataPoint{Value: v}
		}
		return data, nil
	case len(r.Points) > 0:
		data := make([]changepoint.DataPoint, len(r.Points))
		for i, p := range r.Points {
			var t time.Time
			if p.Time != "" {
				var err error
				t, err = time.Parse(time.RFC3339Nano, p.Time)
				if err != nil {
					return nil, fmt.Errorf("points[%d]: invalid time %q: %w", i, p.Time, err)
				}
			}
			data[i] = changepoint.DataPoint{Time: t, Value: p.Value}
		}
		return data, nil
	default:
		return nil, fmt.Errorf("values or points are required")
	}
}

// Len returns the number of samples in the request
func (r *ScoreRequest) Len() int {
	return len(r.Values) + len(r.Points)
}

// ProfileRequest represents create/update profile request
type ProfileRequest struct {
	Description string      `json:"description,omitempty"`
	Algorithm   string      `json:"algorithm,omitempty"`
	Params      ParamsInput `json:"params"`
	Threshold   *float64    `json:"threshold,omitempty"`
	MinDistance *int        `json:"min_distance,omitempty"`
}
