package models

import (
	"time"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/archive"
	"github.com/soltixdb/sst/internal/downsampling"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ChangePointView represents a detected change point
type ChangePointView struct {
	Index int     `json:"index"`
	Time  string  `json:"time,omitempty"`
	Score float64 `json:"score"`
}

// NewChangePointViews converts detector output, formatting non-zero times as RFC3339
func NewChangePointViews(points []changepoint.ChangePoint) []ChangePointView {
	views := make([]ChangePointView, len(points))
	for i, p := range points {
		views[i] = ChangePointView{Index: p.Index, Score: p.Score}
		if !p.Time.IsZero() {
			views[i].Time = p.Time.Format(time.RFC3339Nano)
		}
	}
	return views
}

// ScoreResponse represents scoring response
type ScoreResponse struct {
	ResultID     string             `json:"result_id,omitempty"`
	Profile      string             `json:"profile,omitempty"`
	Algorithm    string             `json:"algorithm"`
	Params       changepoint.Params `json:"params"`
	Threshold    float64            `json:"threshold"`
	MinDistance  int                `json:"min_distance"`
	Length       int                `json:"length"`
	Scores       []float64          `json:"scores"`
	ChangePoints []ChangePointView  `json:"change_points"`
	DurationMs   float64            `json:"duration_ms"`
}

// ResultResponse represents an archived result
type ResultResponse struct {
	ID           string             `json:"id"`
	Label        string             `json:"label,omitempty"`
	Algorithm    string             `json:"algorithm"`
	Params       changepoint.Params `json:"params"`
	Length       int                `json:"length"`
	Scores       []float64          `json:"scores"`
	ChangePoints []ChangePointView  `json:"change_points"`
	CreatedAt    string             `json:"created_at"`

	// Indices holds the sample index of each score when Scores is downsampled
	Indices []int `json:"indices,omitempty"`
}

// NewResultResponse converts an archive record
func NewResultResponse(rec *archive.Record) ResultResponse {
	return ResultResponse{
		ID:           rec.ID,
		Label:        rec.Label,
		Algorithm:    rec.Algorithm,
		Params:       rec.Params,
		Length:       len(rec.Scores),
		Scores:       rec.Scores,
		ChangePoints: NewChangePointViews(rec.ChangePoints),
		CreatedAt:    rec.CreatedAt.Format(time.RFC3339Nano),
	}
}

// Downsample reduces Scores to about points samples with mode. Change points
// are always kept so the preview shows every reported peak.
func (r *ResultResponse) Downsample(mode downsampling.Mode, points int) error {
	if mode == downsampling.ModeNone || len(r.Scores) <= points {
		return nil
	}
	indices, err := downsampling.Indices(r.Scores, mode, points)
	if err != nil {
		return err
	}
	required := make([]int, 0, len(r.ChangePoints))
	for _, cp := range r.ChangePoints {
		if cp.Index >= 0 && cp.Index < len(r.Scores) {
			required = append(required, cp.Index)
		}
	}
	indices = downsampling.WithIndices(indices, required...)

	scores := make([]float64, len(indices))
	for i, idx := range indices {
		scores[i] = r.Scores[idx]
	}
	r.Scores = scores
	r.Indices = indices
	return nil
}

// ResultListResponse represents list results response
type ResultListResponse struct {
	Results []archive.Summary `json:"results"`
	Count   int               `json:"count"`
}

// ProfileListResponse represents list profiles response
type ProfileListResponse struct {
	Profiles []*Profile `json:"profiles"`
	Count    int        `json:"count"`
}

// DetectorListResponse represents list detectors response
type DetectorListResponse struct {
	Detectors []string `json:"detectors"`
	Default   string   `json:"default"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
