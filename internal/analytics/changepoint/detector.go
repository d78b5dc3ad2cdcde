package changepoint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/soltixdb/sst/internal/analytics"
)

// Algorithm names. Results always report the strategy that ran, never
// AlgorithmSST.
const (
	AlgorithmSST     = "sst"
	AlgorithmLanczos = "sst_lanczos"
	AlgorithmSVD     = "sst_svd"
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// DetectorConfig holds configuration for change-point detection
type DetectorConfig struct {
	Params Params `json:"params" mapstructure:",squash"`

	// Threshold is the minimum score for a peak to be reported
	Threshold float64 `json:"threshold" mapstructure:"threshold"`

	// MinDistance is the minimum number of samples between reported peaks
	MinDistance int `json:"min_distance" mapstructure:"min_distance"`
}

// DefaultConfig returns default detector configuration for a window length
func DefaultConfig(windowLength int) DetectorConfig {
	return DetectorConfig{
		Params:      DefaultParams(windowLength),
		Threshold:   0.5,
		MinDistance: windowLength,
	}
}

// Result is the outcome of one detection run.
type Result struct {
	Algorithm    string        `json:"algorithm"`
	Params       Params        `json:"params"`
	Scores       []float64     `json:"scores"`
	ChangePoints []ChangePoint `json:"change_points"`
}

// Detector scores a series and reports its change points.
type Detector interface {
	// Name returns the algorithm name
	Name() string

	// Detect scores data and extracts peaks per config
	Detect(data []DataPoint, config DetectorConfig) (*Result, error)
}

var (
	registryMu       sync.RWMutex
	detectorRegistry = make(map[string]Detector)
)

func init() {
	RegisterDetector(AlgorithmSST, &SSTDetector{})
	RegisterDetector(AlgorithmLanczos, &SSTDetector{Pinned: true, UseLanczos: true})
	RegisterDetector(AlgorithmSVD, &SSTDetector{Pinned: true, UseLanczos: false})
}

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector Detector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (Detector, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("%w: unknown change-point detector: %s", ErrInvalidInput, name)
}

// ListDetectors returns the sorted names of available detectors
func ListDetectors() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectChangePoints is a helper function to run the named detector
func DetectChangePoints(algorithm string, data []DataPoint, config DetectorConfig) (*Result, error) {
	detector, err := GetDetector(algorithm)
	if err != nil {
		return nil, err
	}
	return detector.Detect(data, config)
}

// PinnedStrategy reports the strategy a registered algorithm forces. ok is
// false for unknown names and for detectors that follow Params.UseLanczos.
func PinnedStrategy(name string) (useLanczos bool, ok bool) {
	detector, err := GetDetector(name)
	if err != nil {
		return false, false
	}
	sst, isSST := detector.(*SSTDetector)
	if !isSST || !sst.Pinned {
		return false, false
	}
	return sst.UseLanczos, true
}

// SSTDetector runs SingularSpectrumTransformation. A pinned detector always
// uses its UseLanczos strategy; otherwise config.Params.UseLanczos decides.
type SSTDetector struct {
	Pinned     bool
	UseLanczos bool
}

// Name returns the algorithm name
func (d *SSTDetector) Name() string {
	switch {
	case !d.Pinned:
		return AlgorithmSST
	case d.UseLanczos:
		return AlgorithmLanczos
	default:
		return AlgorithmSVD
	}
}

// Detect scores data and extracts change points above config.Threshold.
func (d *SSTDetector) Detect(data []DataPoint, config DetectorConfig) (*Result, error) {
	p := config.Params
	if d.Pinned {
		p.UseLanczos = d.UseLanczos
	}

	sst, err := NewFromParams(p)
	if err != nil {
		return nil, err
	}

	series := analytics.TimeSeriesData(data)
	scores, err := sst.ScoreOffline(series.Values())
	if err != nil {
		return nil, err
	}

	points := ExtractChangePoints(scores, config.Threshold, config.MinDistance)
	for i := range points {
		points[i].Time = data[points[i].Index].Time
	}

	return &Result{
		Algorithm:    sst.Algorithm(),
		Params:       sst.Params(),
		Scores:       scores,
		ChangePoints: points,
	}, nil
}
