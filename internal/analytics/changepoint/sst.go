// Package changepoint scores change points in a univariate time series with
// Singular Spectrum Transformation (SST).
//
// At every index t two trajectory (Hankel) matrices are built: a test window
// ending at t and a history window ending lag samples earlier. Their
// correlation matrices XᵀX are compared through their dominant subspaces,
// either exactly with SVD or approximately with the FELIX-SST Krylov method
// (one power step + Lanczos). The score is in [0,1]; higher means the local
// dynamics changed more.
package changepoint

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/soltixdb/sst/internal/analytics"
	"github.com/soltixdb/sst/internal/logging"
)

// Rescaling bounds. The algorithms assume strictly positive samples.
const (
	scaleLow  = 1.0
	scaleHigh = 2.0
)

// SingularSpectrumTransformation scores a whole series offline.
type SingularSpectrumTransformation struct {
	params Params
	rng    RandSource
	logger *logging.Logger
}

// Option configures a SingularSpectrumTransformation.
type Option func(*SingularSpectrumTransformation)

// WithNComponents sets how many dominant directions are compared.
func WithNComponents(n int) Option {
	return func(s *SingularSpectrumTransformation) { s.params.NComponents = n }
}

// WithOrder sets the number of columns of the trajectory matrices.
func WithOrder(order int) Option {
	return func(s *SingularSpectrumTransformation) { s.params.Order = order }
}

// WithLag sets the distance between the history and test windows.
func WithLag(lag int) Option {
	return func(s *SingularSpectrumTransformation) { s.params.Lag = lag }
}

// WithLanczos selects the FELIX-SST approximation (true) or exact SVD (false).
func WithLanczos(use bool) Option {
	return func(s *SingularSpectrumTransformation) { s.params.UseLanczos = use }
}

// WithRankLanczos sets the size of the Lanczos tridiagonal matrix.
func WithRankLanczos(rank int) Option {
	return func(s *SingularSpectrumTransformation) { s.params.RankLanczos = rank }
}

// WithEps sets the scale of the random seed perturbation.
func WithEps(eps float64) Option {
	return func(s *SingularSpectrumTransformation) { s.params.Eps = eps }
}

// WithSeed makes the Lanczos path reproducible.
func WithSeed(seed int64) Option {
	return func(s *SingularSpectrumTransformation) { s.params.Seed = seed }
}

// WithRand injects the random source used for the Lanczos seed. It takes
// precedence over WithSeed.
func WithRand(rng RandSource) Option {
	return func(s *SingularSpectrumTransformation) { s.rng = rng }
}

// WithWorkers bounds the parallelism of the SVD path.
func WithWorkers(n int) Option {
	return func(s *SingularSpectrumTransformation) { s.params.Workers = n }
}

// WithLogger sets the logger; the global logger is used otherwise.
func WithLogger(logger *logging.Logger) Option {
	return func(s *SingularSpectrumTransformation) { s.logger = logger }
}

// New creates a transformation for the given window length. Unset
// hyperparameters get their rule-of-thumb defaults; the resolved set is
// validated before returning.
func New(windowLength int, opts ...Option) (*SingularSpectrumTransformation, error) {
	p := Params{
		WindowLength: windowLength,
		NComponents:  DefaultNComponents,
		UseLanczos:   true,
		Eps:          DefaultEps,
		Workers:      1,
	}
	return newTransformation(p, opts)
}

// NewFromParams creates a transformation from an explicit parameter set.
// Zero Order, Lag, RankLanczos and NComponents are derived as in New.
func NewFromParams(p Params, opts ...Option) (*SingularSpectrumTransformation, error) {
	return newTransformation(p, opts)
}

func newTransformation(p Params, opts []Option) (*SingularSpectrumTransformation, error) {
	s := &SingularSpectrumTransformation{params: p}
	for _, opt := range opts {
		opt(s)
	}

	s.params = s.params.WithDefaults()
	if err := s.params.Validate(); err != nil {
		return nil, err
	}

	if s.rng == nil {
		seed := s.params.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed))
	}
	if s.logger == nil {
		s.logger = logging.Global()
	}
	return s, nil
}

// Params returns the resolved hyperparameters.
func (s *SingularSpectrumTransformation) Params() Params {
	return s.params
}

// Algorithm names the comparison strategy in use.
func (s *SingularSpectrumTransformation) Algorithm() string {
	if s.params.UseLanczos {
		return AlgorithmLanczos
	}
	return AlgorithmSVD
}

// ScoreOffline returns one change-point score per sample of series. The input
// is min-max rescaled to [1,2] first and is not modified. Samples before
// Params().StartIndex()-1 have no full window pair and score 0.
//
// The Lanczos path consumes the random source and must not be called
// concurrently on the same value.
func (s *SingularSpectrumTransformation) ScoreOffline(series []float64) ([]float64, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInvalidInput)
	}
	if err := analytics.CheckFinite(series); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if s.params.StartIndex() > len(series) {
		s.logger.Warn("Series too short for SST window pair, returning zero scores",
			"length", len(series),
			"start_index", s.params.StartIndex(),
			"window_length", s.params.WindowLength,
			"order", s.params.Order,
			"lag", s.params.Lag)
	}

	start := time.Now()
	scores, err := scan(MinMaxScale(series, scaleLow, scaleHigh), s.params, s.rng)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("SST scan completed",
		"algorithm", s.Algorithm(),
		"length", len(series),
		"start_index", s.params.StartIndex(),
		"duration", time.Since(start))
	return scores, nil
}
