package changepoint

import (
	"fmt"
	"math"
)

const (
	// DefaultNComponents is the number of dominant directions compared.
	DefaultNComponents = 3

	// DefaultEps scales the random perturbation added to the Lanczos seed.
	DefaultEps = 1e-3
)

// Params holds the SST hyperparameters. Zero Order, Lag and RankLanczos mean
// "derive by rule of thumb" (see WithDefaults).
type Params struct {
	WindowLength int     `json:"window_length" mapstructure:"window_length"`
	NComponents  int     `json:"n_components" mapstructure:"n_components"`
	Order        int     `json:"order" mapstructure:"order"`
	Lag          int     `json:"lag" mapstructure:"lag"`
	RankLanczos  int     `json:"rank_lanczos" mapstructure:"rank_lanczos"`
	UseLanczos   bool    `json:"use_lanczos" mapstructure:"use_lanczos"`
	Eps          float64 `json:"eps" mapstructure:"eps"`

	// Seed seeds the random source of the Lanczos path; 0 seeds from the clock.
	Seed int64 `json:"seed,omitempty" mapstructure:"seed"`

	// Workers bounds the goroutines used by the SVD path; ≤1 scans sequentially.
	Workers int `json:"workers,omitempty" mapstructure:"workers"`
}

// DefaultParams returns the documented defaults for a window length.
func DefaultParams(windowLength int) Params {
	return Params{
		WindowLength: windowLength,
		NComponents:  DefaultNComponents,
		UseLanczos:   true,
		Eps:          DefaultEps,
		Workers:      1,
	}.WithDefaults()
}

// WithDefaults fills the derived hyperparameters that are still unset:
// order = windowLength, lag = order/2, rankLanczos = 2·nComponents when
// nComponents is even and 2·nComponents-1 when odd.
func (p Params) WithDefaults() Params {
	if p.NComponents == 0 {
		p.NComponents = DefaultNComponents
	}
	if p.Order == 0 {
		p.Order = p.WindowLength
	}
	if p.Lag == 0 {
		p.Lag = p.Order / 2
	}
	if p.RankLanczos == 0 {
		if p.NComponents%2 == 0 {
			p.RankLanczos = 2 * p.NComponents
		} else {
			p.RankLanczos = 2*p.NComponents - 1
		}
	}
	return p
}

// Validate checks the invariants of a fully resolved parameter set.
func (p Params) Validate() error {
	if p.WindowLength < 1 {
		return fmt.Errorf("%w: window_length must be positive, got %d", ErrInvalidInput, p.WindowLength)
	}
	if p.Order < 1 {
		return fmt.Errorf("%w: order must be positive, got %d", ErrInvalidInput, p.Order)
	}
	if p.Lag < 1 {
		return fmt.Errorf("%w: lag must be positive, got %d", ErrInvalidInput, p.Lag)
	}
	if p.NComponents < 1 {
		return fmt.Errorf("%w: n_components must be positive, got %d", ErrInvalidInput, p.NComponents)
	}
	if p.NComponents > p.Order {
		return fmt.Errorf("%w: n_components (%d) cannot exceed order (%d)", ErrInvalidInput, p.NComponents, p.Order)
	}
	if p.UseLanczos {
		if p.RankLanczos < p.NComponents {
			return fmt.Errorf("%w: rank_lanczos (%d) must be at least n_components (%d)",
				ErrInvalidInput, p.RankLanczos, p.NComponents)
		}
		if p.RankLanczos > p.Order {
			return fmt.Errorf("%w: rank_lanczos (%d) cannot exceed order (%d)", ErrInvalidInput, p.RankLanczos, p.Order)
		}
	}
	if p.Eps < 0 || math.IsNaN(p.Eps) || math.IsInf(p.Eps, 0) {
		return fmt.Errorf("%w: eps must be a finite non-negative number, got %v", ErrInvalidInput, p.Eps)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidInput, p.Workers)
	}
	return nil
}

// StartIndex returns the 1-based index of the first scored sample. Scores are
// stored at StartIndex()-1 onwards.
func (p Params) StartIndex() int {
	return p.WindowLength + p.Order + p.Lag + 1
}
