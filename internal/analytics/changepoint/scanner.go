package changepoint

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/soltixdb/sst/internal/linalg"
)

// RandSource supplies uniform samples in [0,1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// scan computes the score sequence of an already rescaled series. The result
// has len(series) entries; indices before StartIndex()-1 stay zero, as does
// the whole sequence when the series is too short to form one window pair.
func scan(series []float64, p Params, rng RandSource) ([]float64, error) {
	scores := make([]float64, len(series))
	if p.StartIndex() > len(series) {
		return scores, nil
	}

	if p.UseLanczos {
		return scores, scanLanczos(series, p, rng, scores)
	}
	return scores, scanSVD(series, p, scores)
}

// windowPair returns the test and history correlation matrices at 1-based index t.
func windowPair(series []float64, p Params, t int) (ptest, phist mat.Symmetric, err error) {
	phist, err = correlation(series, p.Order, t-p.WindowLength-p.Lag, t-p.Lag)
	if err != nil {
		return nil, nil, fmt.Errorf("history window at %d: %w", t, err)
	}
	ptest, err = correlation(series, p.Order, t-p.WindowLength, t)
	if err != nil {
		return nil, nil, fmt.Errorf("test window at %d: %w", t, err)
	}
	return ptest, phist, nil
}

// scanLanczos walks the series sequentially: each step's seed is derived from
// the previous step's test direction.
func scanLanczos(series []float64, p Params, rng RandSource, scores []float64) error {
	seed, err := randomUnit(p.Order, rng)
	if err != nil {
		return err
	}

	for t := p.StartIndex(); t <= len(series); t++ {
		var score float64
		score, seed, err = lanczosStep(series, p, t, seed, rng)
		if err != nil {
			return err
		}
		scores[t-1] = score
	}
	return nil
}

// lanczosStep scores index t from seed and returns the seed for t+1.
func lanczosStep(series []float64, p Params, t int, seed []float64, rng RandSource) (float64, []float64, error) {
	ptest, phist, err := windowPair(series, p, t)
	if err != nil {
		return 0, nil, err
	}

	score, u, err := CompareLanczos(ptest, phist, p.NComponents, p.RankLanczos, seed)
	if err != nil {
		return 0, nil, fmt.Errorf("lanczos at %d: %w", t, err)
	}
	return score, perturb(u, p.Eps, rng), nil
}

// perturb returns normalize(u + eps·r) with r uniform in [0,1)^n. If the sum
// cannot be normalized, u is returned unchanged.
func perturb(u []float64, eps float64, rng RandSource) []float64 {
	next := make([]float64, len(u))
	for i, v := range u {
		next[i] = v + eps*rng.Float64()
	}
	if err := linalg.Normalize(next); err != nil {
		return u
	}
	return next
}

func randomUnit(n int, rng RandSource) ([]float64, error) {
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.Float64()
	}
	if err := linalg.Normalize(v); err != nil {
		return nil, fmt.Errorf("initial seed: %w", err)
	}
	return v, nil
}

// scanSVD scores every index independently, fanning out over p.Workers
// goroutines. Each worker writes distinct slots of scores.
func scanSVD(series []float64, p Params, scores []float64) error {
	first, last := p.StartIndex(), len(series)
	workers := min(max(p.Workers, 1), last-first+1)

	if workers == 1 {
		for t := first; t <= last; t++ {
			if err := svdStep(series, p, t, scores); err != nil {
				return err
			}
		}
		return nil
	}

	indices := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		stop     = make(chan struct{})
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range indices {
				if err := svdStep(series, p, t, scores); err != nil {
					errOnce.Do(func() {
						firstErr = err
						close(stop)
					})
					return
				}
			}
		}()
	}

feed:
	for t := first; t <= last; t++ {
		select {
		case indices <- t:
		case <-stop:
			break feed
		}
	}
	close(indices)
	wg.Wait()

	return firstErr
}

func svdStep(series []float64, p Params, t int, scores []float64) error {
	ptest, phist, err := windowPair(series, p, t)
	if err != nil {
		return err
	}
	score, err := CompareSVD(ptest, phist, p.NComponents)
	if err != nil {
		return fmt.Errorf("svd at %d: %w", t, err)
	}
	scores[t-1] = score
	return nil
}
