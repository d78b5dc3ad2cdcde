package changepoint

import (
	"sort"
	"time"
)

// ChangePoint is a local maximum of the score sequence.
type ChangePoint struct {
	Index int       `json:"index"`
	Time  time.Time `json:"time,omitempty"`
	Score float64   `json:"score"`
}

// ExtractChangePoints picks local maxima of scores that reach threshold.
// Peaks are taken greedily by descending score; a candidate closer than
// minDistance samples to an already accepted peak is dropped. The result is
// ordered by index. Time is left zero.
func ExtractChangePoints(scores []float64, threshold float64, minDistance int) []ChangePoint {
	var candidates []ChangePoint
	for i, s := range scores {
		if s <= 0 || s < threshold {
			continue
		}
		if i > 0 && scores[i-1] > s {
			continue
		}
		if i < len(scores)-1 && scores[i+1] > s {
			continue
		}
		// plateaus keep their first sample
		if i > 0 && scores[i-1] == s {
			continue
		}
		candidates = append(candidates, ChangePoint{Index: i, Score: s})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Score > candidates[b].Score
	})

	accepted := make([]ChangePoint, 0, len(candidates))
	for _, c := range candidates {
		if tooClose(c.Index, accepted, minDistance) {
			continue
		}
		accepted = append(accepted, c)
	}

	sort.Slice(accepted, func(a, b int) bool {
		return accepted[a].Index < accepted[b].Index
	})
	return accepted
}

func tooClose(idx int, accepted []ChangePoint, minDistance int) bool {
	for _, a := range accepted {
		d := idx - a.Index
		if d < 0 {
			d = -d
		}
		if d < minDistance {
			return true
		}
	}
	return false
}
