// Package downsampling reduces long score and value sequences to a bounded
// number of samples for previews and plots. Every mode selects samples from
// the input so indices and values stay exact; peaks matter more than
// smoothness for change-point scores.
package downsampling

import (
	"fmt"
	"math"
	"sort"
)

// Mode represents the downsampling mode
type Mode string

const (
	// ModeNone means no downsampling
	ModeNone Mode = "none"
	// ModeAuto picks an algorithm from the shape of the data
	ModeAuto Mode = "auto"
	// ModeLTTB uses Largest-Triangle-Three-Buckets algorithm
	ModeLTTB Mode = "lttb"
	// ModeMinMax keeps min and max values per bucket (preserves peaks/spikes)
	ModeMinMax Mode = "minmax"
	// ModeM4 keeps First, Min, Max, Last per bucket (4 points per bucket)
	ModeM4 Mode = "m4"
)

// DefaultThreshold is the target sample count when none is given
const DefaultThreshold = 1000

// MinLTTBThreshold is the minimum threshold for LTTB algorithm
const MinLTTBThreshold = 100

// ValidModes returns all valid downsampling modes
func ValidModes() []Mode {
	return []Mode{ModeNone, ModeAuto, ModeLTTB, ModeMinMax, ModeM4}
}

// IsValid checks if a mode string is valid
func IsValid(mode string) bool {
	for _, m := range ValidModes() {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// Indices returns the sorted indices of the samples of values kept by mode.
// Sequences no longer than threshold are returned whole. NaN samples are
// never selected.
func Indices(values []float64, mode Mode, threshold int) ([]int, error) {
	if !IsValid(string(mode)) {
		return nil, fmt.Errorf("unknown downsampling mode: %s", mode)
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if threshold < 2 {
		threshold = 2
	}

	points := make([]point, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		points = append(points, point{index: i, value: v})
	}

	if mode == ModeNone || len(points) <= threshold {
		return allIndices(points), nil
	}

	if mode == ModeAuto {
		mode = detectBestAlgorithm(points)
	}

	var sampled []int
	switch mode {
	case ModeLTTB:
		if threshold < MinLTTBThreshold {
			threshold = MinLTTBThreshold
		}
		sampled = lttb(points, threshold)
	case ModeMinMax:
		sampled = minmax(points, threshold)
	case ModeM4:
		sampled = m4(points, threshold)
	}
	sort.Ints(sampled)
	return sampled, nil
}

// Apply downsamples values and returns the kept indices with their values.
func Apply(values []float64, mode Mode, threshold int) ([]int, []float64, error) {
	indices, err := Indices(values, mode, threshold)
	if err != nil {
		return nil, nil, err
	}
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return indices, out, nil
}

// WithIndices adds required indices (change points) to a sorted selection.
func WithIndices(selected []int, required ...int) []int {
	seen := make(map[int]struct{}, len(selected)+len(required))
	out := make([]int, 0, len(selected)+len(required))
	for _, idx := range selected {
		if _, ok := seen[idx]; !ok {
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}
	for _, idx := range required {
		if _, ok := seen[idx]; !ok {
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

type point struct {
	index int
	value float64
}

func allIndices(points []point) []int {
	indices := make([]int, len(points))
	for i := range points {
		indices[i] = points[i].index
	}
	return indices
}

// detectBestAlgorithm selects a mode from the spikiness of the data:
// spiky data keeps extremes, smooth data keeps visual shape.
func detectBestAlgorithm(points []point) Mode {
	spikiness := calculateSpikiness(points)
	if spikiness > 0.2 {
		return ModeMinMax
	}
	if spikiness > 0.1 {
		return ModeM4
	}
	return ModeLTTB
}

// calculateSpikiness returns a value between 0 (smooth) and 1 (very spiky)
// from the share of samples far from the mean or far from their neighbour.
func calculateSpikiness(points []point) float64 {
	if len(points) < 10 {
		return 0
	}

	sum := 0.0
	for _, p := range points {
		sum += p.value
	}
	mean := sum / float64(len(points))

	variance := 0.0
	for _, p := range points {
		diff := p.value - mean
		variance += diff * diff
	}
	variance /= float64(len(points))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0
	}

	spikeCount := 0
	derivativeSpikeCount := 0
	for i, p := range points {
		if math.Abs(p.value-mean) > 2*stdDev {
			spikeCount++
		}
		if i > 0 && math.Abs(p.value-points[i-1].value) > stdDev {
			derivativeSpikeCount++
		}
	}

	absoluteSpikiness := float64(spikeCount) / float64(len(points))
	derivativeSpikiness := float64(derivativeSpikeCount) / float64(len(points)-1)

	return math.Min(1, (absoluteSpikiness+1.5*derivativeSpikiness)/2.5)
}

// lttb implements the Largest-Triangle-Three-Buckets algorithm
func lttb(data []point, threshold int) []int {
	if len(data) <= threshold {
		return allIndices(data)
	}

	sampled := make([]int, 0, threshold)
	sampled = append(sampled, data[0].index)

	// Bucket size (excluding first and last points)
	bucketSize := float64(len(data)-2) / float64(threshold-2)

	// Index of the point selected in the previous bucket
	a := 0

	for i := 0; i < threshold-2; i++ {
		avgRangeStart := int(math.Floor(float64(i+1)*bucketSize)) + 1
		avgRangeEnd := int(math.Floor(float64(i+2)*bucketSize)) + 1
		if avgRangeEnd >= len(data) {
			avgRangeEnd = len(data)
		}

		avgX := 0.0
		avgY := 0.0
		avgRangeLength := avgRangeEnd - avgRangeStart
		for ; avgRangeStart < avgRangeEnd; avgRangeStart++ {
			avgX += float64(data[avgRangeStart].index)
			avgY += data[avgRangeStart].value
		}
		avgX /= float64(avgRangeLength)
		avgY /= float64(avgRangeLength)

		rangeOffs := int(math.Floor(float64(i)*bucketSize)) + 1
		rangeTo := int(math.Floor(float64(i+1)*bucketSize)) + 1

		pointAX := float64(data[a].index)
		pointAY := data[a].value

		maxArea := -1.0
		maxAreaPoint := rangeOffs
		for ; rangeOffs < rangeTo; rangeOffs++ {
			area := math.Abs((pointAX-avgX)*(data[rangeOffs].value-pointAY)-
				(pointAX-float64(data[rangeOffs].index))*(avgY-pointAY)) * 0.5
			if area > maxArea {
				maxArea = area
				maxAreaPoint = rangeOffs
			}
		}

		sampled = append(sampled, data[maxAreaPoint].index)
		a = maxAreaPoint
	}

	sampled = append(sampled, data[len(data)-1].index)
	return sampled
}

// minmax keeps the min and max of each bucket
// Output size: ~2 * numBuckets
func minmax(data []point, threshold int) []int {
	if len(data) <= threshold {
		return allIndices(data)
	}

	numBuckets := max(threshold/2, 1)
	bucketSize := float64(len(data)) / float64(numBuckets)
	sampled := make([]int, 0, numBuckets*2)

	for i := 0; i < numBuckets; i++ {
		bucketStart, bucketEnd := bucketBounds(i, bucketSize, len(data))
		if bucketStart >= bucketEnd {
			continue
		}
		minIdx, maxIdx := extremes(data, bucketStart, bucketEnd)

		if minIdx <= maxIdx {
			sampled = append(sampled, data[minIdx].index)
			if minIdx != maxIdx {
				sampled = append(sampled, data[maxIdx].index)
			}
		} else {
			sampled = append(sampled, data[maxIdx].index, data[minIdx].index)
		}
	}
	return sampled
}

// m4 keeps First, Min, Max, Last of each bucket
func m4(data []point, threshold int) []int {
	if len(data) <= threshold {
		return allIndices(data)
	}

	numBuckets := max(threshold/4, 1)
	bucketSize := float64(len(data)) / float64(numBuckets)
	sampled := make([]int, 0, numBuckets*4)

	for i := 0; i < numBuckets; i++ {
		bucketStart, bucketEnd := bucketBounds(i, bucketSize, len(data))
		if bucketStart >= bucketEnd {
			continue
		}
		minIdx, maxIdx := extremes(data, bucketStart, bucketEnd)

		bucket := []int{bucketStart, minIdx, maxIdx, bucketEnd - 1}
		sort.Ints(bucket)
		prev := -1
		for _, idx := range bucket {
			if idx == prev {
				continue
			}
			sampled = append(sampled, data[idx].index)
			prev = idx
		}
	}
	return sampled
}

func bucketBounds(i int, bucketSize float64, n int) (int, int) {
	start := int(float64(i) * bucketSize)
	end := int(float64(i+1) * bucketSize)
	if end > n {
		end = n
	}
	return start, end
}

func extremes(data []point, start, end int) (int, int) {
	minIdx, maxIdx := start, start
	for j := start + 1; j < end; j++ {
		if data[j].value < data[minIdx].value {
			minIdx = j
		}
		if data[j].value > data[maxIdx].value {
			maxIdx = j
		}
	}
	return minIdx, maxIdx
}
