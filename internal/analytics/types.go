// Package analytics provides common types shared by the time-series analytics
// packages (change-point scoring and its service layer).
package analytics

import (
	"fmt"
	"math"
	"time"
)

// TimeSeriesPoint represents a single time-series data point with time and value.
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// TimeSeriesData represents a collection of time-series data points
type TimeSeriesData []TimeSeriesPoint

// FromValues builds an evenly spaced series starting at start.
func FromValues(values []float64, start time.Time, step time.Duration) TimeSeriesData {
	ts := make(TimeSeriesData, len(values))
	for i, v := range values {
		ts[i] = TimeSeriesPoint{Time: start.Add(time.Duration(i) * step), Value: v}
	}
	return ts
}

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the times from the time series
func (ts TimeSeriesData) Times() []time.Time {
	times := make([]time.Time, len(ts))
	for i, p := range ts {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// CheckFinite returns an error naming the first NaN or infinite sample.
func CheckFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("sample %d is not finite (%v)", i, v)
		}
	}
	return nil
}
