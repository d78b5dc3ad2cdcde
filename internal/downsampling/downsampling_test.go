package downsampling

import (
	"math"
	"sort"
	"testing"
)

func ramp(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return values
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		mode  string
		valid bool
	}{
		{"none", true},
		{"auto", true},
		{"lttb", true},
		{"minmax", true},
		{"m4", true},
		{"avg", false},
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := IsValid(tt.mode); got != tt.valid {
				t.Errorf("IsValid(%q) = %v, want %v", tt.mode, got, tt.valid)
			}
		})
	}
}

func TestIndices_UnknownMode(t *testing.T) {
	if _, err := Indices(ramp(10), Mode("avg"), 5); err == nil {
		t.Error("expected error for unknown mode, got nil")
	}
}

func TestIndices_None(t *testing.T) {
	indices, err := Indices(ramp(2000), ModeNone, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) != 2000 {
		t.Errorf("expected 2000 indices, got %d", len(indices))
	}
}

func TestIndices_BelowThreshold(t *testing.T) {
	for _, mode := range ValidModes() {
		t.Run(string(mode), func(t *testing.T) {
			indices, err := Indices([]float64{1, 2, 3}, mode, 100)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(indices) != 3 {
				t.Errorf("expected 3 indices, got %d", len(indices))
			}
		})
	}
}

func TestIndices_Empty(t *testing.T) {
	indices, err := Indices(nil, ModeLTTB, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) != 0 {
		t.Errorf("expected no indices, got %d", len(indices))
	}
}

func TestIndices_SkipsNaN(t *testing.T) {
	values := []float64{1, math.NaN(), 3, math.NaN(), 5}
	indices, err := Indices(values, ModeLTTB, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 2, 4}
	if len(indices) != len(want) {
		t.Fatalf("expected %v, got %v", want, indices)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("indices[%d] = %d, want %d", i, indices[i], want[i])
		}
	}
}

func TestIndices_LTTB(t *testing.T) {
	values := ramp(500)
	indices, err := Indices(values, ModeLTTB, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(indices) != 100 {
		t.Errorf("expected 100 indices, got %d", len(indices))
	}
	if indices[0] != 0 {
		t.Errorf("expected first index 0, got %d", indices[0])
	}
	if indices[len(indices)-1] != 499 {
		t.Errorf("expected last index 499, got %d", indices[len(indices)-1])
	}
	if !sort.IntsAreSorted(indices) {
		t.Error("expected sorted indices")
	}
}

func TestIndices_LTTBMinimumThreshold(t *testing.T) {
	indices, err := Indices(ramp(500), ModeLTTB, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) != MinLTTBThreshold {
		t.Errorf("expected %d indices, got %d", MinLTTBThreshold, len(indices))
	}
}

func TestIndices_MinMaxKeepsPeak(t *testing.T) {
	values := make([]float64, 1000)
	values[637] = 1

	indices, err := Indices(values, ModeMinMax, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) > 50 {
		t.Errorf("expected at most 50 indices, got %d", len(indices))
	}

	found := false
	for _, idx := range indices {
		if idx == 637 {
			found = true
		}
	}
	if !found {
		t.Error("expected peak at 637 to survive minmax")
	}
}

func TestIndices_M4(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = math.Sin(float64(i) / 10)
	}

	indices, err := Indices(values, ModeM4, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) > 100 {
		t.Errorf("expected at most 100 indices, got %d", len(indices))
	}
	if indices[0] != 0 {
		t.Errorf("expected first index 0, got %d", indices[0])
	}
	if indices[len(indices)-1] != 999 {
		t.Errorf("expected last index 999, got %d", indices[len(indices)-1])
	}
	for i := 1; i < len(indices); i++ {
		if indices[i] <= indices[i-1] {
			t.Fatalf("indices not strictly increasing at %d: %v", i, indices[i-1:i+1])
		}
	}
}

func TestIndices_AutoReduces(t *testing.T) {
	indices, err := Indices(ramp(2000), ModeAuto, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) >= 2000 {
		t.Errorf("expected auto mode to reduce points, got %d", len(indices))
	}
}

func TestApply(t *testing.T) {
	values := ramp(500)
	indices, out, err := Apply(values, ModeLTTB, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(indices) != len(out) {
		t.Fatalf("indices and values length mismatch: %d != %d", len(indices), len(out))
	}
	for i, idx := range indices {
		if out[i] != values[idx] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], values[idx])
		}
	}
}

func TestWithIndices(t *testing.T) {
	got := WithIndices([]int{0, 10, 20}, 15, 10, 25)
	want := []int{0, 10, 15, 20, 25}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDetectBestAlgorithm(t *testing.T) {
	smooth := make([]point, 200)
	for i := range smooth {
		smooth[i] = point{index: i, value: float64(i)}
	}
	if mode := detectBestAlgorithm(smooth); mode != ModeLTTB {
		t.Errorf("expected lttb for smooth data, got %s", mode)
	}

	spiky := make([]point, 200)
	for i := range spiky {
		v := 0.0
		if i%2 == 0 {
			v = 10
		}
		spiky[i] = point{index: i, value: v}
	}
	if mode := detectBestAlgorithm(spiky); mode != ModeMinMax {
		t.Errorf("expected minmax for spiky data, got %s", mode)
	}
}

func TestCalculateSpikiness_Flat(t *testing.T) {
	flat := make([]point, 50)
	if s := calculateSpikiness(flat); s != 0 {
		t.Errorf("expected 0 spikiness for flat data, got %v", s)
	}
}
