package levels

import (
	"math"
	"testing"
)

func TestClusterLevels_Empty(t *testing.T) {
	if got := ClusterLevels(nil, 0.02); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestClusterLevels_StrengthConservation(t *testing.T) {
	cases := [][]float64{
		{100},
		{100, 101, 102},
		{100, 101, 150, 151, 152, 300},
		{50, 50, 50, 50},
		{1, 2, 4, 8, 16, 32},
	}
	for _, prices := range cases {
		total := 0
		for _, lvl := range ClusterLevels(prices, 0.02) {
			total += lvl.Strength
		}
		if total != len(prices) {
			t.Errorf("prices %v: strength sum %d != %d", prices, total, len(prices))
		}
	}
}

func TestClusterLevels_MergesNearbyPrices(t *testing.T) {
	// 100 and 101 are within 2% of the running mean; 150 is not.
	got := ClusterLevels([]float64{100, 101, 150}, 0.02)
	if len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %v", got)
	}
	// Strength-descending: merged cluster first.
	if got[0].Strength != 2 || math.Abs(got[0].Price-100.5) > 1e-9 {
		t.Errorf("expected {100.5, 2} first, got %+v", got[0])
	}
	if got[1].Strength != 1 || got[1].Price != 150 {
		t.Errorf("expected {150, 1} second, got %+v", got[1])
	}
}

func TestClusterLevels_Idempotence(t *testing.T) {
	// Re-clustering the representative prices must not merge them further
	// when they are separated by more than the threshold.
	prices := []float64{100, 101, 150, 151, 300, 301}
	first := ClusterLevels(prices, 0.02)

	reps := make([]float64, len(first))
	for i, lvl := range first {
		reps[i] = lvl.Price
	}
	second := ClusterLevels(reps, 0.02)
	if len(second) != len(first) {
		t.Errorf("second pass merged clusters: %d -> %d", len(first), len(second))
	}
	for _, lvl := range second {
		if lvl.Strength != 1 {
			t.Errorf("second pass produced strength %d, want 1", lvl.Strength)
		}
	}
}

func TestClusterLevels_RunningMeanNotLastElement(t *testing.T) {
	// 100, 102, 104: 102 joins (2% of mean 100), then the mean is 101, and
	// 104 is ~2.97% away from 101, so it starts a new cluster even though it
	// is within 2% of the last member 102. This is the documented greedy
	// behavior.
	got := ClusterLevels([]float64{100, 102, 104}, 0.02)
	if len(got) != 2 {
		t.Fatalf("expected 2 clusters, got %v", got)
	}
	if got[0].Strength != 2 {
		t.Errorf("expected first cluster strength 2, got %+v", got[0])
	}
}

func TestClusterLevels_InvalidThresholdPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for threshold=0")
		}
	}()
	ClusterLevels([]float64{1, 2}, 0)
}
