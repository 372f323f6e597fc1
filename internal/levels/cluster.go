package levels

import (
	"sort"

	"MarketCompass/internal/model"
)

// ClusterLevels merges nearby prices into discrete support/resistance levels.
//
// The merge is a greedy online fold over the price-sorted input: each price
// joins the open cluster when its relative distance to the cluster's RUNNING
// MEAN is within thresholdPct, otherwise the cluster is emitted and a new one
// opened. Comparing against the running mean (not the last member) makes
// membership order-dependent; that greediness is intentional and the rest of
// the scoring heuristics depend on its exact output, so don't swap in a
// globally-optimal clustering.
//
// Levels come back sorted by Strength descending; ties keep clustering order.
// thresholdPct <= 0 is a programmer error and panics.
func ClusterLevels(prices []float64, thresholdPct float64) []model.Level {
	if thresholdPct <= 0 {
		panic("levels: cluster threshold must be positive")
	}
	if len(prices) == 0 {
		return nil
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	var clusters []model.Level
	sum := sorted[0]
	count := 1

	close := func() {
		clusters = append(clusters, model.Level{
			Price:    sum / float64(count),
			Strength: count,
		})
	}

	for _, p := range sorted[1:] {
		mean := sum / float64(count)
		if mean > 0 && abs(p-mean)/mean <= thresholdPct {
			sum += p
			count++
			continue
		}
		close()
		sum = p
		count = 1
	}
	close()

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Strength > clusters[j].Strength
	})
	return clusters
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
