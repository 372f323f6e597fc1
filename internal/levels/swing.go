package levels

import (
	"sort"

	"MarketCompass/internal/model"
)

// FindSwingPoints scans the series for local price extrema over a symmetric
// window. Bar i is a swing high when its High equals the maximum High over
// the closed interval [i-window, i+window]; swing lows are symmetric over
// Low. Ties each qualify independently, so adjacent duplicate-valued points
// can appear; the clusterer merges them later.
//
// Both result slices are sorted ascending by price, not chronologically;
// downstream clustering is distance-based and never looks at time.
//
// A series shorter than 2*window+1 yields two empty slices. window <= 0 is
// a programmer error and panics.
func FindSwingPoints(bars []model.PriceBar, window int) (highs, lows []float64) {
	if window <= 0 {
		panic("levels: swing window must be positive")
	}
	if len(bars) < 2*window+1 {
		return nil, nil
	}

	for i := window; i < len(bars)-window; i++ {
		maxHigh := bars[i-window].High
		minLow := bars[i-window].Low
		for j := i - window + 1; j <= i+window; j++ {
			if bars[j].High > maxHigh {
				maxHigh = bars[j].High
			}
			if bars[j].Low < minLow {
				minLow = bars[j].Low
			}
		}
		if bars[i].High == maxHigh {
			highs = append(highs, bars[i].High)
		}
		if bars[i].Low == minLow {
			lows = append(lows, bars[i].Low)
		}
	}

	sort.Float64s(highs)
	sort.Float64s(lows)
	return highs, lows
}
