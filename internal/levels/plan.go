package levels

import (
	"errors"
	"fmt"
	"sort"

	"MarketCompass/internal/model"
)

var (
	// ErrInsufficientData means the price history is too short to derive
	// levels. Callers fall back to FallbackPlan instead of surfacing it.
	ErrInsufficientData = errors.New("insufficient price data")
	// ErrInvalidInput means the current price is non-positive.
	ErrInvalidInput = errors.New("invalid current price")
)

// Params are the tunable constants of the entry/stop/target selector.
// Historical per-asset-class variants of the algorithm differed only in
// these values, so they live in config rather than in separate code paths.
type Params struct {
	SwingWindow         int     `yaml:"swing_window"`
	ClusterThreshold    float64 `yaml:"cluster_threshold"`
	OversoldRSI         float64 `yaml:"oversold_rsi"`
	SupportWeight       float64 `yaml:"support_weight"`
	EntryDiscount       float64 `yaml:"entry_discount"`
	StopSupportMult     float64 `yaml:"stop_support_mult"`
	StopFallbackMult    float64 `yaml:"stop_fallback_mult"`
	StopFloorMult       float64 `yaml:"stop_floor_mult"`
	FabricatedTargetPct float64 `yaml:"fabricated_target_mult"`
	RiskRewardCap       float64 `yaml:"risk_reward_cap"`
	MinBars             int     `yaml:"min_bars"`
}

// DefaultParams is the canonical parameterization.
func DefaultParams() Params {
	return Params{
		SwingWindow:         3,
		ClusterThreshold:    0.02,
		OversoldRSI:         30,
		SupportWeight:       0.4,
		EntryDiscount:       0.98,
		StopSupportMult:     0.97,
		StopFallbackMult:    0.93,
		StopFloorMult:       0.90,
		FabricatedTargetPct: 1.05,
		RiskRewardCap:       10.0,
		MinBars:             7,
	}
}

// BuildTradePlan derives an entry price, a stop-loss, and one or two targets
// from the current price, RSI, and raw support/resistance candidates.
//
// Candidates are filtered to support < current*1.01 and resistance >
// current*0.99, then clustered (ClusterLevels). upperBand is the upper
// Bollinger value used as a last-resort second target; pass 0 when unknown.
func BuildTradePlan(currentPrice, rsi float64, supportCandidates, resistanceCandidates []float64, upperBand float64, p Params) (model.TradePlan, error) {
	if currentPrice <= 0 {
		return model.TradePlan{}, fmt.Errorf("%w: %.4f", ErrInvalidInput, currentPrice)
	}

	var supportRaw, resistRaw []float64
	for _, s := range supportCandidates {
		if s > 0 && s < currentPrice*1.01 {
			supportRaw = append(supportRaw, s)
		}
	}
	for _, r := range resistanceCandidates {
		if r > currentPrice*0.99 {
			resistRaw = append(resistRaw, r)
		}
	}

	supports := ClusterLevels(supportRaw, p.ClusterThreshold)
	resistances := ClusterLevels(resistRaw, p.ClusterThreshold)

	// Entry point.
	var entry float64
	switch {
	case rsi < p.OversoldRSI:
		// Oversold: buy at market, no discount.
		entry = currentPrice
	case hasSupportBelow(supports, currentPrice):
		nearest := maxBelow(supports, currentPrice)
		entry = nearest*p.SupportWeight + currentPrice*(1-p.SupportWeight)
	default:
		entry = currentPrice * p.EntryDiscount
	}

	// Stop-loss: derive from the nearest support below entry, then clamp.
	// The clamp can silently override the support-derived value; the
	// compute-then-clamp order is deliberate and must stay.
	var stop float64
	if hasSupportBelow(supports, entry) {
		stop = maxBelow(supports, entry) * p.StopSupportMult
	} else {
		stop = entry * p.StopFallbackMult
	}
	if floor := entry * p.StopFloorMult; stop < floor {
		stop = floor
	}
	stopPct := (stop - entry) / entry * 100

	// Targets: nearest resistances strictly above the current price.
	var resistAbove []float64
	for _, lvl := range resistances {
		if lvl.Price > currentPrice {
			resistAbove = append(resistAbove, lvl.Price)
		}
	}
	sort.Float64s(resistAbove)

	targetPct := func(price float64) float64 { return (price - entry) / entry * 100 }

	var targets []model.Target
	if len(resistAbove) > 0 {
		targets = append(targets, model.Target{Price: resistAbove[0], Label: "1st target", Pct: targetPct(resistAbove[0])})
	}
	if len(resistAbove) >= 2 {
		targets = append(targets, model.Target{Price: resistAbove[1], Label: "2nd target", Pct: targetPct(resistAbove[1])})
	} else if len(targets) == 1 && upperBand > currentPrice {
		targets = append(targets, model.Target{Price: upperBand, Label: "2nd target", Pct: targetPct(upperBand)})
	}
	if len(targets) == 0 {
		t := currentPrice * p.FabricatedTargetPct
		targets = append(targets, model.Target{Price: t, Label: "1st target", Pct: targetPct(t)})
	}

	// Risk/reward, capped for display sanity.
	risk := entry - stop
	reward := targets[0].Price - entry
	rr := 0.0
	if risk > 0 {
		rr = reward / risk
	}
	if rr > p.RiskRewardCap {
		rr = p.RiskRewardCap
	}

	return model.TradePlan{
		Entry:            entry,
		StopLoss:         stop,
		StopLossPct:      stopPct,
		Targets:          targets,
		RiskReward:       rr,
		SupportLevels:    truncate(supports, 5),
		ResistanceLevels: truncate(resistances, 5),
	}, nil
}

// Analyze assembles support/resistance candidates from a price series and
// its indicators, then builds the trade plan. This is the caller-side
// candidate assembly: swing lows, the lower band, moving averages below
// price and the lookback low feed supports; swing highs, the upper band and
// the lookback high feed resistances.
func Analyze(bars []model.PriceBar, ind *model.IndicatorSet, p Params) (model.TradePlan, error) {
	if len(bars) < p.MinBars {
		return model.TradePlan{}, fmt.Errorf("%w: %d bars, need %d", ErrInsufficientData, len(bars), p.MinBars)
	}
	current := ind.CurrentPrice
	if current <= 0 {
		current = bars[len(bars)-1].Close
	}

	highs, lows := FindSwingPoints(bars, p.SwingWindow)

	supports := append([]float64(nil), lows...)
	if ind.BollingerLow > 0 && ind.BollingerLow < current {
		supports = append(supports, ind.BollingerLow)
	}
	for _, ma := range []float64{ind.MA20, ind.MA60, ind.MA120} {
		if ma > 0 && ma < current {
			supports = append(supports, ma)
		}
	}
	if ind.LowestLow > 0 {
		supports = append(supports, ind.LowestLow)
	}

	resistances := append([]float64(nil), highs...)
	if ind.BollingerUp > current {
		resistances = append(resistances, ind.BollingerUp)
	}
	if ind.HighestHigh > 0 {
		resistances = append(resistances, ind.HighestHigh)
	}

	return BuildTradePlan(current, ind.RSI, supports, resistances, ind.BollingerUp, p)
}

// FallbackPlan is the documented degenerate plan used when the primary
// algorithm reports insufficient data or invalid input. Fixed constants,
// never re-derived: entry price*0.98, stop price*0.93 (-7%), one target at
// price*1.05 (+5%), risk/reward 1.0.
func FallbackPlan(price float64) model.TradePlan {
	return model.TradePlan{
		Entry:       price * 0.98,
		StopLoss:    price * 0.93,
		StopLossPct: -7.0,
		Targets: []model.Target{
			{Price: price * 1.05, Label: "1st target", Pct: 5.0},
		},
		RiskReward:       1.0,
		SupportLevels:    []model.Level{{Price: price * 0.95, Strength: 1}},
		ResistanceLevels: []model.Level{{Price: price * 1.05, Strength: 1}},
		Degraded:         true,
	}
}

func hasSupportBelow(supports []model.Level, price float64) bool {
	for _, s := range supports {
		if s.Price < price {
			return true
		}
	}
	return false
}

func maxBelow(supports []model.Level, price float64) float64 {
	best := 0.0
	for _, s := range supports {
		if s.Price < price && s.Price > best {
			best = s.Price
		}
	}
	return best
}

func truncate(lvls []model.Level, n int) []model.Level {
	if len(lvls) > n {
		return lvls[:n]
	}
	return lvls
}
