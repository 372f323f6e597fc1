package levels

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketCompass/internal/model"
)

func TestBuildTradePlan_OversoldBuysAtMarket(t *testing.T) {
	// RSI below the oversold threshold fires rule 1 regardless of supports.
	plan, err := BuildTradePlan(100, 25, []float64{90, 95}, []float64{110}, 0, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 100.0, plan.Entry)
}

func TestBuildTradePlan_WeightedEntryScenario(t *testing.T) {
	plan, err := BuildTradePlan(100, 50, []float64{90, 95}, []float64{110, 120}, 0, DefaultParams())
	require.NoError(t, err)

	// entry = 0.4*95 + 0.6*100
	assert.InDelta(t, 98.0, plan.Entry, 1e-9)
	// stop from support 95: 95*0.97 = 92.15; floor 88.2 does not apply
	assert.InDelta(t, 92.15, plan.StopLoss, 1e-9)
	assert.InDelta(t, -5.969, plan.StopLossPct, 1e-2)

	require.Len(t, plan.Targets, 2)
	assert.InDelta(t, 110.0, plan.Targets[0].Price, 1e-9)
	assert.Equal(t, "1st target", plan.Targets[0].Label)
	assert.InDelta(t, 12.24, plan.Targets[0].Pct, 1e-2)
	assert.InDelta(t, 120.0, plan.Targets[1].Price, 1e-9)

	// risk 5.85, reward 12
	assert.InDelta(t, 2.05, plan.RiskReward, 1e-2)
}

func TestBuildTradePlan_NoSupportDiscountsEntry(t *testing.T) {
	plan, err := BuildTradePlan(100, 50, nil, []float64{110}, 0, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 98.0, plan.Entry, 1e-9)
	// no support below entry: stop = entry*0.93
	assert.InDelta(t, 98.0*0.93, plan.StopLoss, 1e-9)
}

func TestBuildTradePlan_StopFloorOverridesSupport(t *testing.T) {
	// Support far below entry: 80*0.97 = 77.6 < floor 98*0.90 = 88.2, so the
	// clamp silently wins. Documented quirk; compute-then-clamp order.
	plan, err := BuildTradePlan(100, 50, []float64{80, 95}, []float64{110}, 0, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, 98.0, plan.Entry, 1e-9)
	assert.InDelta(t, 92.15, plan.StopLoss, 1e-9) // support 95 is nearest below entry

	// Force the clamp path: only the distant support exists.
	plan, err = BuildTradePlan(100, 50, []float64{80}, []float64{110}, 0, DefaultParams())
	require.NoError(t, err)
	assert.InDelta(t, plan.Entry*0.90, plan.StopLoss, 1e-9)
}

func TestBuildTradePlan_FabricatedTarget(t *testing.T) {
	plan, err := BuildTradePlan(100, 50, []float64{95}, nil, 0, DefaultParams())
	require.NoError(t, err)
	require.Len(t, plan.Targets, 1)
	assert.InDelta(t, 105.0, plan.Targets[0].Price, 1e-9)
}

func TestBuildTradePlan_UpperBandSecondTarget(t *testing.T) {
	plan, err := BuildTradePlan(100, 50, nil, []float64{108}, 115, DefaultParams())
	require.NoError(t, err)
	require.Len(t, plan.Targets, 2)
	assert.InDelta(t, 115.0, plan.Targets[1].Price, 1e-9)
	assert.Equal(t, "2nd target", plan.Targets[1].Label)
}

func TestBuildTradePlan_StopAlwaysBelowEntry(t *testing.T) {
	cases := []struct {
		price       float64
		rsi         float64
		supports    []float64
		resistances []float64
	}{
		{100, 25, []float64{99.9}, []float64{101}},
		{100, 50, []float64{99, 98, 97}, nil},
		{0.0042, 50, []float64{0.0040}, []float64{0.0050}},
		{55000, 70, nil, []float64{60000, 70000}},
	}
	for _, tc := range cases {
		plan, err := BuildTradePlan(tc.price, tc.rsi, tc.supports, tc.resistances, 0, DefaultParams())
		require.NoError(t, err)
		assert.Less(t, plan.StopLoss, plan.Entry, "price=%v rsi=%v", tc.price, tc.rsi)
		assert.LessOrEqual(t, plan.Entry, tc.price)
	}
}

func TestBuildTradePlan_RiskRewardClamp(t *testing.T) {
	// Support just below entry makes risk tiny; reward is huge.
	plan, err := BuildTradePlan(100, 50, []float64{97.9}, []float64{200}, 0, DefaultParams())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, plan.RiskReward, 0.0)
	assert.LessOrEqual(t, plan.RiskReward, 10.0)
}

func TestBuildTradePlan_InvalidPrice(t *testing.T) {
	_, err := BuildTradePlan(0, 50, nil, nil, 0, DefaultParams())
	assert.True(t, errors.Is(err, ErrInvalidInput))
	_, err = BuildTradePlan(-1, 50, nil, nil, 0, DefaultParams())
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestAnalyze_InsufficientHistory(t *testing.T) {
	bars := barsFromHighLow([]float64{100, 101}, []float64{99, 100})
	_, err := Analyze(bars, &model.IndicatorSet{CurrentPrice: 100}, DefaultParams())
	assert.True(t, errors.Is(err, ErrInsufficientData))
}

func TestAnalyze_BuildsPlanFromSeries(t *testing.T) {
	highs := []float64{100, 101, 103, 108, 104, 102, 101, 103, 105, 102, 101, 100}
	lows := []float64{96, 97, 98, 99, 97, 95, 94, 96, 97, 96, 95, 94}
	bars := barsFromHighLow(highs, lows)
	ind := &model.IndicatorSet{
		CurrentPrice: 100,
		RSI:          48,
		MA20:         98.5,
		BollingerUp:  107,
		BollingerLow: 94.5,
		HighestHigh:  108,
		LowestLow:    94,
	}
	plan, err := Analyze(bars, ind, DefaultParams())
	require.NoError(t, err)
	assert.Less(t, plan.StopLoss, plan.Entry)
	assert.NotEmpty(t, plan.Targets)
	assert.NotEmpty(t, plan.SupportLevels)
}

func TestFallbackPlan_FixedConstants(t *testing.T) {
	plan := FallbackPlan(50)
	assert.InDelta(t, 49.0, plan.Entry, 1e-9)
	assert.InDelta(t, 46.5, plan.StopLoss, 1e-9)
	assert.InDelta(t, -7.0, plan.StopLossPct, 1e-9)
	require.Len(t, plan.Targets, 1)
	assert.InDelta(t, 52.5, plan.Targets[0].Price, 1e-9)
	assert.InDelta(t, 5.0, plan.Targets[0].Pct, 1e-9)
	assert.InDelta(t, 1.0, plan.RiskReward, 1e-9)
	assert.True(t, plan.Degraded)
}
