package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MarketCompass/internal/levels"
	"MarketCompass/internal/model"
)

func mkBars(closes ...float64) []model.PriceBar {
	bars := make([]model.PriceBar, len(closes))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = model.PriceBar{
			Time:   base.AddDate(0, 0, i),
			Open:   c * 0.995,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestScoreMomentumLadder(t *testing.T) {
	tests := []struct {
		change24h float64
		want      float64
	}{
		{12, 15},
		{7, 10},
		{3, 5},
		{0, 0},
		{-7, -5},
		{-12, -10},
	}
	for _, tt := range tests {
		got := scoreMomentum(tt.change24h, nil)
		if got.Score != tt.want {
			t.Errorf("scoreMomentum(%v) = %v, want %v", tt.change24h, got.Score, tt.want)
		}
	}
}

func TestScoreMomentumCapsWith5DayRally(t *testing.T) {
	// 24h +12 (15 pts) plus a 5-day move over 15% (10 pts) caps at 20.
	bars := mkBars(100, 105, 110, 115, 120)
	got := scoreMomentum(12, bars)
	assert.Equal(t, 20.0, got.Score)
}

func TestScoreVolumeSurgeCap(t *testing.T) {
	bars := mkBars(1, 1, 1, 1, 1, 1, 1, 1, 1)
	for i := range bars {
		bars[i].Volume = 100
	}
	bars[len(bars)-1].Volume = 400 // +300% vs 7-day average
	got := scoreVolume(bars)
	assert.Equal(t, 15.0, got.Score)
}

func TestScoreVolumeInsufficientBars(t *testing.T) {
	got := scoreVolume(mkBars(1, 2, 3))
	if got.Score != 0 {
		t.Errorf("expected zero score on short series, got %v", got.Score)
	}
}

func TestScoreTechnicalUptrendOverboughtRSI(t *testing.T) {
	// Strictly rising closes: price > MA5 > MA20 (+15) but RSI = 100 (-5).
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	comp, rsi := scoreTechnical(mkBars(closes...))
	assert.Equal(t, 10.0, comp.Score)
	assert.Greater(t, rsi, 70.0)
}

func TestScoreVolumeRank(t *testing.T) {
	tests := []struct {
		rank int
		want float64
	}{
		{1, 10}, {5, 10}, {6, 7}, {10, 7}, {11, 3}, {20, 3}, {21, 0},
	}
	for _, tt := range tests {
		if got := scoreVolumeRank(tt.rank); got.Score != tt.want {
			t.Errorf("scoreVolumeRank(%d) = %v, want %v", tt.rank, got.Score, tt.want)
		}
	}
}

func TestScoreStreak(t *testing.T) {
	green := mkBars(100, 101, 102, 103)
	if got := scoreStreak(green); got.Score != 10 {
		t.Errorf("3 green candles = %v, want 10", got.Score)
	}

	mixed := mkBars(100, 101, 102, 103)
	mixed[len(mixed)-1].Open = 104 // last candle red
	if got := scoreStreak(mixed); got.Score != 5 {
		t.Errorf("2 green candles = %v, want 5", got.Score)
	}
}

func TestScoreFearGreed(t *testing.T) {
	tests := []struct {
		value int
		want  float64
	}{
		{20, 15}, {40, 5}, {50, 0}, {60, -5}, {80, -10},
	}
	for _, tt := range tests {
		got := scoreFearGreed(model.FearGreed{Value: tt.value})
		if got.Score != tt.want {
			t.Errorf("scoreFearGreed(%d) = %v, want %v", tt.value, got.Score, tt.want)
		}
	}
}

func TestScoreKimchiPremium(t *testing.T) {
	tests := []struct {
		avg  float64
		want float64
	}{
		{6, -5}, {4, -2}, {1, 0}, {-1, 2}, {-3, 5},
	}
	for _, tt := range tests {
		got := scoreKimchiPremium(tt.avg)
		if got.Score != tt.want {
			t.Errorf("scoreKimchiPremium(%v) = %v, want %v", tt.avg, got.Score, tt.want)
		}
	}
}

func TestScoreOwnership(t *testing.T) {
	// Relative to the most widely held stock, clamped at 30.
	assert.InDelta(t, 15.0, scoreOwnership(5, 10).Score, 1e-9)
	assert.Equal(t, 30.0, scoreOwnership(15, 100).Score) // 15+ owners is always full marks
	assert.Equal(t, 30.0, scoreOwnership(20, 10).Score)
}

func TestScoreActivityClamps(t *testing.T) {
	heavy := &symbolActivity{New: 5}
	assert.Equal(t, 25.0, scoreActivity(heavy).Score)

	selling := &symbolActivity{Sells: 4}
	assert.Equal(t, 0.0, scoreActivity(selling).Score)

	mixed := &symbolActivity{New: 1, Adds: 2, Reduces: 1}
	assert.Equal(t, 14.0, scoreActivity(mixed).Score)
}

func TestScoreConviction(t *testing.T) {
	act := &symbolActivity{AvgConviction: 4, MaxConviction: 12}
	// 4*2 = 8, +5 for a double-digit position.
	assert.Equal(t, 13.0, scoreConviction(act).Score)

	huge := &symbolActivity{AvgConviction: 15, MaxConviction: 30}
	assert.Equal(t, 20.0, scoreConviction(huge).Score)
}

func TestScorePriceVsHold(t *testing.T) {
	// Down 40% from the average buy price: value score capped at 15.
	assert.Equal(t, 15.0, scorePriceVsHold(100, 60).Score)
	// Down 20%: 20 * 0.5 = 10.
	assert.Equal(t, 10.0, scorePriceVsHold(100, 80).Score)
	// Up 30%: late to the trade.
	assert.Equal(t, 5.0, scorePriceVsHold(100, 130).Score)
	// Near the buy price.
	assert.Equal(t, 8.0, scorePriceVsHold(100, 105).Score)
	// Unknown prices score nothing.
	assert.Equal(t, 0.0, scorePriceVsHold(0, 100).Score)
}

func TestRankScore(t *testing.T) {
	tests := []struct {
		rank int
		want float64
	}{
		{1, 30}, {15, 16}, {30, 1}, {31, 0}, {50, 0},
	}
	for _, tt := range tests {
		if got := rankScore(tt.rank); got != tt.want {
			t.Errorf("rankScore(%d) = %v, want %v", tt.rank, got, tt.want)
		}
	}
}

func TestScoreShortRatio(t *testing.T) {
	assert.Equal(t, 10.0, scoreShortRatio(3).Score)
	assert.Equal(t, 0.0, scoreShortRatio(10).Score)
	assert.Equal(t, -10.0, scoreShortRatio(25).Score)
	assert.Equal(t, 0.0, scoreShortRatio(0).Score)
}

func TestScoreHeadlines(t *testing.T) {
	s := ScoreHeadlines([]string{"코스피 신고가 경신"})
	assert.Equal(t, 3, s.Positive)
	assert.Equal(t, 0, s.Negative)
	assert.Equal(t, 100, s.Score)
	assert.Equal(t, "bullish", s.Label)

	s = ScoreHeadlines([]string{"반도체 상승", "은행주 하락"})
	assert.Equal(t, 1, s.Positive)
	assert.Equal(t, 1, s.Negative)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, "neutral", s.Label)

	s = ScoreHeadlines(nil)
	assert.Equal(t, 0, s.Score)
	assert.Equal(t, "neutral", s.Label)
}

func TestSentimentLabels(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{50, "bullish"},
		{20, "mildly bullish"},
		{0, "neutral"},
		{-20, "mildly bearish"},
		{-50, "bearish"},
	}
	for _, tt := range tests {
		if got := sentimentLabel(tt.score); got != tt.want {
			t.Errorf("sentimentLabel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestQuickPicks(t *testing.T) {
	etfs := []model.ETFStat{
		{Symbol: "A", Return1M: 10, Return3M: 6},              // 5 + 1.8 + 5 bonus = 11.8
		{Symbol: "B", Return1M: 20, Return3M: -5, Volatility: 100}, // 8.5/2 - 3 = 1.25
	}
	picks := QuickPicks(etfs, 5)
	assert.Len(t, picks, 2)
	assert.Equal(t, "A", picks[0].Symbol)
	assert.InDelta(t, 11.8, picks[0].Score, 1e-9)
	assert.Equal(t, "B", picks[1].Symbol)
	assert.InDelta(t, 1.25, picks[1].Score, 1e-9)
	assert.Equal(t, 1, picks[0].Rank)
}

func TestDiffSnapshotsOrdering(t *testing.T) {
	prev := &model.PortfolioSnapshot{
		InvestorID: "BRK",
		Quarter:    "2025Q1",
		Holdings: []model.Holding{
			{Symbol: "AAPL", Company: "Apple", Shares: 100, PortfolioPct: 5},
			{Symbol: "KO", Company: "Coca-Cola", Shares: 50, PortfolioPct: 3},
			{Symbol: "AXP", Company: "AmEx", Shares: 10, PortfolioPct: 1},
			{Symbol: "BAC", Company: "BofA", Shares: 40, PortfolioPct: 2},
		},
	}
	curr := &model.PortfolioSnapshot{
		InvestorID: "BRK",
		Quarter:    "2025Q2",
		Holdings: []model.Holding{
			{Symbol: "AAPL", Company: "Apple", Shares: 150, PortfolioPct: 8},
			{Symbol: "AXP", Company: "AmEx", Shares: 5, PortfolioPct: 0.5},
			{Symbol: "OXY", Company: "Occidental", Shares: 20, PortfolioPct: 2},
			{Symbol: "BAC", Company: "BofA", Shares: 40, PortfolioPct: 2},
		},
	}

	changes := DiffSnapshots(prev, curr)
	if len(changes) != 4 {
		t.Fatalf("expected 4 changes, got %d", len(changes))
	}
	// NEW first, then EXIT, then weight changes by |delta| descending.
	// BAC is unchanged and omitted.
	assert.Equal(t, model.ChangeNew, changes[0].Kind)
	assert.Equal(t, "OXY", changes[0].Symbol)
	assert.Equal(t, model.ChangeExit, changes[1].Kind)
	assert.Equal(t, "KO", changes[1].Symbol)
	assert.Equal(t, model.ChangeIncrease, changes[2].Kind)
	assert.Equal(t, "AAPL", changes[2].Symbol)
	assert.Equal(t, model.ChangeDecrease, changes[3].Kind)
	assert.Equal(t, "AXP", changes[3].Symbol)
}

func TestDiffSnapshotsEmpty(t *testing.T) {
	if got := DiffSnapshots(nil, nil); len(got) != 0 {
		t.Errorf("expected no changes for nil snapshots, got %d", len(got))
	}
}

func TestSummarizeChanges(t *testing.T) {
	changes := []model.PositionChange{
		{Kind: model.ChangeNew},
		{Kind: model.ChangeNew},
		{Kind: model.ChangeExit},
		{Kind: model.ChangeDecrease},
	}
	s := SummarizeChanges(changes)
	assert.Equal(t, ActivitySummary{New: 2, Exits: 1, Decreases: 1}, s)
}

func TestFindOverlap(t *testing.T) {
	snaps := []*model.PortfolioSnapshot{
		{InvestorID: "a", Holdings: []model.Holding{
			{Symbol: "AAPL", Company: "Apple", PortfolioPct: 10, Value: 100},
			{Symbol: "MSFT", Company: "Microsoft", PortfolioPct: 5, Value: 50},
		}},
		{InvestorID: "b", Holdings: []model.Holding{
			{Symbol: "AAPL", Company: "Apple", PortfolioPct: 20, Value: 200},
		}},
	}

	entries := FindOverlap(snaps, 2)
	if len(entries) != 1 {
		t.Fatalf("expected 1 common holding, got %d", len(entries))
	}
	e := entries[0]
	assert.Equal(t, "AAPL", e.Symbol)
	assert.Equal(t, 2, e.NumOwners)
	assert.InDelta(t, 15.0, e.AvgPct, 1e-9)
	assert.InDelta(t, 30.0, e.Conviction, 1e-9)
	assert.InDelta(t, 300.0, e.TotalValue, 1e-9)

	all := FindOverlap(snaps, 1)
	assert.Len(t, all, 2)
	assert.Equal(t, "AAPL", all[0].Symbol) // more owners ranks first
}

func TestCommonHoldings(t *testing.T) {
	snaps := []*model.PortfolioSnapshot{
		{InvestorID: "a", Holdings: []model.Holding{{Symbol: "AAPL", PortfolioPct: 10}}},
		{InvestorID: "b", Holdings: []model.Holding{{Symbol: "MSFT", PortfolioPct: 10}}},
	}
	if got := CommonHoldings(snaps); len(got) != 0 {
		t.Errorf("expected no common holdings, got %d", len(got))
	}
}

func TestComputeIndicatorsDegradesGracefully(t *testing.T) {
	// Three bars: MAs fall back to current price, RSI to 50.
	ind := ComputeIndicators(mkBars(100, 101, 102), 102)
	assert.Equal(t, 102.0, ind.CurrentPrice)
	assert.Equal(t, 102.0, ind.MA5)
	assert.Equal(t, 102.0, ind.MA20)
	assert.Equal(t, 50.0, ind.RSI)
	assert.Greater(t, ind.HighestHigh, 102.0)
}

func TestComputeIndicatorsShortMA(t *testing.T) {
	ind := ComputeIndicators(mkBars(100, 102, 104, 106, 108, 110), 110)
	assert.InDelta(t, 106.0, ind.MA5, 1e-9) // mean of the last five closes
	assert.Equal(t, 110.0, ind.MA20)        // still short of 20 bars
}

func TestBuildPlanFallsBack(t *testing.T) {
	bars := mkBars(100, 101)
	ind := ComputeIndicators(bars, 101)
	plan := BuildPlan(bars, ind, levels.DefaultParams())
	assert.True(t, plan.Degraded)
	assert.InDelta(t, 101*0.98, plan.Entry, 1e-9)
}
