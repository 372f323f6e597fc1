package analyzer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/calculator"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/levels"
	"MarketCompass/internal/model"
)

// CryptoAnalyzer scores exchange-listed coins from momentum, volume,
// technical and market-wide factors, and attaches a trade plan per pick.
type CryptoAnalyzer struct {
	Market  *collector.CryptoMarket
	Params  levels.Params
	Workers int // bounded fan-out for per-coin analysis
}

func NewCryptoAnalyzer(market *collector.CryptoMarket, p levels.Params) *CryptoAnalyzer {
	return &CryptoAnalyzer{Market: market, Params: p, Workers: 4}
}

// scoreMomentum scores the 24h change plus the 5-day return.
func scoreMomentum(change24h float64, bars []model.PriceBar) model.ScoreComponent {
	var score float64
	switch {
	case change24h > 10:
		score += 15
	case change24h > 5:
		score += 10
	case change24h > 2:
		score += 5
	case change24h < -10:
		score -= 10
	case change24h < -5:
		score -= 5
	}

	if len(bars) >= 5 {
		base := bars[len(bars)-5].Close
		current := bars[len(bars)-1].Close
		if base > 0 {
			change5d := (current - base) / base * 100
			if change5d > 15 {
				score += 10
			} else if change5d > 5 {
				score += 5
			}
		}
	}
	if score > 20 {
		score = 20
	}
	return model.ScoreComponent{
		Name:    "momentum",
		Score:   score,
		Comment: fmt.Sprintf("24h %+.1f%%", change24h),
	}
}

// scoreVolume scores the last bar's volume against the mean of the prior
// seven bars.
func scoreVolume(bars []model.PriceBar) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "volume"}
	if len(bars) < 8 {
		return comp
	}
	recent := bars[len(bars)-1].Volume
	var sum float64
	for _, b := range bars[len(bars)-8 : len(bars)-1] {
		sum += b.Volume
	}
	avg := sum / 7
	if avg <= 0 {
		return comp
	}
	change := (recent - avg) / avg * 100

	switch {
	case change > 200:
		comp.Score = 20
	case change > 100:
		comp.Score = 15
	case change > 50:
		comp.Score = 10
	case change > 20:
		comp.Score = 5
	}
	if comp.Score > 15 {
		comp.Score = 15
	}
	comp.Comment = fmt.Sprintf("vol %+.0f%% vs 7d avg", change)
	return comp
}

// scoreTechnical scores MA alignment and RSI posture. Capped at 20.
func scoreTechnical(bars []model.PriceBar) (model.ScoreComponent, float64) {
	comp := model.ScoreComponent{Name: "technical"}
	if len(bars) < 5 {
		return comp, 50
	}
	current := bars[len(bars)-1].Close

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	ma5, _ := calculator.CalculateSMA(closes, 5)
	var ma20 float64
	if len(closes) >= 20 {
		ma20, _ = calculator.CalculateSMA(closes, 20)
	} else {
		ma20, _ = calculator.CalculateSMA(closes, len(closes))
	}
	rsi, err := calculator.CalculateRSI(bars, 14)
	if err != nil {
		rsi = 50
	}

	var score float64
	var trend string
	switch {
	case current > ma5 && ma5 > ma20:
		score += 15
		trend = "strong uptrend"
	case current > ma5:
		score += 10
		trend = "uptrend"
	case current > ma20:
		score += 5
		trend = "mild uptrend"
	case current < ma5 && ma5 < ma20:
		score -= 10
		trend = "downtrend"
	default:
		trend = "neutral"
	}

	switch {
	case rsi > 70:
		score -= 5
	case rsi >= 50:
		score += 10
	case rsi >= 30:
		score += 5
	default:
		score += 15 // oversold bounce setup
	}

	if score > 20 {
		score = 20
	}
	comp.Score = score
	comp.Comment = fmt.Sprintf("%s, RSI %.0f", trend, rsi)
	return comp, rsi
}

// scoreMACDCross scores the 12/26/9 cross state. A fresh cross (sign flip
// against the previous bar) scores stronger than a continued one.
func scoreMACDCross(bars []model.PriceBar) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "macd"}
	if len(bars) < 36 {
		return comp
	}
	macd, signal, _, err := calculator.CalculateMACD(bars)
	if err != nil {
		return comp
	}
	prevMACD, prevSignal, _, err := calculator.CalculateMACD(bars[:len(bars)-1])
	if err != nil {
		return comp
	}

	switch {
	case prevMACD <= prevSignal && macd > signal:
		comp.Score = 15
		comp.Comment = "golden cross"
	case prevMACD >= prevSignal && macd < signal:
		comp.Score = -5
		comp.Comment = "dead cross"
	case macd > signal:
		comp.Score = 5
		comp.Comment = "bullish"
	default:
		comp.Score = -2
		comp.Comment = "bearish"
	}
	return comp
}

// scoreBollinger scores the price position inside the 20-day ±2σ bands.
// Returns the upper band for the trade-plan target fallback.
func scoreBollinger(bars []model.PriceBar) (model.ScoreComponent, float64) {
	comp := model.ScoreComponent{Name: "bollinger"}
	if len(bars) < 20 {
		return comp, 0
	}
	upper, middle, lower, err := calculator.CalculateBollinger(bars, 20, 2)
	if err != nil {
		return comp, 0
	}
	current := bars[len(bars)-1].Close
	var bandWidth float64
	if middle > 0 {
		bandWidth = (upper - lower) / middle * 100
	}

	switch {
	case current <= lower:
		comp.Score = 10
		comp.Comment = "below lower band (oversold)"
	case current >= upper:
		comp.Score = -5
		comp.Comment = "above upper band (overbought)"
	case bandWidth < 5:
		comp.Score = 5
		comp.Comment = "band squeeze"
	default:
		comp.Comment = "inside bands"
	}
	return comp, upper
}

// scoreVolumeRank rewards liquid markets.
func scoreVolumeRank(rank int) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "rank", Comment: fmt.Sprintf("turnover rank %d", rank)}
	switch {
	case rank <= 5:
		comp.Score = 10
	case rank <= 10:
		comp.Score = 7
	case rank <= 20:
		comp.Score = 3
	}
	return comp
}

// scoreStreak rewards consecutive green daily candles.
func scoreStreak(bars []model.PriceBar) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "streak"}
	if len(bars) < 3 {
		return comp
	}
	green := 0
	for _, b := range bars[len(bars)-3:] {
		if b.Close > b.Open {
			green++
		}
	}
	switch {
	case green >= 3:
		comp.Score = 10
		comp.Comment = "3 green candles"
	case green >= 2:
		comp.Score = 5
		comp.Comment = "2 green candles"
	}
	return comp
}

// scoreFearGreed converts the market-wide index to a contrarian adjustment.
func scoreFearGreed(fg model.FearGreed) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "fear_greed", Comment: fmt.Sprintf("%d (%s)", fg.Value, fg.Label)}
	switch {
	case fg.Value < 25:
		comp.Score = 15
	case fg.Value < 45:
		comp.Score = 5
	case fg.Value > 75:
		comp.Score = -10
	case fg.Value > 55:
		comp.Score = -5
	}
	return comp
}

// scoreKimchiPremium converts the average premium to an adjustment: a hot
// premium signals local overheating, a reverse premium signals value.
func scoreKimchiPremium(avg float64) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "kimchi_premium", Comment: fmt.Sprintf("%+.1f%%", avg)}
	switch {
	case avg > 5:
		comp.Score = -5
	case avg > 3:
		comp.Score = -2
	case avg < -2:
		comp.Score = 5
	case avg < 0:
		comp.Score = 2
	}
	return comp
}

// analyzeCoin scores one coin from its bars plus the shared market factors.
func (a *CryptoAnalyzer) analyzeCoin(coin model.Coin, bars []model.PriceBar, fgComp, kpComp model.ScoreComponent) model.Recommendation {
	momentum := scoreMomentum(coin.Change24h, bars)
	volume := scoreVolume(bars)
	technical, rsi := scoreTechnical(bars)
	macd := scoreMACDCross(bars)
	bollinger, upperBand := scoreBollinger(bars)
	rank := scoreVolumeRank(coin.VolumeRank)
	streak := scoreStreak(bars)

	components := []model.ScoreComponent{
		momentum, volume, technical, macd, bollinger, rank, streak, fgComp, kpComp,
	}
	var total float64
	var signals []string
	for _, c := range components {
		total += c.Score
		if c.Score != 0 && c.Comment != "" {
			signals = append(signals, c.Comment)
		}
	}

	rec := model.Recommendation{
		Symbol:     coin.Symbol,
		Name:       coin.Name,
		Price:      coin.Price,
		Change24h:  coin.Change24h,
		Score:      total,
		Components: components,
		Signals:    signals,
	}

	plan := buildCoinPlan(bars, coin.Price, rsi, upperBand, a.Params)
	rec.Plan = &plan
	return rec
}

func buildCoinPlan(bars []model.PriceBar, price, rsi, upperBand float64, p levels.Params) model.TradePlan {
	ind := ComputeIndicators(bars, price)
	ind.RSI = rsi
	if upperBand > 0 {
		ind.BollingerUp = upperBand
	}
	return BuildPlan(bars, ind, p)
}

// Recommend scores the top coins by turnover and returns the best topN,
// rank-stamped and sorted by score descending. Per-coin analysis fans out
// over a bounded worker pool; the coins share no state.
func (a *CryptoAnalyzer) Recommend(ctx context.Context, exchange string, topN int) ([]model.Recommendation, error) {
	coins, err := a.Market.TopCoins(ctx, exchange, 50)
	if err != nil {
		return nil, fmt.Errorf("crypto recommend: %w", err)
	}

	fg := a.Market.FearGreed(ctx)
	fgComp := scoreFearGreed(fg)

	kpComp := model.ScoreComponent{Name: "kimchi_premium"}
	if exchange != "binance" {
		if kp, err := a.Market.KimchiPremium(ctx); err != nil {
			log.Warnf("kimchi premium unavailable: %v", err)
		} else {
			kpComp = scoreKimchiPremium(kp.Average)
		}
	}

	analyzeCount := len(coins)
	if analyzeCount > 30 {
		analyzeCount = 30
	}

	workers := a.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var recs []model.Recommendation

	for _, coin := range coins[:analyzeCount] {
		wg.Add(1)
		sem <- struct{}{}
		go func(coin model.Coin) {
			defer wg.Done()
			defer func() { <-sem }()

			bars, err := a.Market.Candles(ctx, exchange, coin.Market, 40)
			if err != nil {
				log.Warnf("candles for %s failed: %v", coin.Market, err)
				bars = nil
			}
			rec := a.analyzeCoin(coin, bars, fgComp, kpComp)
			if rec.Score <= 0 {
				return
			}
			mu.Lock()
			recs = append(recs, rec)
			mu.Unlock()
		}(coin)
	}
	wg.Wait()

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > topN {
		recs = recs[:topN]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs, nil
}

// VolumeSurges returns coins whose latest volume exceeds mult times the
// average of the prior seven bars, sorted by surge size.
func (a *CryptoAnalyzer) VolumeSurges(ctx context.Context, exchange string, mult float64, topN int) ([]model.Recommendation, error) {
	coins, err := a.Market.TopCoins(ctx, exchange, 40)
	if err != nil {
		return nil, fmt.Errorf("volume surge scan: %w", err)
	}

	var recs []model.Recommendation
	for _, coin := range coins {
		bars, err := a.Market.Candles(ctx, exchange, coin.Market, 10)
		if err != nil || len(bars) < 8 {
			continue
		}
		recent := bars[len(bars)-1].Volume
		var sum float64
		for _, b := range bars[len(bars)-8 : len(bars)-1] {
			sum += b.Volume
		}
		avg := sum / 7
		if avg <= 0 || recent < avg*mult {
			continue
		}
		surgePct := (recent - avg) / avg * 100
		recs = append(recs, model.Recommendation{
			Symbol:    coin.Symbol,
			Name:      coin.Name,
			Price:     coin.Price,
			Change24h: coin.Change24h,
			Score:     surgePct,
			Signals:   []string{fmt.Sprintf("volume %+.0f%% vs 7d avg", surgePct)},
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > topN {
		recs = recs[:topN]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs, nil
}
