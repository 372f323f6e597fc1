package analyzer

import (
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/calculator"
	"MarketCompass/internal/levels"
	"MarketCompass/internal/model"
)

// ComputeIndicators derives the full indicator set from daily bars. Each
// indicator degrades independently: a failed calculation logs a warning and
// falls back to a neutral value instead of aborting the set.
func ComputeIndicators(bars []model.PriceBar, currentPrice float64) *model.IndicatorSet {
	ind := &model.IndicatorSet{CurrentPrice: currentPrice}
	if currentPrice <= 0 && len(bars) > 0 {
		ind.CurrentPrice = bars[len(bars)-1].Close
	}

	if ma, err := calculator.CalculateMA5(bars); err != nil {
		log.Warnf("MA5 calculation failed: %v, using current price", err)
		ind.MA5 = ind.CurrentPrice
	} else {
		ind.MA5 = ma
	}

	if ma, err := calculator.CalculateMA20(bars); err != nil {
		log.Warnf("MA20 calculation failed: %v, using current price", err)
		ind.MA20 = ind.CurrentPrice
	} else {
		ind.MA20 = ma
	}

	if ma, err := calculator.CalculateMA60(bars); err != nil {
		log.Warnf("MA60 calculation failed: %v, using current price", err)
		ind.MA60 = ind.CurrentPrice
	} else {
		ind.MA60 = ma
	}

	if ma, err := calculator.CalculateMA120(bars); err != nil {
		log.Warnf("MA120 calculation failed: %v, using current price", err)
		ind.MA120 = ind.CurrentPrice
	} else {
		ind.MA120 = ma
	}

	if rsi, err := calculator.CalculateRSI(bars, 14); err != nil {
		log.Warnf("RSI calculation failed: %v, defaulting to 50", err)
		ind.RSI = 50
	} else {
		ind.RSI = rsi
	}

	if upper, middle, lower, err := calculator.CalculateBollinger(bars, 20, 2); err != nil {
		log.Warnf("Bollinger calculation failed: %v", err)
	} else {
		ind.BollingerUp = upper
		ind.BollingerMid = middle
		ind.BollingerLow = lower
	}

	if macd, signal, hist, err := calculator.CalculateMACD(bars); err != nil {
		log.Warnf("MACD calculation failed: %v", err)
	} else {
		ind.MACD = macd
		ind.MACDSignal = signal
		ind.MACDHistogram = hist
	}

	if high, low, err := calculator.CalculateRange(bars, len(bars)); err != nil {
		log.Warnf("range calculation failed: %v", err)
		ind.HighestHigh = ind.CurrentPrice
		ind.LowestLow = ind.CurrentPrice
	} else {
		ind.HighestHigh = high
		ind.LowestLow = low
	}

	return ind
}

// BuildPlan runs the level estimator over the series and falls back to the
// fixed degenerate plan on insufficient data or a bad price. It always
// returns a plan; the error path is absorbed here by design.
func BuildPlan(bars []model.PriceBar, ind *model.IndicatorSet, p levels.Params) model.TradePlan {
	plan, err := levels.Analyze(bars, ind, p)
	if err != nil {
		price := ind.CurrentPrice
		if price <= 0 && len(bars) > 0 {
			price = bars[len(bars)-1].Close
		}
		log.Warnf("trade plan degraded to fallback: %v", err)
		return levels.FallbackPlan(price)
	}
	return plan
}
