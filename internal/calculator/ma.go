package calculator

import (
	"errors"

	"MarketCompass/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateEMA computes the exponential moving average over the full price
// slice, seeded with the SMA of the first period values.
func CalculateEMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for EMA calculation")
	}
	ema, err := CalculateSMA(prices[:period], period)
	if err != nil {
		return 0, err
	}
	k := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema = prices[i]*k + ema*(1-k)
	}
	return ema, nil
}

// CalculateMA5 returns the 5-period simple moving average from daily bars.
func CalculateMA5(bars []model.PriceBar) (float64, error) {
	return CalculateSMA(extractCloses(bars), 5)
}

// CalculateMA20 returns the 20-period simple moving average from daily bars.
func CalculateMA20(bars []model.PriceBar) (float64, error) {
	return CalculateSMA(extractCloses(bars), 20)
}

// CalculateMA60 returns the 60-period simple moving average from daily bars.
func CalculateMA60(bars []model.PriceBar) (float64, error) {
	return CalculateSMA(extractCloses(bars), 60)
}

// CalculateMA120 returns the 120-period simple moving average from daily bars.
func CalculateMA120(bars []model.PriceBar) (float64, error) {
	return CalculateSMA(extractCloses(bars), 120)
}

func extractCloses(bars []model.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
