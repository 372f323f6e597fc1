package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"MarketCompass/internal/model"
)

// CalculateBollinger returns the upper band, middle (SMA) and lower band over
// the most recent period closes, at mult standard deviations.
func CalculateBollinger(bars []model.PriceBar, period int, mult float64) (upper, middle, lower float64, err error) {
	if period <= 0 {
		return 0, 0, 0, errors.New("period must be positive")
	}
	if len(bars) < period {
		return 0, 0, 0, errors.New("not enough data for Bollinger calculation")
	}
	closes := extractCloses(bars)
	window := closes[len(closes)-period:]

	middle, err = stats.Mean(window)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bollinger mean: %w", err)
	}
	sd, err := stats.StandardDeviation(window)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("bollinger stddev: %w", err)
	}
	return middle + mult*sd, middle, middle - mult*sd, nil
}

// AnnualizedVolatility computes the stddev of daily returns scaled to a
// yearly horizon (x sqrt(252)), as a percentage.
func AnnualizedVolatility(bars []model.PriceBar) (float64, error) {
	if len(bars) < 2 {
		return 0, errors.New("not enough data for volatility calculation")
	}
	closes := extractCloses(bars)
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 {
			returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
		}
	}
	if len(returns) == 0 {
		return 0, errors.New("no valid returns")
	}
	sd, err := stats.StandardDeviation(returns)
	if err != nil {
		return 0, fmt.Errorf("volatility stddev: %w", err)
	}
	return sd * math.Sqrt(252) * 100, nil
}
