package calculator

import (
	"errors"

	"MarketCompass/internal/model"
)

// CalculateMACD computes the MACD line (EMA12 - EMA26), its 9-period signal
// line and the histogram from daily bars. Requires at least 26+9 bars so the
// signal EMA has a full seed window.
func CalculateMACD(bars []model.PriceBar) (macd, signal, histogram float64, err error) {
	const (
		fast   = 12
		slow   = 26
		smooth = 9
	)
	if len(bars) < slow+smooth {
		return 0, 0, 0, errors.New("not enough data for MACD calculation")
	}
	closes := extractCloses(bars)

	// MACD series for the last `smooth` points, so the signal line can be
	// seeded and smoothed over real values.
	series := make([]float64, 0, smooth)
	for i := len(closes) - smooth; i <= len(closes); i++ {
		fastEMA, ferr := CalculateEMA(closes[:i], fast)
		slowEMA, serr := CalculateEMA(closes[:i], slow)
		if ferr != nil || serr != nil {
			continue
		}
		series = append(series, fastEMA-slowEMA)
	}
	if len(series) == 0 {
		return 0, 0, 0, errors.New("MACD series empty")
	}

	macd = series[len(series)-1]
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	signal = sum / float64(len(series))
	k := 2.0 / float64(smooth+1)
	for _, v := range series {
		signal = v*k + signal*(1-k)
	}
	return macd, signal, macd - signal, nil
}
