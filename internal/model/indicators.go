package model

// IndicatorSet holds all computed technical indicators for one instrument.
type IndicatorSet struct {
	CurrentPrice  float64
	MA5           float64
	MA20          float64
	MA60          float64
	MA120         float64
	RSI           float64
	BollingerUp   float64
	BollingerMid  float64
	BollingerLow  float64
	MACD          float64
	MACDSignal    float64
	MACDHistogram float64
	HighestHigh   float64 // highest high over the lookback window
	LowestLow     float64 // lowest low over the lookback window
}

// MACDCross describes the relationship between the MACD line and its signal.
type MACDCross string

const (
	CrossGolden MACDCross = "GOLDEN"
	CrossDead   MACDCross = "DEAD"
	CrossNone   MACDCross = "NONE"
)

// Cross classifies the current MACD position relative to the signal line.
func (ind *IndicatorSet) Cross() MACDCross {
	switch {
	case ind.MACD > ind.MACDSignal && ind.MACDHistogram > 0:
		return CrossGolden
	case ind.MACD < ind.MACDSignal && ind.MACDHistogram < 0:
		return CrossDead
	default:
		return CrossNone
	}
}
