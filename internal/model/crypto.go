package model

// Coin is one crypto market row from an exchange ticker endpoint.
type Coin struct {
	Market     string  `json:"market"` // exchange market id, e.g. "KRW-BTC" or "BTCUSDT"
	Symbol     string  `json:"symbol"` // base symbol, e.g. "BTC"
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Change24h  float64 `json:"change_24h"` // signed percent
	Volume24h  float64 `json:"volume_24h"` // quote-currency turnover
	VolumeRank int     `json:"volume_rank,omitempty"`
}

// FearGreed is the crypto fear & greed index reading.
type FearGreed struct {
	Value int    `json:"value"` // 0-100
	Label string `json:"label"`
}

// KimchiPremium holds the KRW/USDT price premium per symbol plus the average.
type KimchiPremium struct {
	ExchangeRate float64            `json:"exchange_rate"` // implied KRW per USD
	Premiums     map[string]float64 `json:"premiums"`      // symbol -> premium %
	Average      float64            `json:"average"`
}

// FlowEntry is one row of a KRX net-buying ranking.
type FlowEntry struct {
	Rank        int     `json:"rank"`
	Symbol      string  `json:"symbol"`
	Name        string  `json:"name"`
	NetBuyValue float64 `json:"net_buy_value"` // KRW
}

// ShortInterest is one short-selling ratio row.
type ShortInterest struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	ShortRatio float64 `json:"short_ratio"` // percent of trading volume
}

// ETFStat is one ETF performance row used by the pension recommender.
type ETFStat struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Return1M   float64 `json:"return_1m"`
	Return3M   float64 `json:"return_3m"`
	Volume     float64 `json:"volume"`
	Volatility float64 `json:"volatility,omitempty"` // annualized, percent
}
