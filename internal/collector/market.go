package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/model"
)

// KimchiSymbols are the majors used for the premium average.
var KimchiSymbols = []string{"BTC", "ETH", "XRP", "SOL", "DOGE"}

// CryptoMarket is the combined crypto data facade: Upbit for KRW markets,
// Binance for USDT markets, alternative.me for the fear & greed index.
type CryptoMarket struct {
	Upbit        *UpbitClient
	Binance      *BinanceClient
	FearGreedURL string
	Client       *http.Client
	cache        *cache.Cache
	RequestDelay time.Duration // fixed pause between per-coin candle fetches
}

func NewCryptoMarket(upbit *UpbitClient, binance *BinanceClient, fearGreedURL string, c *cache.Cache) *CryptoMarket {
	if fearGreedURL == "" {
		fearGreedURL = "https://api.alternative.me/fng/"
	}
	return &CryptoMarket{
		Upbit:        upbit,
		Binance:      binance,
		FearGreedURL: fearGreedURL,
		Client:       newHTTPClient("", 10*time.Second),
		cache:        c,
		RequestDelay: 100 * time.Millisecond,
	}
}

// TopCoins returns the top-n coins on the exchange ranked by 24h turnover.
func (m *CryptoMarket) TopCoins(ctx context.Context, exchange string, n int) ([]model.Coin, error) {
	var coins []model.Coin
	var err error
	if exchange == "binance" {
		coins, err = m.Binance.Tickers(ctx)
	} else {
		coins, err = m.Upbit.Tickers(ctx)
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Volume24h > coins[j].Volume24h })
	if len(coins) > n {
		coins = coins[:n]
	}
	for i := range coins {
		coins[i].VolumeRank = i + 1
	}
	return coins, nil
}

// Movers returns the top-n gainers and losers by 24h change.
func (m *CryptoMarket) Movers(ctx context.Context, exchange string, n int) (gainers, losers []model.Coin, err error) {
	var coins []model.Coin
	if exchange == "binance" {
		coins, err = m.Binance.Tickers(ctx)
	} else {
		coins, err = m.Upbit.Tickers(ctx)
	}
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(coins, func(i, j int) bool { return coins[i].Change24h > coins[j].Change24h })
	if len(coins) <= n {
		return coins, nil, nil
	}
	gainers = append(gainers, coins[:n]...)
	tail := coins[len(coins)-n:]
	for i := len(tail) - 1; i >= 0; i-- {
		losers = append(losers, tail[i])
	}
	return gainers, losers, nil
}

// Candles fetches daily bars for a market id on the given exchange.
func (m *CryptoMarket) Candles(ctx context.Context, exchange, market string, count int) ([]model.PriceBar, error) {
	if exchange == "binance" {
		return m.Binance.FetchDailyBars(ctx, market, count)
	}
	return m.Upbit.FetchDailyBars(ctx, market, count)
}

// FearGreed fetches the crypto fear & greed index. On any failure it
// returns the neutral default rather than an error; the index is a score
// adjustment, not required data.
func (m *CryptoMarket) FearGreed(ctx context.Context) model.FearGreed {
	const key = "crypto:feargreed"
	if m.cache != nil {
		if cached, ok := m.cache.Get(key); ok {
			return cached.(model.FearGreed)
		}
	}
	neutral := model.FearGreed{Value: 50, Label: "Neutral"}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.FearGreedURL+"?limit=1&format=json", nil)
	if err != nil {
		return neutral
	}
	resp, err := m.Client.Do(req)
	if err != nil {
		log.Warnf("fear & greed fetch failed: %v", err)
		return neutral
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Warnf("fear & greed: status %d", resp.StatusCode)
		return neutral
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || len(payload.Data) == 0 {
		log.Warnf("fear & greed decode failed: %v", err)
		return neutral
	}
	v, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		return neutral
	}
	fg := model.FearGreed{Value: v, Label: payload.Data[0].Classification}
	if m.cache != nil {
		m.cache.Set(key, fg, cache.DefaultExpiration)
	}
	return fg
}

// KimchiPremium computes the Upbit-vs-Binance price premium for the major
// symbols. The implied KRW/USD rate is backed out of the BTC pair, so the
// BTC premium is zero by construction and the signal lives in the others.
func (m *CryptoMarket) KimchiPremium(ctx context.Context) (model.KimchiPremium, error) {
	const key = "crypto:kimchi"
	if m.cache != nil {
		if cached, ok := m.cache.Get(key); ok {
			return cached.(model.KimchiPremium), nil
		}
	}
	upbitCoins, err := m.Upbit.Tickers(ctx)
	if err != nil {
		return model.KimchiPremium{}, fmt.Errorf("kimchi premium: %w", err)
	}
	binanceCoins, err := m.Binance.Tickers(ctx)
	if err != nil {
		return model.KimchiPremium{}, fmt.Errorf("kimchi premium: %w", err)
	}

	upbitBySymbol := make(map[string]float64)
	for _, c := range upbitCoins {
		upbitBySymbol[c.Symbol] = c.Price
	}
	binanceBySymbol := make(map[string]float64)
	for _, c := range binanceCoins {
		binanceBySymbol[c.Symbol] = c.Price
	}

	upbitBTC := upbitBySymbol["BTC"]
	binanceBTC := binanceBySymbol["BTC"]
	if upbitBTC <= 0 || binanceBTC <= 0 {
		return model.KimchiPremium{}, fmt.Errorf("kimchi premium: missing BTC reference price")
	}
	rate := upbitBTC / binanceBTC

	result := model.KimchiPremium{
		ExchangeRate: rate,
		Premiums:     make(map[string]float64),
	}
	sum := 0.0
	count := 0
	for _, sym := range KimchiSymbols {
		up, ok1 := upbitBySymbol[sym]
		bi, ok2 := binanceBySymbol[sym]
		if !ok1 || !ok2 || bi <= 0 {
			continue
		}
		krwEquivalent := bi * rate
		premium := (up - krwEquivalent) / krwEquivalent * 100
		result.Premiums[sym] = premium
		sum += premium
		count++
	}
	if count > 0 {
		result.Average = sum / float64(count)
	}
	if m.cache != nil {
		m.cache.Set(key, result, cache.DefaultExpiration)
	}
	return result, nil
}
