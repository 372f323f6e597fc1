package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/model"
)

// DefaultBinanceURLs are probed in order at first use; some are blocked in
// some regions.
var DefaultBinanceURLs = []string{
	"https://api.binance.com/api/v3",
	"https://api1.binance.com/api/v3",
	"https://api4.binance.com/api/v3",
	"https://data-api.binance.vision/api/v3",
}

// BinanceClient talks to the Binance spot REST API (USDT markets).
type BinanceClient struct {
	BaseURLs []string
	Client   *http.Client
	cache    *cache.Cache
	baseURL  string // resolved on first request
}

func NewBinanceClient(baseURLs []string, c *cache.Cache) *BinanceClient {
	if len(baseURLs) == 0 {
		baseURLs = DefaultBinanceURLs
	}
	return &BinanceClient{
		BaseURLs: baseURLs,
		Client:   newHTTPClient("", 15*time.Second),
		cache:    c,
	}
}

func (b *BinanceClient) Name() string { return "binance" }

// resolveBase probes /ping on each candidate URL and remembers the first
// reachable one.
func (b *BinanceClient) resolveBase(ctx context.Context) string {
	if b.baseURL != "" {
		return b.baseURL
	}
	for _, base := range b.BaseURLs {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/ping", nil)
		if err != nil {
			continue
		}
		resp, err := b.Client.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			b.baseURL = base
			return base
		}
	}
	log.Warnf("binance: no base URL answered ping, falling back to %s", b.BaseURLs[0])
	b.baseURL = b.BaseURLs[0]
	return b.baseURL
}

func (b *BinanceClient) getJSON(ctx context.Context, path string, out interface{}) error {
	endpoint := b.resolveBase(ctx) + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("binance fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("binance: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("binance decode: %w", err)
	}
	return nil
}

// binanceTicker uses string-numeric fields, the Binance way.
type binanceTicker struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
}

// isLeveraged reports whether the symbol is a leveraged token market
// (UP/DOWN/BULL/BEAR), which the recommender skips.
func isLeveraged(base string) bool {
	for _, suffix := range []string{"UP", "DOWN", "BULL", "BEAR"} {
		if strings.HasSuffix(base, suffix) && len(base) > len(suffix) {
			return true
		}
	}
	return false
}

// Tickers returns 24h stats for all USDT spot markets.
func (b *BinanceClient) Tickers(ctx context.Context) ([]model.Coin, error) {
	const key = "binance:tickers"
	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			return cached.([]model.Coin), nil
		}
	}
	var raw []binanceTicker
	if err := b.getJSON(ctx, "/ticker/24hr", &raw); err != nil {
		return nil, err
	}

	coins := make([]model.Coin, 0, len(raw))
	for _, t := range raw {
		if !strings.HasSuffix(t.Symbol, "USDT") {
			continue
		}
		base := strings.TrimSuffix(t.Symbol, "USDT")
		if isLeveraged(base) {
			continue
		}
		price, err := strconv.ParseFloat(t.LastPrice, 64)
		if err != nil || price <= 0 {
			continue
		}
		change, _ := strconv.ParseFloat(t.PriceChangePercent, 64)
		volume, _ := strconv.ParseFloat(t.QuoteVolume, 64)
		coins = append(coins, model.Coin{
			Market:    t.Symbol,
			Symbol:    base,
			Name:      base,
			Price:     price,
			Change24h: change,
			Volume24h: volume,
		})
	}
	if b.cache != nil {
		b.cache.Set(key, coins, cache.DefaultExpiration)
	}
	return coins, nil
}

// FetchDailyBars returns daily klines for one symbol, ascending by time.
func (b *BinanceClient) FetchDailyBars(ctx context.Context, symbol string, count int) ([]model.PriceBar, error) {
	key := fmt.Sprintf("binance:klines:%s:%d", symbol, count)
	if b.cache != nil {
		if cached, ok := b.cache.Get(key); ok {
			return cached.([]model.PriceBar), nil
		}
	}
	var raw [][]interface{}
	path := fmt.Sprintf("/klines?symbol=%s&interval=1d&limit=%d", symbol, count)
	if err := b.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}

	bars := make([]model.PriceBar, 0, len(raw))
	for _, k := range raw {
		// [openTime, open, high, low, close, volume, ...] with string prices.
		if len(k) < 6 {
			continue
		}
		openTime, ok := k[0].(float64)
		if !ok {
			continue
		}
		parse := func(v interface{}) float64 {
			s, ok := v.(string)
			if !ok {
				return 0
			}
			f, _ := strconv.ParseFloat(s, 64)
			return f
		}
		bars = append(bars, model.PriceBar{
			Time:   time.UnixMilli(int64(openTime)),
			Open:   parse(k[1]),
			High:   parse(k[2]),
			Low:    parse(k[3]),
			Close:  parse(k[4]),
			Volume: parse(k[5]),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if b.cache != nil {
		b.cache.Set(key, bars, cache.DefaultExpiration)
	}
	return bars, nil
}
