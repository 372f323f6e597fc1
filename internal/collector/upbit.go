package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"MarketCompass/internal/model"
)

// UpbitClient talks to the Upbit public REST API (KRW markets).
type UpbitClient struct {
	BaseURL string
	Client  *http.Client
	cache   *cache.Cache
}

// NewUpbitClient creates a client. The cache memoizes market lists and
// candles; pass nil to disable.
func NewUpbitClient(baseURL string, c *cache.Cache) *UpbitClient {
	if baseURL == "" {
		baseURL = "https://api.upbit.com/v1"
	}
	return &UpbitClient{
		BaseURL: baseURL,
		Client:  newHTTPClient("", 15*time.Second),
		cache:   c,
	}
}

func (u *UpbitClient) Name() string { return "upbit" }

func (u *UpbitClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := u.Client.Do(req)
	if err != nil {
		return fmt.Errorf("upbit fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upbit: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("upbit decode: %w", err)
	}
	return nil
}

type upbitMarket struct {
	Market      string `json:"market"`
	KoreanName  string `json:"korean_name"`
	EnglishName string `json:"english_name"`
}

// KRWMarkets returns all KRW-quoted markets with their Korean names.
func (u *UpbitClient) KRWMarkets(ctx context.Context) (map[string]string, error) {
	const key = "upbit:markets"
	if u.cache != nil {
		if cached, ok := u.cache.Get(key); ok {
			return cached.(map[string]string), nil
		}
	}
	var all []upbitMarket
	if err := u.getJSON(ctx, u.BaseURL+"/market/all?is_details=false", &all); err != nil {
		return nil, err
	}
	names := make(map[string]string)
	for _, m := range all {
		if len(m.Market) > 4 && m.Market[:4] == "KRW-" {
			names[m.Market] = m.KoreanName
		}
	}
	if u.cache != nil {
		u.cache.Set(key, names, cache.DefaultExpiration)
	}
	return names, nil
}

type upbitTicker struct {
	Market           string  `json:"market"`
	TradePrice       float64 `json:"trade_price"`
	SignedChangeRate float64 `json:"signed_change_rate"`
	AccTradePrice24h float64 `json:"acc_trade_price_24h"`
}

// Tickers returns a Coin row per KRW market, 24h change as a signed percent.
func (u *UpbitClient) Tickers(ctx context.Context) ([]model.Coin, error) {
	names, err := u.KRWMarkets(ctx)
	if err != nil {
		return nil, err
	}
	markets := make([]string, 0, len(names))
	for m := range names {
		markets = append(markets, m)
	}
	sort.Strings(markets)

	var tickers []upbitTicker
	joined := ""
	for i, m := range markets {
		if i > 0 {
			joined += ","
		}
		joined += m
	}
	endpoint := u.BaseURL + "/ticker?markets=" + url.QueryEscape(joined)
	if err := u.getJSON(ctx, endpoint, &tickers); err != nil {
		return nil, err
	}

	coins := make([]model.Coin, 0, len(tickers))
	for _, t := range tickers {
		symbol := t.Market
		if len(symbol) > 4 {
			symbol = symbol[4:] // strip "KRW-"
		}
		coins = append(coins, model.Coin{
			Market:    t.Market,
			Symbol:    symbol,
			Name:      names[t.Market],
			Price:     t.TradePrice,
			Change24h: t.SignedChangeRate * 100,
			Volume24h: t.AccTradePrice24h,
		})
	}
	return coins, nil
}

type upbitCandle struct {
	DateTimeKST string  `json:"candle_date_time_kst"`
	Open        float64 `json:"opening_price"`
	High        float64 `json:"high_price"`
	Low         float64 `json:"low_price"`
	Close       float64 `json:"trade_price"`
	Volume      float64 `json:"candle_acc_trade_volume"`
}

// FetchDailyBars returns daily candles for one market, ascending by time.
func (u *UpbitClient) FetchDailyBars(ctx context.Context, market string, count int) ([]model.PriceBar, error) {
	key := fmt.Sprintf("upbit:candles:%s:%d", market, count)
	if u.cache != nil {
		if cached, ok := u.cache.Get(key); ok {
			return cached.([]model.PriceBar), nil
		}
	}
	endpoint := fmt.Sprintf("%s/candles/days?market=%s&count=%d", u.BaseURL, url.QueryEscape(market), count)
	var candles []upbitCandle
	if err := u.getJSON(ctx, endpoint, &candles); err != nil {
		return nil, err
	}

	kst := time.FixedZone("KST", 9*3600)
	bars := make([]model.PriceBar, 0, len(candles))
	for _, c := range candles {
		ts, err := time.ParseInLocation("2006-01-02T15:04:05", c.DateTimeKST, kst)
		if err != nil {
			continue
		}
		bars = append(bars, model.PriceBar{
			Time:   ts,
			Open:   c.Open,
			High:   c.High,
			Low:    c.Low,
			Close:  c.Close,
			Volume: c.Volume,
		})
	}
	// Upbit returns newest-first.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if u.cache != nil {
		u.cache.Set(key, bars, cache.DefaultExpiration)
	}
	return bars, nil
}
