package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yahooChartFixture = `{
  "chart": {
    "result": [{
      "timestamp": [1700000000, 1700086400, 1700172800],
      "indicators": {
        "quote": [{
          "open":   [100.0, null, 104.0],
          "high":   [105.0, null, 108.0],
          "low":    [ 99.0, null, 103.0],
          "close":  [102.0, null, 107.0],
          "volume": [1000,  null, 2000]
        }]
      }
    }],
    "error": null
  }
}`

func TestYahooFetchDailyBars(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(yahooChartFixture))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "", nil)
	bars, err := f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)

	// The null bar is a holiday and gets dropped.
	require.Len(t, bars, 2)
	assert.Equal(t, 102.0, bars[0].Close)
	assert.Equal(t, 107.0, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
}

func TestYahooSymbolMapping(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(yahooChartFixture))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "", nil)
	_, err := f.FetchDailyBars(context.Background(), "KOSPI", 10)
	require.NoError(t, err)
	assert.Contains(t, gotPath, "KS11")
}

func TestYahooAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "", nil)
	_, err := f.FetchDailyBars(context.Background(), "NOPE", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooCacheMemoizes(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Write([]byte(yahooChartFixture))
	}))
	defer srv.Close()

	f := NewYahooFetcher(srv.URL, "", cache.New(time.Minute, time.Minute))
	_, err := f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	_, err = f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestUpbitFetchDailyBars(t *testing.T) {
	// Upbit returns newest-first; bars must come back ascending.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
  {"candle_date_time_kst":"2025-01-03T09:00:00","opening_price":105,"high_price":110,"low_price":104,"trade_price":108,"candle_acc_trade_volume":20},
  {"candle_date_time_kst":"2025-01-02T09:00:00","opening_price":100,"high_price":106,"low_price":99,"trade_price":105,"candle_acc_trade_volume":10}
]`))
	}))
	defer srv.Close()

	u := NewUpbitClient(srv.URL, nil)
	bars, err := u.FetchDailyBars(context.Background(), "KRW-BTC", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 105.0, bars[0].Close)
	assert.Equal(t, 108.0, bars[1].Close)
}

func TestUpbitKRWMarketsFiltersQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
  {"market":"KRW-BTC","korean_name":"비트코인","english_name":"Bitcoin"},
  {"market":"BTC-ETH","korean_name":"이더리움","english_name":"Ethereum"},
  {"market":"KRW-XRP","korean_name":"리플","english_name":"Ripple"}
]`))
	}))
	defer srv.Close()

	u := NewUpbitClient(srv.URL, nil)
	names, err := u.KRWMarkets(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 2)
	assert.Equal(t, "비트코인", names["KRW-BTC"])
	assert.NotContains(t, names, "BTC-ETH")
}

func newBinanceTestServer(t *testing.T, tickers, klines string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			w.Write([]byte(`{}`))
		case strings.HasSuffix(r.URL.Path, "/ticker/24hr"):
			w.Write([]byte(tickers))
		case strings.HasSuffix(r.URL.Path, "/klines"):
			w.Write([]byte(klines))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBinanceTickers(t *testing.T) {
	srv := newBinanceTestServer(t, `[
  {"symbol":"BTCUSDT","lastPrice":"50000.50","priceChangePercent":"2.5","quoteVolume":"1000000"},
  {"symbol":"ETHBTC","lastPrice":"0.05","priceChangePercent":"1.0","quoteVolume":"500"},
  {"symbol":"BTCUPUSDT","lastPrice":"12.0","priceChangePercent":"5.0","quoteVolume":"100"},
  {"symbol":"DEADUSDT","lastPrice":"0","priceChangePercent":"0","quoteVolume":"0"}
]`, `[]`)

	b := NewBinanceClient([]string{srv.URL}, nil)
	coins, err := b.Tickers(context.Background())
	require.NoError(t, err)

	// Non-USDT, leveraged, and zero-price markets are all skipped.
	require.Len(t, coins, 1)
	assert.Equal(t, "BTC", coins[0].Symbol)
	assert.Equal(t, 50000.50, coins[0].Price)
	assert.Equal(t, 2.5, coins[0].Change24h)
}

func TestBinanceKlines(t *testing.T) {
	srv := newBinanceTestServer(t, `[]`, `[
  [1700086400000, "104.0", "108.0", "103.0", "107.0", "2000", 0],
  [1700000000000, "100.0", "105.0", "99.0", "102.0", "1000", 0]
]`)

	b := NewBinanceClient([]string{srv.URL}, nil)
	bars, err := b.FetchDailyBars(context.Background(), "BTCUSDT", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 102.0, bars[0].Close)
	assert.Equal(t, 107.0, bars[1].Close)
	assert.Equal(t, 2000.0, bars[1].Volume)
}

func TestIsLeveraged(t *testing.T) {
	assert.True(t, isLeveraged("BTCUP"))
	assert.True(t, isLeveraged("ETHDOWN"))
	assert.True(t, isLeveraged("ADABULL"))
	assert.False(t, isLeveraged("BTC"))
	assert.False(t, isLeveraged("UP"))
	assert.False(t, isLeveraged("SUSHI"))
}

const dataromaManagersFixture = `<html><body><table id="grid">
<tr><th>Manager</th><th>Holdings</th><th>Date</th></tr>
<tr><td><a href="holdings.php?m=BRK">Warren Buffett - Berkshire Hathaway</a></td><td>45</td><td>2025-06-30</td></tr>
<tr><td><a href="holdings.php?m=AKRE">Chuck Akre - Akre Capital</a></td><td>20</td><td>2025-06-30</td></tr>
</table></body></html>`

func TestDataromaInvestors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(dataromaManagersFixture))
	}))
	defer srv.Close()

	d := NewDataromaClient(srv.URL, "test-agent", nil)
	investors, err := d.Investors(context.Background())
	require.NoError(t, err)
	require.Len(t, investors, 2)
	assert.Equal(t, "BRK", investors[0].ID)
	assert.Equal(t, 45, investors[0].NumHoldings)
	assert.Equal(t, "2025-06-30", investors[0].PortfolioDate)
	assert.Equal(t, "AKRE", investors[1].ID)
}

const dataromaHoldingsFixture = `<html><body><table id="grid">
<tr><th></th><th>Stock</th><th>%</th><th>Activity</th><th>Shares</th><th>Price</th><th>Value</th></tr>
<tr><td>1</td><td><a href="stock.php?sym=AAPL">AAPL - Apple Inc.</a></td><td>40.5%</td><td>Reduce 2.5%</td><td>905,560,000</td><td>$195.50</td><td>177,000,000</td></tr>
<tr><td>2</td><td><a href="stock.php?sym=KO">KO - Coca-Cola Co.</a></td><td>8.2%</td><td></td><td>400,000,000</td><td>$60.10</td><td>24,000,000</td></tr>
</table></body></html>`

func TestDataromaPortfolio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(dataromaHoldingsFixture))
	}))
	defer srv.Close()

	d := NewDataromaClient(srv.URL, "test-agent", nil)
	snap, err := d.Portfolio(context.Background(), "BRK")
	require.NoError(t, err)

	assert.Equal(t, "BRK", snap.InvestorID)
	require.Len(t, snap.Holdings, 2)

	h := snap.Holdings[0]
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, "Apple Inc.", h.Company)
	assert.InDelta(t, 40.5, h.PortfolioPct, 1e-9)
	assert.Equal(t, "Reduce 2.5%", h.Activity)
	assert.Equal(t, int64(905560000), h.Shares)
	assert.InDelta(t, 195.50, h.ReportedPrice, 1e-9)
	assert.InDelta(t, 177e9, h.Value, 1e-3) // reported in $1000s
}

func TestDataromaPortfolioEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	defer srv.Close()

	d := NewDataromaClient(srv.URL, "test-agent", nil)
	_, err := d.Portfolio(context.Background(), "BRK")
	assert.Error(t, err)
}

const krxFlowFixture = `<html><body><table class="type_2">
<tr><th>#</th><th>Name</th><th>Net Buy</th></tr>
<tr><td>1</td><td><a href="/item/main.naver?code=005930">삼성전자</a></td><td>1,234</td></tr>
<tr><td>2</td><td><a href="/item/main.naver?code=000660&page=1">SK하이닉스</a></td><td>987</td></tr>
</table></body></html>`

func TestKRXForeignNetBuying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(krxFlowFixture))
	}))
	defer srv.Close()

	k := NewKRXClient(srv.URL, "test-agent", nil)
	entries, err := k.ForeignNetBuying(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "005930", entries[0].Symbol)
	assert.Equal(t, "삼성전자", entries[0].Name)
	assert.InDelta(t, 1.234e9, entries[0].NetBuyValue, 1e-3)
	assert.Equal(t, "000660", entries[1].Symbol)
}

const krxShortFixture = `<html><body><table class="type_2">
<tr><th>#</th><th>Name</th><th>Volume</th><th>Ratio</th></tr>
<tr><td>1</td><td><a href="/item/main.naver?code=035720">카카오</a></td><td>500,000</td><td>18.42</td></tr>
</table></body></html>`

func TestKRXShortInterest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(krxShortFixture))
	}))
	defer srv.Close()

	k := NewKRXClient(srv.URL, "test-agent", nil)
	entries, err := k.ShortInterest(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "035720", entries[0].Symbol)
	assert.InDelta(t, 18.42, entries[0].ShortRatio, 1e-9)
}

func TestNewsHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>
<dl>
<dd class="articleSubject"><a href="/1">코스피 신고가 경신</a></dd>
<dd class="articleSubject"><a href="/2">반도체 급등</a></dd>
<dd class="articleSubject"><a href="/3">환율 하락</a></dd>
</dl>
</body></html>`))
	}))
	defer srv.Close()

	n := NewNewsFetcher(srv.URL, "test-agent", nil)
	headlines, err := n.Headlines(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, headlines, 2)
	assert.Equal(t, "코스피 신고가 경신", headlines[0])
}

func TestCurrentQuarter(t *testing.T) {
	cases := []struct {
		month time.Month
		want  string
	}{
		{time.January, "2025Q1"},
		{time.March, "2025Q1"},
		{time.April, "2025Q2"},
		{time.September, "2025Q3"},
		{time.December, "2025Q4"},
	}
	for _, tc := range cases {
		got := CurrentQuarter(time.Date(2025, tc.month, 15, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, tc.want, got, "month %v", tc.month)
	}
}

func TestParseFloat(t *testing.T) {
	assert.Equal(t, 1234.5, parseFloat("1,234.5"))
	assert.Equal(t, 195.5, parseFloat("$195.50"))
	assert.Equal(t, 40.5, parseFloat("40.5%"))
	assert.Equal(t, 0.0, parseFloat("n/a"))
	assert.Equal(t, 0.0, parseFloat(""))
}

func TestSplitSymbolCompany(t *testing.T) {
	sym, co := splitSymbolCompany("AAPL - Apple Inc.")
	assert.Equal(t, "AAPL", sym)
	assert.Equal(t, "Apple Inc.", co)

	sym, co = splitSymbolCompany("BRK.B")
	assert.Equal(t, "BRK.B", sym)
	assert.Empty(t, co)
}

func TestIDFromHref(t *testing.T) {
	assert.Equal(t, "BRK", idFromHref("holdings.php?m=BRK"))
	assert.Empty(t, idFromHref("holdings.php"))
}

func TestSymbolFromHref(t *testing.T) {
	assert.Equal(t, "005930", symbolFromHref("/item/main.naver?code=005930"))
	assert.Equal(t, "000660", symbolFromHref("/item/main.naver?code=000660&page=1"))
	assert.Empty(t, symbolFromHref("/item/main.naver"))
}

func TestPadCIK(t *testing.T) {
	assert.Equal(t, "0001067983", padCIK("1067983"))
	assert.Equal(t, "0000000001", padCIK("1"))
	assert.Equal(t, "1234567890", padCIK("1234567890"))
}

func TestGenerateMockBars(t *testing.T) {
	bars := GenerateMockBars(100, 30)
	require.Len(t, bars, 30)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i-1].Time.Before(bars[i].Time))
		assert.Greater(t, bars[i].Close, 0.0)
	}
}
