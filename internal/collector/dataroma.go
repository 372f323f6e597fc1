package collector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"

	"MarketCompass/internal/model"
)

// DataromaClient scrapes super-investor 13F portfolios from dataroma.com
// HTML tables. The page shape is not guaranteed; rows that fail to parse
// are skipped silently.
type DataromaClient struct {
	BaseURL      string
	UserAgent    string
	Client       *http.Client
	cache        *cache.Cache
	RequestDelay time.Duration // polite pause between page fetches
}

func NewDataromaClient(baseURL, userAgent string, c *cache.Cache) *DataromaClient {
	if baseURL == "" {
		baseURL = "https://www.dataroma.com/m"
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; MarketCompass/1.0)"
	}
	return &DataromaClient{
		BaseURL:      baseURL,
		UserAgent:    userAgent,
		Client:       newHTTPClient("", 30*time.Second),
		cache:        c,
		RequestDelay: 500 * time.Millisecond,
	}
}

func (d *DataromaClient) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.UserAgent)
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dataroma fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataroma: status %d for %s", resp.StatusCode, url)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dataroma parse: %w", err)
	}
	return doc, nil
}

// Investors scrapes the manager list.
func (d *DataromaClient) Investors(ctx context.Context) ([]model.Investor, error) {
	const key = "dataroma:investors"
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			return cached.([]model.Investor), nil
		}
	}
	doc, err := d.getDocument(ctx, d.BaseURL+"/managers.php")
	if err != nil {
		return nil, err
	}

	var investors []model.Investor
	doc.Find("table#grid tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return // header
		}
		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}
		link := cols.Eq(0).Find("a")
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		id := idFromHref(href)
		if id == "" {
			return
		}
		investors = append(investors, model.Investor{
			ID:            id,
			Name:          strings.TrimSpace(link.Text()),
			NumHoldings:   parseInt(cols.Eq(1).Text()),
			PortfolioDate: strings.TrimSpace(cols.Eq(2).Text()),
		})
	})
	if len(investors) == 0 {
		return nil, fmt.Errorf("dataroma: no investors parsed (page shape changed?)")
	}
	if d.cache != nil {
		d.cache.Set(key, investors, cache.DefaultExpiration)
	}
	return investors, nil
}

// Portfolio scrapes one manager's current holdings.
func (d *DataromaClient) Portfolio(ctx context.Context, investorID string) (*model.PortfolioSnapshot, error) {
	key := "dataroma:portfolio:" + investorID
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			return cached.(*model.PortfolioSnapshot), nil
		}
	}
	doc, err := d.getDocument(ctx, fmt.Sprintf("%s/holdings.php?m=%s", d.BaseURL, investorID))
	if err != nil {
		return nil, err
	}

	var holdings []model.Holding
	doc.Find("table#grid tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 7 {
			return
		}
		stockCell := cols.Eq(1)
		link := stockCell.Find("a")
		text := strings.TrimSpace(link.Text())
		symbol, company := splitSymbolCompany(text)
		if symbol == "" {
			return
		}
		holdings = append(holdings, model.Holding{
			Symbol:        symbol,
			Company:       company,
			PortfolioPct:  parseFloat(cols.Eq(2).Text()),
			Activity:      strings.TrimSpace(cols.Eq(3).Text()),
			Shares:        int64(parseInt(cols.Eq(4).Text())),
			ReportedPrice: parseFloat(cols.Eq(5).Text()),
			Value:         parseFloat(cols.Eq(6).Text()) * 1000, // reported in $1000s
		})
	})
	if len(holdings) == 0 {
		return nil, fmt.Errorf("dataroma: no holdings parsed for %s", investorID)
	}

	snap := &model.PortfolioSnapshot{
		InvestorID: investorID,
		Quarter:    CurrentQuarter(time.Now()),
		FetchedAt:  time.Now(),
		Holdings:   holdings,
	}
	if d.cache != nil {
		d.cache.Set(key, snap, cache.DefaultExpiration)
	}
	return snap, nil
}

// GrandPortfolio scrapes the aggregated ownership page: every symbol with
// the number of managers holding it.
func (d *DataromaClient) GrandPortfolio(ctx context.Context) ([]GrandEntry, error) {
	const key = "dataroma:grand"
	if d.cache != nil {
		if cached, ok := d.cache.Get(key); ok {
			return cached.([]GrandEntry), nil
		}
	}
	doc, err := d.getDocument(ctx, d.BaseURL+"/g/portfolio.php")
	if err != nil {
		return nil, err
	}

	var entries []GrandEntry
	doc.Find("table#grid tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 5 {
			return
		}
		stockCell := cols.Eq(0)
		symbol := strings.TrimSpace(stockCell.Find("span.sym").Text())
		name := strings.TrimSpace(stockCell.Find("a").Text())
		if symbol == "" {
			symbol, name = splitSymbolCompany(name)
		}
		if symbol == "" {
			return
		}
		entries = append(entries, GrandEntry{
			Symbol:       symbol,
			Company:      name,
			NumOwners:    parseInt(cols.Eq(1).Text()),
			PortfolioPct: parseFloat(cols.Eq(2).Text()),
			HoldPrice:    parseFloat(cols.Eq(3).Text()),
			CurrentPrice: parseFloat(cols.Eq(4).Text()),
		})
	})
	if len(entries) == 0 {
		return nil, fmt.Errorf("dataroma: no grand portfolio rows parsed")
	}
	if d.cache != nil {
		d.cache.Set(key, entries, cache.DefaultExpiration)
	}
	return entries, nil
}

// GrandEntry is one row of the aggregated ownership page.
type GrandEntry struct {
	Symbol       string  `json:"symbol"`
	Company      string  `json:"company"`
	NumOwners    int     `json:"num_owners"`
	PortfolioPct float64 `json:"portfolio_pct"`
	HoldPrice    float64 `json:"hold_price"`
	CurrentPrice float64 `json:"current_price"`
}

// CurrentQuarter formats t as a quarter label like "2025Q3".
func CurrentQuarter(t time.Time) string {
	return fmt.Sprintf("%dQ%d", t.Year(), (int(t.Month())-1)/3+1)
}

func idFromHref(href string) string {
	// holdings.php?m=BRK
	if idx := strings.Index(href, "m="); idx >= 0 {
		return href[idx+2:]
	}
	return ""
}

// splitSymbolCompany splits "AAPL - Apple Inc." into its parts.
func splitSymbolCompany(text string) (symbol, company string) {
	parts := strings.SplitN(text, " - ", 2)
	symbol = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		company = strings.TrimSpace(parts[1])
	}
	return symbol, company
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "$", "", "%", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int {
	return int(parseFloat(s))
}
