package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"

	"MarketCompass/internal/model"
)

// KRXClient scrapes Korean-exchange order-flow data (foreign/institution
// net-buying rankings and short-selling ratios) from public ranking pages.
// Like every scraper here, the page shape can change silently; unparseable
// rows are dropped.
type KRXClient struct {
	BaseURL      string
	UserAgent    string
	Client       *http.Client
	cache        *cache.Cache
	RequestDelay time.Duration
}

func NewKRXClient(baseURL, userAgent string, c *cache.Cache) *KRXClient {
	if baseURL == "" {
		baseURL = "https://finance.naver.com/sise"
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; MarketCompass/1.0)"
	}
	return &KRXClient{
		BaseURL:      baseURL,
		UserAgent:    userAgent,
		Client:       newHTTPClient("", 30*time.Second),
		cache:        c,
		RequestDelay: 500 * time.Millisecond,
	}
}

func (k *KRXClient) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", k.UserAgent)
	resp, err := k.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("krx fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("krx: status %d for %s", resp.StatusCode, url)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("krx parse: %w", err)
	}
	return doc, nil
}

// scrapeFlowTable parses a net-buying ranking table: rank, name (with the
// symbol in the row link), net buy value in millions of KRW.
func (k *KRXClient) scrapeFlowTable(ctx context.Context, url string, topN int) ([]model.FlowEntry, error) {
	doc, err := k.getDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	var entries []model.FlowEntry
	doc.Find("table.type_2 tr").Each(func(_ int, row *goquery.Selection) {
		if len(entries) >= topN {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 3 {
			return
		}
		link := cols.Eq(1).Find("a")
		name := strings.TrimSpace(link.Text())
		if name == "" {
			return
		}
		href, _ := link.Attr("href")
		symbol := symbolFromHref(href)
		entries = append(entries, model.FlowEntry{
			Rank:        len(entries) + 1,
			Symbol:      symbol,
			Name:        name,
			NetBuyValue: parseFloat(cols.Eq(2).Text()) * 1e6,
		})
	})
	if len(entries) == 0 {
		return nil, fmt.Errorf("krx: no flow rows parsed (page shape changed?)")
	}
	return entries, nil
}

// ForeignNetBuying returns the foreign-investor net-buying ranking.
func (k *KRXClient) ForeignNetBuying(ctx context.Context, topN int) ([]model.FlowEntry, error) {
	const key = "krx:foreign"
	if k.cache != nil {
		if cached, ok := k.cache.Get(key); ok {
			return cached.([]model.FlowEntry), nil
		}
	}
	entries, err := k.scrapeFlowTable(ctx, k.BaseURL+"/sise_deal_rank.naver?investor_gubun=9000", topN)
	if err != nil {
		return nil, err
	}
	if k.cache != nil {
		k.cache.Set(key, entries, cache.DefaultExpiration)
	}
	return entries, nil
}

// InstitutionNetBuying returns the institutional net-buying ranking.
func (k *KRXClient) InstitutionNetBuying(ctx context.Context, topN int) ([]model.FlowEntry, error) {
	const key = "krx:institution"
	if k.cache != nil {
		if cached, ok := k.cache.Get(key); ok {
			return cached.([]model.FlowEntry), nil
		}
	}
	entries, err := k.scrapeFlowTable(ctx, k.BaseURL+"/sise_deal_rank.naver?investor_gubun=1000", topN)
	if err != nil {
		return nil, err
	}
	if k.cache != nil {
		k.cache.Set(key, entries, cache.DefaultExpiration)
	}
	return entries, nil
}

// ShortInterest returns short-selling ratios for the ranking page.
func (k *KRXClient) ShortInterest(ctx context.Context, topN int) ([]model.ShortInterest, error) {
	const key = "krx:short"
	if k.cache != nil {
		if cached, ok := k.cache.Get(key); ok {
			return cached.([]model.ShortInterest), nil
		}
	}
	doc, err := k.getDocument(ctx, k.BaseURL+"/sise_short.naver")
	if err != nil {
		return nil, err
	}

	var entries []model.ShortInterest
	doc.Find("table.type_2 tr").Each(func(_ int, row *goquery.Selection) {
		if len(entries) >= topN {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 4 {
			return
		}
		link := cols.Eq(1).Find("a")
		name := strings.TrimSpace(link.Text())
		if name == "" {
			return
		}
		href, _ := link.Attr("href")
		entries = append(entries, model.ShortInterest{
			Symbol:     symbolFromHref(href),
			Name:       name,
			ShortRatio: parseFloat(cols.Eq(3).Text()),
		})
	})
	if len(entries) == 0 {
		return nil, fmt.Errorf("krx: no short interest rows parsed")
	}
	if k.cache != nil {
		k.cache.Set(key, entries, cache.DefaultExpiration)
	}
	return entries, nil
}

func symbolFromHref(href string) string {
	if idx := strings.Index(href, "code="); idx >= 0 {
		code := href[idx+5:]
		if amp := strings.IndexByte(code, '&'); amp >= 0 {
			code = code[:amp]
		}
		return code
	}
	return ""
}
