package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
)

// NewsFetcher scrapes financial news headlines for keyword sentiment
// scoring. Headlines only; article bodies are never fetched.
type NewsFetcher struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	cache     *cache.Cache
}

func NewNewsFetcher(baseURL, userAgent string, c *cache.Cache) *NewsFetcher {
	if baseURL == "" {
		baseURL = "https://finance.naver.com/news/mainnews.naver"
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; MarketCompass/1.0)"
	}
	return &NewsFetcher{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    newHTTPClient("", 30*time.Second),
		cache:     c,
	}
}

// Headlines fetches up to limit headline strings.
func (n *NewsFetcher) Headlines(ctx context.Context, limit int) ([]string, error) {
	const key = "news:headlines"
	if n.cache != nil {
		if cached, ok := n.cache.Get(key); ok {
			return cached.([]string), nil
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.UserAgent)
	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news: status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("news parse: %w", err)
	}

	var headlines []string
	doc.Find("dd.articleSubject a, dt.articleSubject a, .mainNewsList a").Each(func(_ int, s *goquery.Selection) {
		if len(headlines) >= limit {
			return
		}
		text := strings.TrimSpace(s.Text())
		if text != "" {
			headlines = append(headlines, text)
		}
	})
	if len(headlines) == 0 {
		return nil, fmt.Errorf("news: no headlines parsed (page shape changed?)")
	}
	if n.cache != nil {
		n.cache.Set(key, headlines, cache.DefaultExpiration)
	}
	return headlines, nil
}
