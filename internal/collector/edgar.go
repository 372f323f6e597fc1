package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"MarketCompass/internal/model"
)

// EDGARClient reads recent filings from the SEC EDGAR submissions API.
type EDGARClient struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

// NewEDGARClient creates a client. The SEC requires a descriptive
// User-Agent on all automated requests.
func NewEDGARClient(baseURL, userAgent string) *EDGARClient {
	if baseURL == "" {
		baseURL = "https://data.sec.gov"
	}
	if userAgent == "" {
		userAgent = "MarketCompass/1.0 (research use)"
	}
	return &EDGARClient{
		BaseURL:   baseURL,
		UserAgent: userAgent,
		Client:    newHTTPClient("", 30*time.Second),
	}
}

// edgarSubmissions mirrors the column-oriented recent-filings payload.
type edgarSubmissions struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			AccessionNumber []string `json:"accessionNumber"`
		} `json:"recent"`
	} `json:"filings"`
}

// Recent13F returns the most recent 13F filings for a CIK, newest first.
func (e *EDGARClient) Recent13F(ctx context.Context, cik string, limit int) ([]model.Filing, error) {
	padded := padCIK(cik)
	url := fmt.Sprintf("%s/submissions/CIK%s.json", e.BaseURL, padded)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edgar fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edgar: status %d for CIK %s", resp.StatusCode, cik)
	}

	var subs edgarSubmissions
	if err := json.NewDecoder(resp.Body).Decode(&subs); err != nil {
		return nil, fmt.Errorf("edgar decode: %w", err)
	}

	recent := subs.Filings.Recent
	var filings []model.Filing
	for i, form := range recent.Form {
		if !strings.Contains(form, "13F") {
			continue
		}
		f := model.Filing{
			CIK:         cik,
			CompanyName: subs.Name,
			FormType:    form,
		}
		if i < len(recent.FilingDate) {
			f.FiledAt = recent.FilingDate[i]
		}
		if i < len(recent.AccessionNumber) {
			f.AccessionNo = recent.AccessionNumber[i]
		}
		filings = append(filings, f)
		if len(filings) >= limit {
			break
		}
	}
	return filings, nil
}

// padCIK left-pads a CIK to the 10 digits the submissions API expects.
func padCIK(cik string) string {
	cik = strings.TrimLeft(cik, "0")
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}
