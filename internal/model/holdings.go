package model

import "time"

// Holding is one reported 13F position.
type Holding struct {
	Symbol        string  `json:"symbol" csv:"symbol"`
	Company       string  `json:"company" csv:"company"`
	Shares        int64   `json:"shares" csv:"shares"`
	Value         float64 `json:"value" csv:"value"`
	PortfolioPct  float64 `json:"portfolio_pct" csv:"portfolio_pct"`
	ReportedPrice float64 `json:"reported_price" csv:"reported_price"`
	Activity      string  `json:"activity" csv:"activity"` // e.g. "Buy", "Add 12%", "Reduce 5%"
}

// PortfolioSnapshot is one investor's holdings for one quarter.
// The only persisted entity; save replaces the (investor, quarter) slice.
type PortfolioSnapshot struct {
	InvestorID string    `json:"investor_id"`
	Quarter    string    `json:"quarter"` // e.g. "2025Q2"
	FetchedAt  time.Time `json:"fetched_at"`
	Holdings   []Holding `json:"holdings"`
}

// ChangeKind classifies a quarter-over-quarter position change.
type ChangeKind string

const (
	ChangeNew      ChangeKind = "NEW"
	ChangeExit     ChangeKind = "EXIT"
	ChangeIncrease ChangeKind = "INCREASE"
	ChangeDecrease ChangeKind = "DECREASE"
)

// PositionChange is one diffed position between two quarters.
type PositionChange struct {
	Symbol     string     `json:"symbol"`
	Company    string     `json:"company"`
	Kind       ChangeKind `json:"kind"`
	PrevShares int64      `json:"prev_shares"`
	CurrShares int64      `json:"curr_shares"`
	PrevPct    float64    `json:"prev_pct"`
	CurrPct    float64    `json:"curr_pct"`
	DeltaPct   float64    `json:"delta_pct"`
}

// Investor is one money manager tracked on Dataroma.
type Investor struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	NumHoldings   int     `json:"num_holdings"`
	PortfolioDate string  `json:"portfolio_date"`
	Value         float64 `json:"value,omitempty"`
}

// Filing is one SEC EDGAR 13F filing reference.
type Filing struct {
	AccessionNo string `json:"accession_no"`
	CIK         string `json:"cik"`
	CompanyName string `json:"company_name"`
	FormType    string `json:"form_type"`
	FiledAt     string `json:"filed_at"` // YYYY-MM-DD
}
