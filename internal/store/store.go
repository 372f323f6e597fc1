package store

import "MarketCompass/internal/model"

// Store caches portfolio snapshots and tracks which filings have already
// been alerted on.
type Store interface {
	SavePortfolio(snap *model.PortfolioSnapshot) error
	GetPortfolio(investorID, quarter string) (*model.PortfolioSnapshot, error)
	GetLatestPortfolio(investorID string) (*model.PortfolioSnapshot, error)
	GetQuarters(investorID string) ([]string, error)
	GetInvestorIDs() ([]string, error)
	SeenFiling(accessionNo string) (bool, error)
	MarkFiling(accessionNo string) error
	Close() error
}
