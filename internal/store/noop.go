package store

import (
	"database/sql"

	"MarketCompass/internal/model"
)

// NoopStore is a no-op implementation used when SQLite is not configured.
// Reads behave like an empty database.
type NoopStore struct{}

var _ Store = (*NoopStore)(nil)

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) SavePortfolio(_ *model.PortfolioSnapshot) error { return nil }

func (n *NoopStore) GetPortfolio(_, _ string) (*model.PortfolioSnapshot, error) {
	return nil, sql.ErrNoRows
}

func (n *NoopStore) GetLatestPortfolio(_ string) (*model.PortfolioSnapshot, error) {
	return nil, sql.ErrNoRows
}

func (n *NoopStore) GetQuarters(_ string) ([]string, error) { return nil, nil }
func (n *NoopStore) GetInvestorIDs() ([]string, error)      { return nil, nil }
func (n *NoopStore) SeenFiling(_ string) (bool, error)      { return false, nil }
func (n *NoopStore) MarkFiling(_ string) error              { return nil }
func (n *NoopStore) Close() error                           { return nil }
