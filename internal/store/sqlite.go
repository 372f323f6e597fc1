package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"MarketCompass/internal/model"
)

// SQLiteStore caches portfolio snapshots in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboard reads
	// while the scheduler writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS portfolio_snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			investor_id    TEXT NOT NULL,
			quarter        TEXT NOT NULL,
			fetched_at     INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			company        TEXT,
			shares         INTEGER,
			value          REAL,
			portfolio_pct  REAL,
			reported_price REAL,
			activity       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_inv_q ON portfolio_snapshots(investor_id, quarter)`,

		`CREATE TABLE IF NOT EXISTS seen_filings (
			accession_no TEXT PRIMARY KEY,
			seen_at      INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// SavePortfolio replaces the (investor, quarter) slice: delete the old
// rows, insert the new ones. One logical write; nothing stronger needed
// for a cache.
func (s *SQLiteStore) SavePortfolio(snap *model.PortfolioSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(
		`DELETE FROM portfolio_snapshots WHERE investor_id = ? AND quarter = ?`,
		snap.InvestorID, snap.Quarter,
	); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}

	fetchedAt := snap.FetchedAt.Unix()
	for _, h := range snap.Holdings {
		if _, err := s.db.Exec(`INSERT INTO portfolio_snapshots
			(investor_id, quarter, fetched_at, symbol, company, shares, value, portfolio_pct, reported_price, activity)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			snap.InvestorID, snap.Quarter, fetchedAt,
			h.Symbol, h.Company, h.Shares, h.Value, h.PortfolioPct, h.ReportedPrice, h.Activity,
		); err != nil {
			return fmt.Errorf("insert holding %s: %w", h.Symbol, err)
		}
	}
	return nil
}

// GetPortfolio loads one (investor, quarter) snapshot. sql.ErrNoRows when
// absent.
func (s *SQLiteStore) GetPortfolio(investorID, quarter string) (*model.PortfolioSnapshot, error) {
	rows, err := s.db.Query(`SELECT fetched_at, symbol, company, shares, value, portfolio_pct, reported_price, activity
		FROM portfolio_snapshots WHERE investor_id = ? AND quarter = ? ORDER BY value DESC`,
		investorID, quarter)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	snap := &model.PortfolioSnapshot{InvestorID: investorID, Quarter: quarter}
	for rows.Next() {
		var h model.Holding
		var fetchedAt int64
		if err := rows.Scan(&fetchedAt, &h.Symbol, &h.Company, &h.Shares, &h.Value, &h.PortfolioPct, &h.ReportedPrice, &h.Activity); err != nil {
			return nil, fmt.Errorf("scan holding: %w", err)
		}
		snap.FetchedAt = time.Unix(fetchedAt, 0)
		snap.Holdings = append(snap.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snap.Holdings) == 0 {
		return nil, sql.ErrNoRows
	}
	return snap, nil
}

// GetLatestPortfolio loads the most recent quarter for an investor.
func (s *SQLiteStore) GetLatestPortfolio(investorID string) (*model.PortfolioSnapshot, error) {
	quarters, err := s.GetQuarters(investorID)
	if err != nil {
		return nil, err
	}
	if len(quarters) == 0 {
		return nil, sql.ErrNoRows
	}
	return s.GetPortfolio(investorID, quarters[0])
}

// GetQuarters returns the stored quarters for an investor, newest first.
func (s *SQLiteStore) GetQuarters(investorID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT quarter FROM portfolio_snapshots WHERE investor_id = ? ORDER BY quarter DESC`,
		investorID)
	if err != nil {
		return nil, fmt.Errorf("query quarters: %w", err)
	}
	defer rows.Close()

	var quarters []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		quarters = append(quarters, q)
	}
	return quarters, rows.Err()
}

// GetInvestorIDs returns every investor with at least one stored snapshot.
func (s *SQLiteStore) GetInvestorIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT investor_id FROM portfolio_snapshots ORDER BY investor_id`)
	if err != nil {
		return nil, fmt.Errorf("query investors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SeenFiling reports whether an accession number was already alerted on.
func (s *SQLiteStore) SeenFiling(accessionNo string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM seen_filings WHERE accession_no = ?`, accessionNo).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query filing: %w", err)
	}
	return count > 0, nil
}

// MarkFiling records an accession number as alerted.
func (s *SQLiteStore) MarkFiling(accessionNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO seen_filings (accession_no, seen_at) VALUES (?, ?)`,
		accessionNo, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("mark filing: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Info("closing sqlite store")
	return s.db.Close()
}
