package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketCompass/internal/collector"
	"MarketCompass/internal/levels"
	"MarketCompass/internal/model"
	"MarketCompass/internal/notifier"
	"MarketCompass/internal/store"
	"MarketCompass/internal/watch"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "sched.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	wm, err := watch.NewManager(filepath.Join(t.TempDir(), "watch.json"), []string{"BRK"}, nil)
	require.NoError(t, err)

	s := New(context.Background())
	s.Store = st
	s.Watch = wm
	s.Fetcher = &collector.MockFetcher{Price: 100}
	s.Notifier = notifier.NoopNotifier{}
	s.Params = levels.DefaultParams()
	return s
}

func seedStore(t *testing.T, st store.Store) {
	t.Helper()
	require.NoError(t, st.SavePortfolio(&model.PortfolioSnapshot{
		InvestorID: "BRK", Quarter: "2025Q2", FetchedAt: time.Now(),
		Holdings: []model.Holding{
			{Symbol: "AAPL", Company: "Apple", Shares: 100, PortfolioPct: 40, Value: 100},
			{Symbol: "KO", Company: "Coca-Cola", Shares: 50, PortfolioPct: 5, Value: 50},
		},
	}))
	require.NoError(t, st.SavePortfolio(&model.PortfolioSnapshot{
		InvestorID: "AKRE", Quarter: "2025Q2", FetchedAt: time.Now(),
		Holdings: []model.Holding{
			{Symbol: "AAPL", Company: "Apple", Shares: 10, PortfolioPct: 12, Value: 10},
		},
	}))
}

func TestHandleCommandHelp(t *testing.T) {
	s := newTestScheduler(t)

	for _, cmd := range []string{"/start", "/help", "/bogus", "", "just text"} {
		reply := s.HandleCommand(cmd)
		assert.Contains(t, reply, "MarketCompass Commands", "command %q", cmd)
	}
}

func TestHandleCommandUsage(t *testing.T) {
	s := newTestScheduler(t)

	assert.Contains(t, s.HandleCommand("/portfolio"), "Usage:")
	assert.Contains(t, s.HandleCommand("/analyze"), "Usage:")
}

func TestPortfolioCommandFromStore(t *testing.T) {
	s := newTestScheduler(t)
	seedStore(t, s.Store)

	reply := s.HandleCommand("/portfolio BRK")
	assert.Contains(t, reply, "AAPL")
	assert.Contains(t, reply, "2025Q2")
}

func TestOverlapCommand(t *testing.T) {
	s := newTestScheduler(t)
	seedStore(t, s.Store)

	reply := s.HandleCommand("/overlap")
	assert.Contains(t, reply, "AAPL")
	assert.Contains(t, reply, "2 holders")
}

func TestOverlapCommandNoData(t *testing.T) {
	s := newTestScheduler(t)
	assert.Contains(t, s.HandleCommand("/overlap"), "sync")
}

func TestAnalyzeCommand(t *testing.T) {
	s := newTestScheduler(t)

	reply := s.HandleCommand("/analyze aapl")
	assert.Contains(t, reply, "Trade Plan: AAPL")
	assert.Contains(t, reply, "Entry:")
	assert.Contains(t, reply, "Stop loss:")
}

func TestWatchCommand(t *testing.T) {
	s := newTestScheduler(t)

	reply := s.HandleCommand("/watch")
	assert.Contains(t, reply, "BRK")

	assert.Contains(t, s.HandleCommand("/watch add akre"), "AKRE")
	assert.Contains(t, s.HandleCommand("/watch"), "AKRE")

	assert.Contains(t, s.HandleCommand("/watch remove AKRE"), "Stopped watching")
	assert.NotContains(t, s.HandleCommand("/watch"), "AKRE")
}

func TestRegisterAll(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.RegisterAll("0 0 8 * * 1-5", "0 0 9,21 * * *", "0 */30 * * * *"))
	assert.Error(t, s.RegisterAll("not a cron", "0 0 9 * * *", "0 0 9 * * *"))
}
