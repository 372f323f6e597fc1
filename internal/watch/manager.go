package watch

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/model"
)

// Manager guards the watchlist behind a mutex and saves on every
// mutation.
type Manager struct {
	mu       sync.Mutex
	state    *model.WatchState
	filePath string
}

// NewManager creates a Manager, loading or initializing state from disk.
// The seed lists are merged in on first load.
func NewManager(filePath string, seedInvestors, seedSymbols []string) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, err
	}
	m := &Manager{state: state, filePath: filePath}
	for _, id := range seedInvestors {
		m.addUnique(&m.state.Investors, id)
	}
	for _, sym := range seedSymbols {
		m.addUnique(&m.state.Symbols, sym)
	}
	if err := m.save(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}

func (m *Manager) addUnique(list *[]string, v string) bool {
	for _, existing := range *list {
		if existing == v {
			return false
		}
	}
	*list = append(*list, v)
	return true
}

func (m *Manager) remove(list *[]string, v string) bool {
	for i, existing := range *list {
		if existing == v {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
	}
	return false
}

// AddInvestor adds an investor ID to the watchlist. Returns false when
// already present.
func (m *Manager) AddInvestor(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := m.addUnique(&m.state.Investors, id)
	if added {
		m.persist()
	}
	return added
}

// RemoveInvestor removes an investor ID. Returns false when absent.
func (m *Manager) RemoveInvestor(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.remove(&m.state.Investors, id)
	if removed {
		m.persist()
	}
	return removed
}

// Investors returns a copy of the watched investor IDs.
func (m *Manager) Investors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Investors...)
}

// AddSymbol adds a symbol to the watchlist. Returns false when already
// present.
func (m *Manager) AddSymbol(sym string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	added := m.addUnique(&m.state.Symbols, sym)
	if added {
		m.persist()
	}
	return added
}

// RemoveSymbol removes a symbol. Returns false when absent.
func (m *Manager) RemoveSymbol(sym string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := m.remove(&m.state.Symbols, sym)
	if removed {
		m.persist()
	}
	return removed
}

// Symbols returns a copy of the watched symbols.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.state.Symbols...)
}

func (m *Manager) persist() {
	if err := m.save(); err != nil {
		log.Errorf("failed to save watchlist: %v", err)
	}
}
