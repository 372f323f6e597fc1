package alert

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/model"
	"MarketCompass/internal/notifier"
	"MarketCompass/internal/store"
)

// Broadcaster pushes alerts to connected dashboard clients.
type Broadcaster interface {
	Broadcast(alert model.Alert)
}

// WatchedInvestor ties a Dataroma ID to its SEC CIK and display name.
type WatchedInvestor struct {
	ID   string
	CIK  string
	Name string
}

// Watcher polls SEC EDGAR for new 13F filings from watched investors and
// alerts once per accession number.
type Watcher struct {
	EDGAR    *collector.EDGARClient
	Store    store.Store
	Notifier notifier.Notifier
	Hub      Broadcaster // optional
	// Investors lists who to poll. Resolved from config at wiring time.
	Investors []WatchedInvestor
}

func NewWatcher(edgar *collector.EDGARClient, st store.Store, n notifier.Notifier, hub Broadcaster, investors []WatchedInvestor) *Watcher {
	return &Watcher{EDGAR: edgar, Store: st, Notifier: n, Hub: hub, Investors: investors}
}

// CheckFilings sweeps all watched investors once. Per-investor errors are
// logged and the sweep continues; the returned count is alerts sent.
func (w *Watcher) CheckFilings(ctx context.Context) int {
	sent := 0
	for _, inv := range w.Investors {
		if inv.CIK == "" {
			continue
		}
		filings, err := w.EDGAR.Recent13F(ctx, inv.CIK, 5)
		if err != nil {
			log.Warnf("filing check for %s failed: %v", inv.ID, err)
			continue
		}
		for _, f := range filings {
			seen, err := w.Store.SeenFiling(f.AccessionNo)
			if err != nil {
				log.Warnf("filing dedup lookup failed: %v", err)
				continue
			}
			if seen {
				continue
			}
			if err := w.notify(ctx, inv, f); err != nil {
				log.Errorf("filing alert for %s failed: %v", inv.ID, err)
				continue
			}
			if err := w.Store.MarkFiling(f.AccessionNo); err != nil {
				log.Warnf("mark filing failed: %v", err)
			}
			sent++
		}
	}
	return sent
}

func (w *Watcher) notify(ctx context.Context, inv WatchedInvestor, f model.Filing) error {
	body := notifier.FormatFilingAlert(inv.Name, f)
	if err := w.Notifier.SendWithRetry(ctx, body, 3); err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if w.Hub != nil {
		w.Hub.Broadcast(model.Alert{
			ID:        uuid.NewString(),
			Kind:      model.AlertNewFiling,
			Title:     fmt.Sprintf("New %s filing: %s", f.FormType, inv.Name),
			Body:      body,
			CreatedAt: time.Now(),
		})
	}
	return nil
}

// DiffWatched compares each watched investor's two most recent stored
// quarters and sends a summary of NEW and EXIT positions.
func (w *Watcher) DiffWatched(ctx context.Context) {
	for _, inv := range w.Investors {
		quarters, err := w.Store.GetQuarters(inv.ID)
		if err != nil || len(quarters) < 2 {
			continue
		}
		curr, err := w.Store.GetPortfolio(inv.ID, quarters[0])
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				log.Warnf("load %s %s failed: %v", inv.ID, quarters[0], err)
			}
			continue
		}
		prev, err := w.Store.GetPortfolio(inv.ID, quarters[1])
		if err != nil {
			continue
		}

		changes := analyzer.DiffSnapshots(prev, curr)
		var notable []model.PositionChange
		for _, c := range changes {
			if c.Kind == model.ChangeNew || c.Kind == model.ChangeExit {
				notable = append(notable, c)
			}
		}
		if len(notable) == 0 {
			continue
		}

		body := notifier.FormatChanges(inv.ID, notable)
		if err := w.Notifier.SendWithRetry(ctx, body, 3); err != nil {
			log.Errorf("change summary for %s failed: %v", inv.ID, err)
			continue
		}
		if w.Hub != nil {
			kind := model.AlertNewPosition
			w.Hub.Broadcast(model.Alert{
				ID:        uuid.NewString(),
				Kind:      kind,
				Title:     fmt.Sprintf("Portfolio changes: %s", inv.Name),
				Body:      body,
				CreatedAt: time.Now(),
			})
		}
	}
}
