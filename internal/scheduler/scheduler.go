package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/alert"
	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/levels"
	"MarketCompass/internal/metrics"
	"MarketCompass/internal/notifier"
	"MarketCompass/internal/store"
	"MarketCompass/internal/watch"
)

// Scheduler runs the periodic aggregation jobs and routes bot commands.
type Scheduler struct {
	Cron      *cron.Cron
	Market    *collector.CryptoMarket
	Dataroma  *collector.DataromaClient
	Fetcher   collector.BarFetcher
	Crypto    *analyzer.CryptoAnalyzer
	Investor  *analyzer.InvestorAnalyzer
	Flow      *analyzer.FlowAnalyzer
	Sentiment *analyzer.SentimentAnalyzer
	Store     store.Store
	Watch     *watch.Manager
	Alerts    *alert.Watcher
	Notifier  notifier.Notifier
	Metrics   *metrics.Metrics
	Params    levels.Params
	Exchange  string
	Ctx       context.Context
}

// New creates a Scheduler with a seconds-aware cron.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Exchange: "upbit",
		Ctx:      ctx,
	}
}

// RegisterAll registers the daily brief, crypto scan, and filing check.
func (s *Scheduler) RegisterAll(dailyBriefCron, cryptoScanCron, filingCheckCron string) error {
	if _, err := s.Cron.AddFunc(dailyBriefCron, s.dailyBrief); err != nil {
		return fmt.Errorf("register daily brief: %w", err)
	}
	if _, err := s.Cron.AddFunc(cryptoScanCron, s.cryptoScan); err != nil {
		return fmt.Errorf("register crypto scan: %w", err)
	}
	if _, err := s.Cron.AddFunc(filingCheckCron, s.filingCheck); err != nil {
		return fmt.Errorf("register filing check: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info("scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Info("scheduler stopped")
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Errorf("send report: %v", err)
	}
}

func (s *Scheduler) observeCycle(start time.Time) {
	if s.Metrics != nil {
		s.Metrics.ReportCyclesTotal.Inc()
		s.Metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}
}

// dailyBrief sends the morning market summary.
func (s *Scheduler) dailyBrief() {
	log.Info("running daily brief")
	start := time.Now()
	defer s.observeCycle(start)

	sentiment, err := s.Sentiment.MarketSentiment(s.Ctx)
	s.Metrics.ObserveScrape("news", err)
	if err != nil {
		log.Warnf("daily brief sentiment: %v", err)
	}
	fg := s.Market.FearGreed(s.Ctx)
	kp, err := s.Market.KimchiPremium(s.Ctx)
	s.Metrics.ObserveScrape("crypto", err)
	if err != nil {
		log.Warnf("daily brief kimchi premium: %v", err)
	}

	s.trySend(notifier.FormatDailyBrief(sentiment, fg, kp))
}

// cryptoScan runs the coin recommender and reports the picks.
func (s *Scheduler) cryptoScan() {
	log.Info("running crypto scan")
	start := time.Now()
	defer s.observeCycle(start)

	recs, err := s.Crypto.Recommend(s.Ctx, s.Exchange, 10)
	s.Metrics.ObserveScrape(s.Exchange, err)
	if err != nil {
		log.Errorf("crypto scan: %v", err)
		s.trySend(fmt.Sprintf("❌ Crypto scan failed: %v", err))
		return
	}
	s.trySend(notifier.FormatCryptoPicks(recs))
}

// filingCheck polls EDGAR for watched investors.
func (s *Scheduler) filingCheck() {
	log.Info("running filing check")
	s.Metrics.ObserveScrape("edgar", nil)
	sent := s.Alerts.CheckFilings(s.Ctx)
	if sent > 0 && s.Metrics != nil {
		s.Metrics.AlertsSentTotal.Add(float64(sent))
	}
}

// RunDailyBriefNow triggers the daily brief outside its schedule.
func (s *Scheduler) RunDailyBriefNow() { s.dailyBrief() }

// RunCryptoScanNow triggers the crypto scan outside its schedule.
func (s *Scheduler) RunCryptoScanNow() { s.cryptoScan() }

// SyncWatchedPortfolios scrapes and stores the current portfolios of all
// watched investors.
func (s *Scheduler) SyncWatchedPortfolios() {
	for _, id := range s.Watch.Investors() {
		snap, err := s.Dataroma.Portfolio(s.Ctx, id)
		s.Metrics.ObserveScrape("dataroma", err)
		if err != nil {
			log.Warnf("sync %s: %v", id, err)
			continue
		}
		if err := s.Store.SavePortfolio(snap); err != nil {
			log.Warnf("store %s: %v", id, err)
		}
	}
}
