package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/alert"
	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/config"
	"MarketCompass/internal/metrics"
	"MarketCompass/internal/notifier"
	"MarketCompass/internal/scheduler"
	"MarketCompass/internal/store"
	"MarketCompass/internal/watch"
)

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Info("MarketCompass bot starting...")

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		log.Fatalf("telegram config: %v", err)
	}

	memo := cache.New(cfg.Sources.CacheTTL, 2*cfg.Sources.CacheTTL)

	// Collectors
	yahoo := collector.NewYahooFetcher(cfg.Sources.YahooBaseURL, cfg.Proxy, memo)
	upbit := collector.NewUpbitClient(cfg.Sources.UpbitBaseURL, memo)
	binance := collector.NewBinanceClient(cfg.Sources.BinanceBaseURLs, memo)
	market := collector.NewCryptoMarket(upbit, binance, "", memo)
	dataroma := collector.NewDataromaClient(cfg.Sources.DataromaBaseURL, cfg.Sources.UserAgent, memo)
	krx := collector.NewKRXClient(cfg.Sources.KRXBaseURL, cfg.Sources.UserAgent, memo)
	edgar := collector.NewEDGARClient(cfg.Sources.EDGARBaseURL, cfg.Sources.UserAgent)
	news := collector.NewNewsFetcher(cfg.Sources.NewsBaseURL, cfg.Sources.UserAgent, memo)
	log.Infof("data source: %s", yahoo.Name())

	// Storage
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Warnf("init sqlite store failed, using noop: %v", err)
			st = store.NewNoopStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewNoopStore()
	}

	wm, err := watch.NewManager(cfg.Watch.StatePath, cfg.Watch.Investors, cfg.Watch.Symbols)
	if err != nil {
		log.Fatalf("init watch manager: %v", err)
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
	m := metrics.New()

	var watched []alert.WatchedInvestor
	for id, cik := range cfg.InvestorCIKs {
		name := cfg.FamousInvestors[id]
		if name == "" {
			name = id
		}
		watched = append(watched, alert.WatchedInvestor{ID: id, CIK: cik, Name: name})
	}
	watcher := alert.NewWatcher(edgar, st, tn, nil, watched)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(ctx)
	sched.Market = market
	sched.Dataroma = dataroma
	sched.Fetcher = yahoo
	sched.Crypto = analyzer.NewCryptoAnalyzer(market, cfg.Plan)
	sched.Investor = analyzer.NewInvestorAnalyzer(dataroma, cfg.FamousInvestors)
	sched.Flow = analyzer.NewFlowAnalyzer(krx)
	sched.Sentiment = analyzer.NewSentimentAnalyzer(news)
	sched.Store = st
	sched.Watch = wm
	sched.Alerts = watcher
	sched.Notifier = tn
	sched.Metrics = m
	sched.Params = cfg.Plan

	if err := sched.RegisterAll(cfg.Schedule.DailyBriefCron, cfg.Schedule.CryptoScanCron, cfg.Schedule.FilingCheckCron); err != nil {
		log.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	go tn.StartPolling(ctx, sched.HandleCommand)
	log.Info("Telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info("RUN_ON_START enabled, sending daily brief now")
		go sched.RunDailyBriefNow()
	}

	log.Info("MarketCompass bot is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	log.Info("MarketCompass bot stopped")
}
