package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/config"
	"MarketCompass/internal/metrics"
	"MarketCompass/internal/server"
	"MarketCompass/internal/store"
)

func main() {
	_ = godotenv.Load()
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.Info("MarketCompass API server starting...")

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

	memo := cache.New(cfg.Sources.CacheTTL, 2*cfg.Sources.CacheTTL)

	yahoo := collector.NewYahooFetcher(cfg.Sources.YahooBaseURL, cfg.Proxy, memo)
	upbit := collector.NewUpbitClient(cfg.Sources.UpbitBaseURL, memo)
	binance := collector.NewBinanceClient(cfg.Sources.BinanceBaseURLs, memo)
	market := collector.NewCryptoMarket(upbit, binance, "", memo)
	dataroma := collector.NewDataromaClient(cfg.Sources.DataromaBaseURL, cfg.Sources.UserAgent, memo)
	krx := collector.NewKRXClient(cfg.Sources.KRXBaseURL, cfg.Sources.UserAgent, memo)
	news := collector.NewNewsFetcher(cfg.Sources.NewsBaseURL, cfg.Sources.UserAgent, memo)

	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatalf("init sqlite store: %v", err)
		}
		st = ss
		defer ss.Close()
	} else {
		st = store.NewNoopStore()
	}

	metrics.New()

	srv := server.New(cfg.HTTP.Addr, st, dataroma, yahoo,
		analyzer.NewCryptoAnalyzer(market, cfg.Plan),
		analyzer.NewFlowAnalyzer(krx),
		analyzer.NewSentimentAnalyzer(news),
		cfg.Plan,
		server.NewHub(),
	)

	log.Infof("listening on %s", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
