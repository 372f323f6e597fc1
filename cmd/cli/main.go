package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/collector"
	"MarketCompass/internal/config"
	"MarketCompass/internal/store"
)

// app carries the wired dependencies shared by all subcommands.
type app struct {
	cfg      *config.Config
	store    store.Store
	dataroma *collector.DataromaClient
	yahoo    *collector.YahooFetcher
	krx      *collector.KRXClient
	news     *collector.NewsFetcher
	market   *collector.CryptoMarket
	ctx      context.Context
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	memo := cache.New(cfg.Sources.CacheTTL, 2*cfg.Sources.CacheTTL)
	upbit := collector.NewUpbitClient(cfg.Sources.UpbitBaseURL, memo)
	binance := collector.NewBinanceClient(cfg.Sources.BinanceBaseURLs, memo)

	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		st = ss
	} else {
		st = store.NewNoopStore()
	}

	return &app{
		cfg:      cfg,
		store:    st,
		dataroma: collector.NewDataromaClient(cfg.Sources.DataromaBaseURL, cfg.Sources.UserAgent, memo),
		yahoo:    collector.NewYahooFetcher(cfg.Sources.YahooBaseURL, cfg.Proxy, memo),
		krx:      collector.NewKRXClient(cfg.Sources.KRXBaseURL, cfg.Sources.UserAgent, memo),
		news:     collector.NewNewsFetcher(cfg.Sources.NewsBaseURL, cfg.Sources.UserAgent, memo),
		market:   collector.NewCryptoMarket(upbit, binance, "", memo),
		ctx:      context.Background(),
	}, nil
}

func (a *app) close() {
	if ss, ok := a.store.(*store.SQLiteStore); ok {
		ss.Close()
	}
}

func (a *app) investorAnalyzer() *analyzer.InvestorAnalyzer {
	return analyzer.NewInvestorAnalyzer(a.dataroma, a.cfg.FamousInvestors)
}

func main() {
	_ = godotenv.Load()
	log.SetLevel(log.WarnLevel)

	var cfgPath string
	var a *app

	root := &cobra.Command{
		Use:   "compass",
		Short: "MarketCompass — smart money and market data from the command line",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a, err = newApp(cfgPath)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "config file path")

	root.AddCommand(
		newInvestorsCmd(&a),
		newPicksCmd(&a),
		newPortfolioCmd(&a),
		newOverlapCmd(&a),
		newChangesCmd(&a),
		newGrandCmd(&a),
		newSyncCmd(&a),
		newAnalyzeCmd(&a),
		newCryptoCmd(&a),
		newFlowsCmd(&a),
		newSentimentCmd(&a),
		newExportCmd(&a),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
