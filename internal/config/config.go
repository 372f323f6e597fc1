package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"MarketCompass/internal/levels"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Schedule struct {
		DailyBriefCron  string `yaml:"daily_brief_cron"`
		CryptoScanCron  string `yaml:"crypto_scan_cron"`
		FilingCheckCron string `yaml:"filing_check_cron"`
	} `yaml:"schedule"`
	Sources struct {
		YahooBaseURL    string        `yaml:"yahoo_base_url"`
		UpbitBaseURL    string        `yaml:"upbit_base_url"`
		BinanceBaseURLs []string      `yaml:"binance_base_urls"`
		KRXBaseURL      string        `yaml:"krx_base_url"`
		DataromaBaseURL string        `yaml:"dataroma_base_url"`
		EDGARBaseURL    string        `yaml:"edgar_base_url"`
		NewsBaseURL     string        `yaml:"news_base_url"`
		UserAgent       string        `yaml:"user_agent"`
		RequestDelay    time.Duration `yaml:"request_delay"`
		CacheTTL        time.Duration `yaml:"cache_ttl"`
	} `yaml:"sources"`
	Plan  levels.Params `yaml:"plan"`
	Watch struct {
		StatePath string   `yaml:"state_path"`
		Investors []string `yaml:"investors"`
		Symbols   []string `yaml:"symbols"`
	} `yaml:"watch"`
	// FamousInvestors maps Dataroma investor IDs to display names; these
	// holders earn the famous-holder score bonus.
	FamousInvestors map[string]string `yaml:"famous_investors"`
	// InvestorCIKs maps Dataroma investor IDs to SEC CIK numbers for
	// filing alerts.
	InvestorCIKs map[string]string `yaml:"investor_ciks"`
	Proxy        string            `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides, then defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("COMPASS_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("COMPASS_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("COMPASS_USER_AGENT"); v != "" {
		cfg.Sources.UserAgent = v
	}
	if v := os.Getenv("COMPASS_WATCH_STATE"); v != "" {
		cfg.Watch.StatePath = v
	}
	if v := os.Getenv("COMPASS_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sources.CacheTTL = d
		}
	}
	if v := os.Getenv("COMPASS_CLUSTER_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Plan.ClusterThreshold = f
		}
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/marketcompass.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Schedule.DailyBriefCron == "" {
		cfg.Schedule.DailyBriefCron = "0 0 8 * * 1-5"
	}
	if cfg.Schedule.CryptoScanCron == "" {
		cfg.Schedule.CryptoScanCron = "0 0 9,21 * * *"
	}
	if cfg.Schedule.FilingCheckCron == "" {
		cfg.Schedule.FilingCheckCron = "0 */30 * * * *"
	}
	if cfg.Sources.UserAgent == "" {
		cfg.Sources.UserAgent = "MarketCompass/1.0 (research use)"
	}
	if cfg.Sources.RequestDelay == 0 {
		cfg.Sources.RequestDelay = 500 * time.Millisecond
	}
	if cfg.Sources.CacheTTL == 0 {
		cfg.Sources.CacheTTL = 10 * time.Minute
	}
	if cfg.Watch.StatePath == "" {
		cfg.Watch.StatePath = "data/watchlist.json"
	}

	defaults := levels.DefaultParams()
	if cfg.Plan.OversoldRSI == 0 {
		cfg.Plan.OversoldRSI = defaults.OversoldRSI
	}
	if cfg.Plan.SupportWeight == 0 {
		cfg.Plan.SupportWeight = defaults.SupportWeight
	}
	if cfg.Plan.EntryDiscount == 0 {
		cfg.Plan.EntryDiscount = defaults.EntryDiscount
	}
	if cfg.Plan.StopSupportMult == 0 {
		cfg.Plan.StopSupportMult = defaults.StopSupportMult
	}
	if cfg.Plan.StopFallbackMult == 0 {
		cfg.Plan.StopFallbackMult = defaults.StopFallbackMult
	}
	if cfg.Plan.StopFloorMult == 0 {
		cfg.Plan.StopFloorMult = defaults.StopFloorMult
	}
	if cfg.Plan.FabricatedTargetPct == 0 {
		cfg.Plan.FabricatedTargetPct = defaults.FabricatedTargetPct
	}
	if cfg.Plan.ClusterThreshold == 0 {
		cfg.Plan.ClusterThreshold = defaults.ClusterThreshold
	}
	if cfg.Plan.RiskRewardCap == 0 {
		cfg.Plan.RiskRewardCap = defaults.RiskRewardCap
	}
	if cfg.Plan.SwingWindow == 0 {
		cfg.Plan.SwingWindow = defaults.SwingWindow
	}
	if cfg.Plan.MinBars == 0 {
		cfg.Plan.MinBars = defaults.MinBars
	}
}

// Validate checks the fields every deployment needs.
func (c *Config) Validate() error {
	if c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required")
	}
	if c.Plan.ClusterThreshold <= 0 {
		return fmt.Errorf("plan.cluster_threshold must be positive")
	}
	if c.Plan.SwingWindow <= 0 {
		return fmt.Errorf("plan.swing_window must be positive")
	}
	if c.Plan.SupportWeight < 0 || c.Plan.SupportWeight > 1 {
		return fmt.Errorf("plan.support_weight must be in [0, 1]")
	}
	return nil
}

// RequireTelegram reports whether Telegram delivery is configured; the
// bot daemon requires it, the API server does not.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
