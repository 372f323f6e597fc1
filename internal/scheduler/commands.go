package scheduler

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/model"
	"MarketCompass/internal/notifier"
)

// HandleCommand routes one Telegram command to its handler and returns the
// reply text. Unknown input gets the help text.
func (s *Scheduler) HandleCommand(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	if s.Metrics != nil {
		s.Metrics.BotCommandsTotal.WithLabelValues(cmd).Inc()
	}
	log.Infof("bot command: %s", cmd)

	switch cmd {
	case "/start", "/help":
		return notifier.FormatHelp()
	case "/investors":
		return s.cmdInvestors()
	case "/portfolio":
		if len(args) == 0 {
			return "Usage: /portfolio &lt;investor id&gt;"
		}
		return s.cmdPortfolio(args[0])
	case "/overlap":
		return s.cmdOverlap()
	case "/grand":
		return s.cmdGrand()
	case "/crypto":
		return s.cmdCrypto()
	case "/analyze":
		if len(args) == 0 {
			return "Usage: /analyze &lt;symbol&gt;"
		}
		return s.cmdAnalyze(strings.ToUpper(args[0]))
	case "/flows":
		return s.cmdFlows()
	case "/sentiment":
		return s.cmdSentiment()
	case "/watch":
		return s.cmdWatch(args)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) cmdInvestors() string {
	investors, err := s.Dataroma.Investors(s.Ctx)
	if err != nil {
		log.Errorf("investors command: %v", err)
		return fmt.Sprintf("❌ Could not fetch investors: %v", err)
	}

	var b strings.Builder
	b.WriteString("👔 <b>Tracked Investors</b>\n\n")
	for i, inv := range investors {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> — %s\n", i+1, inv.ID, inv.Name))
		if i >= 29 {
			b.WriteString(fmt.Sprintf("…and %d more\n", len(investors)-30))
			break
		}
	}
	return b.String()
}

func (s *Scheduler) cmdPortfolio(id string) string {
	// Prefer the stored snapshot; scrape live on a miss and backfill.
	snap, err := s.Store.GetLatestPortfolio(id)
	if err != nil {
		snap, err = s.Dataroma.Portfolio(s.Ctx, id)
		if err != nil {
			log.Errorf("portfolio command %s: %v", id, err)
			return fmt.Sprintf("❌ Could not fetch portfolio %s: %v", id, err)
		}
		if saveErr := s.Store.SavePortfolio(snap); saveErr != nil {
			log.Warnf("backfill portfolio %s: %v", id, saveErr)
		}
	}
	return notifier.FormatPortfolio(id, snap, 15)
}

func (s *Scheduler) cmdOverlap() string {
	ids, err := s.Store.GetInvestorIDs()
	if err != nil || len(ids) == 0 {
		return "No stored portfolios yet. Run a sync first."
	}
	var snaps []*model.PortfolioSnapshot
	for _, id := range ids {
		snap, err := s.Store.GetLatestPortfolio(id)
		if err != nil {
			continue
		}
		snaps = append(snaps, snap)
	}
	return notifier.FormatOverlap(analyzer.FindOverlap(snaps, 2), 15)
}

func (s *Scheduler) cmdGrand() string {
	entries, err := s.Dataroma.GrandPortfolio(s.Ctx)
	if err != nil {
		log.Errorf("grand command: %v", err)
		return fmt.Sprintf("❌ Could not fetch grand portfolio: %v", err)
	}

	var b strings.Builder
	b.WriteString("🏛 <b>Grand Portfolio</b>\n\n")
	for i, e := range entries {
		if i >= 20 {
			break
		}
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s — %d holders, %.2f%%\n",
			i+1, e.Symbol, e.Company, e.NumOwners, e.PortfolioPct))
	}
	return b.String()
}

func (s *Scheduler) cmdCrypto() string {
	recs, err := s.Crypto.Recommend(s.Ctx, s.Exchange, 10)
	if err != nil {
		log.Errorf("crypto command: %v", err)
		return fmt.Sprintf("❌ Crypto scan failed: %v", err)
	}
	return notifier.FormatCryptoPicks(recs)
}

func (s *Scheduler) cmdAnalyze(symbol string) string {
	bars, err := s.Fetcher.FetchDailyBars(s.Ctx, symbol, 120)
	if err != nil {
		log.Errorf("analyze command %s: %v", symbol, err)
		return fmt.Sprintf("❌ Could not fetch price history for %s: %v", symbol, err)
	}
	price := 0.0
	if len(bars) > 0 {
		price = bars[len(bars)-1].Close
	}
	ind := analyzer.ComputeIndicators(bars, price)
	plan := analyzer.BuildPlan(bars, ind, s.Params)
	return notifier.FormatTradePlan(symbol, &plan)
}

func (s *Scheduler) cmdFlows() string {
	recs, err := s.Flow.Recommend(s.Ctx, 10)
	if err != nil {
		log.Errorf("flows command: %v", err)
		return fmt.Sprintf("❌ Could not fetch flow data: %v", err)
	}
	return notifier.FormatFlows(recs)
}

func (s *Scheduler) cmdSentiment() string {
	sentiment, err := s.Sentiment.MarketSentiment(s.Ctx)
	if err != nil {
		log.Errorf("sentiment command: %v", err)
		return fmt.Sprintf("❌ Could not fetch headlines: %v", err)
	}
	return notifier.FormatSentiment(sentiment)
}

// cmdWatch shows the watchlist, or mutates it:
// /watch add <investor> · /watch remove <investor>
func (s *Scheduler) cmdWatch(args []string) string {
	if len(args) >= 2 {
		id := strings.ToUpper(args[1])
		switch strings.ToLower(args[0]) {
		case "add":
			if s.Watch.AddInvestor(id) {
				return fmt.Sprintf("✅ Now watching <b>%s</b>", id)
			}
			return fmt.Sprintf("Already watching %s", id)
		case "remove":
			if s.Watch.RemoveInvestor(id) {
				return fmt.Sprintf("🗑 Stopped watching <b>%s</b>", id)
			}
			return fmt.Sprintf("%s is not on the watchlist", id)
		}
	}

	var b strings.Builder
	b.WriteString("👀 <b>Watchlist</b>\n\n")
	investors := s.Watch.Investors()
	if len(investors) == 0 {
		b.WriteString("No investors watched.\n")
	}
	for _, id := range investors {
		b.WriteString(fmt.Sprintf("• %s\n", id))
	}
	if symbols := s.Watch.Symbols(); len(symbols) > 0 {
		b.WriteString(fmt.Sprintf("\nSymbols: %s\n", strings.Join(symbols, ", ")))
	}
	return b.String()
}
