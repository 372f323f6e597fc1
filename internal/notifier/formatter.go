package notifier

import (
	"fmt"
	"strings"
	"time"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/model"
)

// FormatDailyBrief formats the morning market brief.
func FormatDailyBrief(sentiment model.Sentiment, fg model.FearGreed, kp model.KimchiPremium) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>MarketCompass Daily Brief</b> | %s\n\n", time.Now().Format("2006-01-02")))

	b.WriteString(fmt.Sprintf("📰 News sentiment: <b>%s</b> (%+d)\n", sentiment.Label, sentiment.Score))
	b.WriteString(fmt.Sprintf("😨 Fear & Greed: %d (%s)\n", fg.Value, fg.Label))
	if len(kp.Premiums) > 0 {
		b.WriteString(fmt.Sprintf("🇰🇷 Kimchi premium: %+.2f%% avg\n", kp.Average))
	}
	return b.String()
}

// FormatCryptoPicks formats the scored coin recommendations.
func FormatCryptoPicks(recs []model.Recommendation) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🪙 <b>Crypto Picks</b> | %s\n\n", time.Now().Format("2006-01-02 15:04")))

	if len(recs) == 0 {
		b.WriteString("No coins scored above zero today.\n")
		return b.String()
	}
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> (%s) — score %.1f\n", r.Rank, r.Symbol, r.Name, r.Score))
		b.WriteString(fmt.Sprintf("   %.2f (%+.1f%% 24h)\n", r.Price, r.Change24h))
		if len(r.Signals) > 0 {
			b.WriteString(fmt.Sprintf("   %s\n", strings.Join(r.Signals, " · ")))
		}
		if r.Plan != nil {
			b.WriteString(fmt.Sprintf("   entry %.2f | stop %.2f (%.1f%%) | R/R %.2f\n",
				r.Plan.Entry, r.Plan.StopLoss, r.Plan.StopLossPct, r.Plan.RiskReward))
		}
	}
	return b.String()
}

// FormatTradePlan formats one trade-plan card.
func FormatTradePlan(symbol string, plan *model.TradePlan) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎯 <b>Trade Plan: %s</b>\n\n", symbol))
	if plan.Degraded {
		b.WriteString("⚠️ Insufficient history, fixed-ratio fallback plan.\n\n")
	}
	b.WriteString(fmt.Sprintf("Entry: %.2f\n", plan.Entry))
	b.WriteString(fmt.Sprintf("Stop loss: %.2f (%.1f%%)\n", plan.StopLoss, plan.StopLossPct))
	for _, t := range plan.Targets {
		b.WriteString(fmt.Sprintf("%s: %.2f (%+.1f%%)\n", t.Label, t.Price, t.Pct))
	}
	b.WriteString(fmt.Sprintf("Risk/Reward: %.2f\n", plan.RiskReward))

	if len(plan.SupportLevels) > 0 {
		var parts []string
		for _, lvl := range plan.SupportLevels {
			parts = append(parts, fmt.Sprintf("%.2f(×%d)", lvl.Price, lvl.Strength))
		}
		b.WriteString(fmt.Sprintf("\nSupport: %s\n", strings.Join(parts, ", ")))
	}
	if len(plan.ResistanceLevels) > 0 {
		var parts []string
		for _, lvl := range plan.ResistanceLevels {
			parts = append(parts, fmt.Sprintf("%.2f(×%d)", lvl.Price, lvl.Strength))
		}
		b.WriteString(fmt.Sprintf("Resistance: %s\n", strings.Join(parts, ", ")))
	}
	return b.String()
}

// FormatPortfolio formats an investor snapshot, top holdings first.
func FormatPortfolio(name string, snap *model.PortfolioSnapshot, limit int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💼 <b>%s</b> | %s\n\n", name, snap.Quarter))

	shown := snap.Holdings
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for i, h := range shown {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s — %.1f%%\n", i+1, h.Symbol, h.Company, h.PortfolioPct))
		if h.Activity != "" {
			b.WriteString(fmt.Sprintf("   %s\n", h.Activity))
		}
	}
	if len(snap.Holdings) > len(shown) {
		b.WriteString(fmt.Sprintf("\n…and %d more positions\n", len(snap.Holdings)-len(shown)))
	}
	return b.String()
}

// FormatOverlap formats the common-holdings ranking.
func FormatOverlap(entries []analyzer.OverlapEntry, limit int) string {
	var b strings.Builder
	b.WriteString("🤝 <b>Common Holdings</b>\n\n")
	if len(entries) == 0 {
		b.WriteString("No overlapping positions found.\n")
		return b.String()
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> %s — %d holders, avg %.1f%%\n",
			i+1, e.Symbol, e.Company, e.NumOwners, e.AvgPct))
	}
	return b.String()
}

// FormatChanges formats a quarter-over-quarter diff.
func FormatChanges(investorID string, changes []model.PositionChange) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔄 <b>Portfolio Changes: %s</b>\n\n", investorID))
	if len(changes) == 0 {
		b.WriteString("No changes between the compared quarters.\n")
		return b.String()
	}

	icons := map[model.ChangeKind]string{
		model.ChangeNew:      "🆕",
		model.ChangeExit:     "❌",
		model.ChangeIncrease: "📈",
		model.ChangeDecrease: "📉",
	}
	for _, c := range changes {
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s: %.1f%% → %.1f%%\n",
			icons[c.Kind], c.Symbol, c.Kind, c.PrevPct, c.CurrPct))
	}

	s := analyzer.SummarizeChanges(changes)
	b.WriteString(fmt.Sprintf("\n%d new · %d exits · %d increased · %d decreased\n",
		s.New, s.Exits, s.Increases, s.Decreases))
	return b.String()
}

// FormatFlows formats the Korean order-flow ranking.
func FormatFlows(recs []model.Recommendation) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏦 <b>Smart Money Flows</b> | %s\n\n", time.Now().Format("2006-01-02")))
	if len(recs) == 0 {
		b.WriteString("No flow signals today.\n")
		return b.String()
	}
	for _, r := range recs {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> (%s) — score %.0f\n", r.Rank, r.Name, r.Symbol, r.Score))
		if len(r.Signals) > 0 {
			b.WriteString(fmt.Sprintf("   %s\n", strings.Join(r.Signals, " · ")))
		}
	}
	return b.String()
}

// FormatFilingAlert formats a new-filing notification.
func FormatFilingAlert(investorName string, filing model.Filing) string {
	var b strings.Builder
	b.WriteString("🚨 <b>New 13F Filing</b>\n\n")
	b.WriteString(fmt.Sprintf("Investor: <b>%s</b>\n", investorName))
	b.WriteString(fmt.Sprintf("Form: %s\n", filing.FormType))
	b.WriteString(fmt.Sprintf("Filed: %s\n", filing.FiledAt))
	b.WriteString(fmt.Sprintf("Accession: %s\n", filing.AccessionNo))
	return b.String()
}

// FormatSentiment formats the market-sentiment breakdown.
func FormatSentiment(s model.Sentiment) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📰 <b>Market Sentiment</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Overall: <b>%s</b> (%+d)\n", s.Label, s.Score))
	b.WriteString(fmt.Sprintf("Keyword hits: %d positive, %d negative over %d headlines\n",
		s.Positive, s.Negative, s.Headlines))
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return strings.Join([]string{
		"🧭 <b>MarketCompass Commands</b>",
		"",
		"/investors — tracked super investors",
		"/portfolio &lt;id&gt; — latest 13F portfolio",
		"/overlap — common holdings across investors",
		"/grand — aggregated ownership ranking",
		"/crypto — scored coin picks",
		"/analyze &lt;symbol&gt; — trade plan for a symbol",
		"/flows — Korean smart-money flows",
		"/sentiment — news sentiment",
		"/watch — watchlist",
		"/help — this message",
	}, "\n")
}
