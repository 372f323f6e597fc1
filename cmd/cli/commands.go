package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"MarketCompass/internal/analyzer"
	"MarketCompass/internal/model"
)

var money = message.NewPrinter(language.English)

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	return table
}

func newInvestorsCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "investors",
		Short: "List tracked super investors",
		RunE: func(cmd *cobra.Command, args []string) error {
			investors, err := (*a).dataroma.Investors((*a).ctx)
			if err != nil {
				return err
			}
			table := newTable([]string{"ID", "Name", "Holdings", "As Of"})
			for _, inv := range investors {
				table.Append([]string{inv.ID, inv.Name, fmt.Sprintf("%d", inv.NumHoldings), inv.PortfolioDate})
			}
			table.Render()
			return nil
		},
	}
}

func newPicksCmd(a **app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "picks",
		Short: "Score stocks by super-investor ownership and activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := (*a).investorAnalyzer().Recommend((*a).ctx, top)
			if err != nil {
				return err
			}
			table := newTable([]string{"#", "Symbol", "Company", "Score", "Signals"})
			for _, r := range recs {
				table.Append([]string{
					fmt.Sprintf("%d", r.Rank), r.Symbol, r.Name,
					fmt.Sprintf("%.1f", r.Score),
					strings.Join(r.Signals, ", "),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of picks")
	return cmd
}

// loadPortfolio prefers the local store and falls back to a live scrape.
func loadPortfolio(a *app, id, quarter string) (*model.PortfolioSnapshot, error) {
	var snap *model.PortfolioSnapshot
	var err error
	if quarter != "" {
		snap, err = a.store.GetPortfolio(id, quarter)
	} else {
		snap, err = a.store.GetLatestPortfolio(id)
	}
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if quarter != "" {
		return nil, fmt.Errorf("no stored portfolio for %s %s; run `compass sync %s` first", id, quarter, id)
	}
	snap, err = a.dataroma.Portfolio(a.ctx, id)
	if err != nil {
		return nil, err
	}
	if saveErr := a.store.SavePortfolio(snap); saveErr != nil {
		fmt.Fprintf(os.Stderr, "warning: could not store snapshot: %v\n", saveErr)
	}
	return snap, nil
}

func newPortfolioCmd(a **app) *cobra.Command {
	var quarter string
	cmd := &cobra.Command{
		Use:   "portfolio <investor-id>",
		Short: "Show an investor's 13F portfolio",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadPortfolio(*a, args[0], quarter)
			if err != nil {
				return err
			}
			fmt.Printf("%s — %s (%d positions)\n\n", snap.InvestorID, snap.Quarter, len(snap.Holdings))
			table := newTable([]string{"Symbol", "Company", "Shares", "Value ($k)", "%", "Activity"})
			for _, h := range snap.Holdings {
				table.Append([]string{
					h.Symbol, h.Company,
					money.Sprintf("%d", h.Shares),
					money.Sprintf("%.0f", h.Value),
					fmt.Sprintf("%.2f", h.PortfolioPct),
					h.Activity,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().StringVarP(&quarter, "quarter", "q", "", "quarter to show, e.g. 2025Q2 (default latest)")
	return cmd
}

func newOverlapCmd(a **app) *cobra.Command {
	var minOwners int
	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "Rank positions held by multiple stored investors",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := (*a).store.GetInvestorIDs()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("no stored portfolios; run `compass sync` first")
			}
			var snaps []*model.PortfolioSnapshot
			for _, id := range ids {
				snap, err := (*a).store.GetLatestPortfolio(id)
				if err != nil {
					continue
				}
				snaps = append(snaps, snap)
			}
			entries := analyzer.FindOverlap(snaps, minOwners)
			table := newTable([]string{"Symbol", "Company", "Owners", "Avg %", "Conviction"})
			for _, e := range entries {
				table.Append([]string{
					e.Symbol, e.Company,
					fmt.Sprintf("%d", e.NumOwners),
					fmt.Sprintf("%.2f", e.AvgPct),
					fmt.Sprintf("%.1f", e.Conviction),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&minOwners, "min-owners", 2, "minimum number of holders")
	return cmd
}

func newChangesCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "changes <investor-id>",
		Short: "Diff an investor's two most recent stored quarters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			quarters, err := (*a).store.GetQuarters(id)
			if err != nil {
				return err
			}
			if len(quarters) < 2 {
				return fmt.Errorf("need at least two stored quarters for %s, have %d", id, len(quarters))
			}
			curr, err := (*a).store.GetPortfolio(id, quarters[0])
			if err != nil {
				return err
			}
			prev, err := (*a).store.GetPortfolio(id, quarters[1])
			if err != nil {
				return err
			}

			changes := analyzer.DiffSnapshots(prev, curr)
			fmt.Printf("%s: %s → %s\n\n", id, quarters[1], quarters[0])
			table := newTable([]string{"Kind", "Symbol", "Prev %", "Curr %", "Δ %"})
			for _, c := range changes {
				table.Append([]string{
					string(c.Kind), c.Symbol,
					fmt.Sprintf("%.2f", c.PrevPct),
					fmt.Sprintf("%.2f", c.CurrPct),
					fmt.Sprintf("%+.2f", c.DeltaPct),
				})
			}
			table.Render()

			s := analyzer.SummarizeChanges(changes)
			fmt.Printf("\n%d new, %d exits, %d increased, %d decreased\n", s.New, s.Exits, s.Increases, s.Decreases)
			return nil
		},
	}
}

func newGrandCmd(a **app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "grand",
		Short: "Show the aggregated ownership ranking",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := (*a).dataroma.GrandPortfolio((*a).ctx)
			if err != nil {
				return err
			}
			if top > 0 && len(entries) > top {
				entries = entries[:top]
			}
			table := newTable([]string{"Symbol", "Company", "Owners", "%", "Hold Price", "Current"})
			for _, e := range entries {
				table.Append([]string{
					e.Symbol, e.Company,
					fmt.Sprintf("%d", e.NumOwners),
					fmt.Sprintf("%.2f", e.PortfolioPct),
					money.Sprintf("%.2f", e.HoldPrice),
					money.Sprintf("%.2f", e.CurrentPrice),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 30, "number of rows to show")
	return cmd
}

func newSyncCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [investor-id ...]",
		Short: "Scrape and store portfolios (all tracked investors by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args
			if len(ids) == 0 {
				investors, err := (*a).dataroma.Investors((*a).ctx)
				if err != nil {
					return err
				}
				for _, inv := range investors {
					ids = append(ids, inv.ID)
				}
			}
			for _, id := range ids {
				snap, err := (*a).dataroma.Portfolio((*a).ctx, id)
				if err != nil {
					fmt.Fprintf(os.Stderr, "skip %s: %v\n", id, err)
					continue
				}
				if err := (*a).store.SavePortfolio(snap); err != nil {
					return err
				}
				fmt.Printf("synced %s %s (%d positions)\n", id, snap.Quarter, len(snap.Holdings))
			}
			return nil
		},
	}
}

func newAnalyzeCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Compute indicators and a trade plan for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(args[0])
			bars, err := (*a).yahoo.FetchDailyBars((*a).ctx, symbol, 120)
			if err != nil {
				return err
			}
			price := 0.0
			if len(bars) > 0 {
				price = bars[len(bars)-1].Close
			}
			ind := analyzer.ComputeIndicators(bars, price)
			plan := analyzer.BuildPlan(bars, ind, (*a).cfg.Plan)

			fmt.Printf("%s @ %.2f\n", symbol, price)
			fmt.Printf("MA5 %.2f · MA20 %.2f · MA60 %.2f · RSI %.1f\n\n", ind.MA5, ind.MA20, ind.MA60, ind.RSI)
			if plan.Degraded {
				fmt.Println("insufficient history, fixed-ratio fallback plan")
			}
			fmt.Printf("entry      %.2f\n", plan.Entry)
			fmt.Printf("stop loss  %.2f (%.1f%%)\n", plan.StopLoss, plan.StopLossPct)
			for _, t := range plan.Targets {
				fmt.Printf("%-10s %.2f (%+.1f%%)\n", strings.ToLower(t.Label), t.Price, t.Pct)
			}
			fmt.Printf("risk/reward %.2f\n", plan.RiskReward)
			return nil
		},
	}
}

func newCryptoCmd(a **app) *cobra.Command {
	var top int
	var exchange string
	cmd := &cobra.Command{
		Use:   "crypto",
		Short: "Score and rank coins",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := analyzer.NewCryptoAnalyzer((*a).market, (*a).cfg.Plan).Recommend((*a).ctx, exchange, top)
			if err != nil {
				return err
			}
			table := newTable([]string{"#", "Symbol", "Name", "Score", "Price", "24h %", "Signals"})
			for _, r := range recs {
				table.Append([]string{
					fmt.Sprintf("%d", r.Rank), r.Symbol, r.Name,
					fmt.Sprintf("%.1f", r.Score),
					money.Sprintf("%.2f", r.Price),
					fmt.Sprintf("%+.1f", r.Change24h),
					strings.Join(r.Signals, ", "),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of picks")
	cmd.Flags().StringVar(&exchange, "exchange", "upbit", "exchange to scan (upbit or binance)")
	return cmd
}

func newFlowsCmd(a **app) *cobra.Command {
	var foreign, inst bool
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Rank stocks by foreign and institutional buying",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Raw single-side rankings on request; the blended score otherwise.
			if foreign || inst {
				fetch := (*a).krx.ForeignNetBuying
				if inst {
					fetch = (*a).krx.InstitutionNetBuying
				}
				entries, err := fetch((*a).ctx, 30)
				if err != nil {
					return err
				}
				table := newTable([]string{"#", "Symbol", "Name", "Net Buy (KRW)"})
				for _, e := range entries {
					table.Append([]string{
						fmt.Sprintf("%d", e.Rank), e.Symbol, e.Name,
						money.Sprintf("%.0f", e.NetBuyValue),
					})
				}
				table.Render()
				return nil
			}

			recs, err := analyzer.NewFlowAnalyzer((*a).krx).Recommend((*a).ctx, 15)
			if err != nil {
				return err
			}
			table := newTable([]string{"#", "Name", "Score", "Signals"})
			for _, r := range recs {
				table.Append([]string{
					fmt.Sprintf("%d", r.Rank), r.Name,
					fmt.Sprintf("%.0f", r.Score),
					strings.Join(r.Signals, ", "),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&foreign, "foreign", false, "show the raw foreign net-buying ranking")
	cmd.Flags().BoolVar(&inst, "inst", false, "show the raw institutional net-buying ranking")
	return cmd
}

func newSentimentCmd(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "sentiment",
		Short: "Score market headlines",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := analyzer.NewSentimentAnalyzer((*a).news).MarketSentiment((*a).ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s (%+d) — %d positive / %d negative hits over %d headlines\n",
				s.Label, s.Score, s.Positive, s.Negative, s.Headlines)
			return nil
		},
	}
}

func newExportCmd(a **app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <investor-id>",
		Short: "Export an investor's latest stored portfolio to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadPortfolio(*a, args[0], "")
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := gocsv.MarshalFile(&snap.Holdings, f); err != nil {
				return err
			}
			fmt.Printf("wrote %d positions to %s\n", len(snap.Holdings), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "portfolio.csv", "output CSV path")
	return cmd
}
