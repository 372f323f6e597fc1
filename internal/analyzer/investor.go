package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/collector"
	"MarketCompass/internal/model"
)

// symbolActivity aggregates per-symbol 13F activity across sampled
// investor portfolios.
type symbolActivity struct {
	New           int
	Adds          int
	Reduces       int
	Sells         int
	AvgConviction float64
	MaxConviction float64
	FamousHolders []string
}

// InvestorAnalyzer scores stocks from super-investor 13F disclosures:
// ownership breadth, recent buy activity, portfolio conviction, price vs
// average buy price, and famous-holder presence.
type InvestorAnalyzer struct {
	Dataroma *collector.DataromaClient
	// FamousInvestors maps investor IDs to display names; holders in this
	// map earn the famous bonus.
	FamousInvestors map[string]string
	// SampleSize caps how many investor portfolios get fetched per run.
	SampleSize int
}

func NewInvestorAnalyzer(dataroma *collector.DataromaClient, famous map[string]string) *InvestorAnalyzer {
	return &InvestorAnalyzer{Dataroma: dataroma, FamousInvestors: famous, SampleSize: 15}
}

// collectActivity fetches sampled portfolios and tallies activity per symbol.
func (a *InvestorAnalyzer) collectActivity(ctx context.Context, investors []model.Investor) map[string]*symbolActivity {
	activity := make(map[string]*symbolActivity)
	convictions := make(map[string][]float64)

	sample := investors
	if len(sample) > a.SampleSize {
		sample = sample[:a.SampleSize]
	}
	for _, inv := range sample {
		snap, err := a.Dataroma.Portfolio(ctx, inv.ID)
		if err != nil {
			log.Warnf("portfolio for %s failed: %v", inv.ID, err)
			continue
		}
		for _, h := range snap.Holdings {
			act := activity[h.Symbol]
			if act == nil {
				act = &symbolActivity{}
				activity[h.Symbol] = act
			}
			switch kind := strings.ToLower(h.Activity); {
			case strings.Contains(kind, "new"):
				act.New++
			case strings.Contains(kind, "add"):
				act.Adds++
			case strings.Contains(kind, "reduce"):
				act.Reduces++
			case strings.Contains(kind, "sold"), strings.Contains(kind, "sell"):
				act.Sells++
			}
			if h.PortfolioPct > 0 {
				convictions[h.Symbol] = append(convictions[h.Symbol], h.PortfolioPct)
			}
			if _, famous := a.FamousInvestors[inv.ID]; famous && !contains(act.FamousHolders, inv.ID) {
				act.FamousHolders = append(act.FamousHolders, inv.ID)
			}
		}
	}

	for sym, pcts := range convictions {
		act := activity[sym]
		var sum, max float64
		for _, p := range pcts {
			sum += p
			if p > max {
				max = p
			}
		}
		act.AvgConviction = sum / float64(len(pcts))
		act.MaxConviction = max
	}
	return activity
}

// scoreOwnership scores ownership breadth relative to the most widely held
// stock. 15+ owners is always full marks.
func scoreOwnership(numOwners, maxOwners int) model.ScoreComponent {
	if maxOwners < 1 {
		maxOwners = 1
	}
	score := float64(numOwners) / float64(maxOwners) * 30
	if score > 30 || numOwners >= 15 {
		score = 30
	}
	return model.ScoreComponent{
		Name:    "ownership",
		Score:   score,
		Comment: fmt.Sprintf("%d holders", numOwners),
	}
}

// scoreActivity scores recent buy/sell activity, clamped to 0..25.
func scoreActivity(act *symbolActivity) model.ScoreComponent {
	score := float64(act.New*8 + act.Adds*4 - act.Reduces*2 - act.Sells*5)
	if score < 0 {
		score = 0
	}
	if score > 25 {
		score = 25
	}
	return model.ScoreComponent{
		Name:    "activity",
		Score:   score,
		Comment: fmt.Sprintf("new %d, add %d, reduce %d, sell %d", act.New, act.Adds, act.Reduces, act.Sells),
	}
}

// scoreConviction scores average portfolio weight, with a bump when any
// holder keeps a double-digit position.
func scoreConviction(act *symbolActivity) model.ScoreComponent {
	var score float64
	if act.AvgConviction > 0 {
		score = act.AvgConviction * 2
		if score > 20 {
			score = 20
		}
	}
	if act.MaxConviction >= 10 {
		score += 5
		if score > 20 {
			score = 20
		}
	}
	return model.ScoreComponent{
		Name:    "conviction",
		Score:   score,
		Comment: fmt.Sprintf("avg %.1f%%, max %.1f%%", act.AvgConviction, act.MaxConviction),
	}
}

// scorePriceVsHold compares the current price with the holders' average
// buy price. Trading well below the buy price reads as value.
func scorePriceVsHold(holdPrice, currentPrice float64) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "price"}
	if holdPrice <= 0 || currentPrice <= 0 {
		return comp
	}
	change := (currentPrice - holdPrice) / holdPrice * 100
	switch {
	case change < -10:
		comp.Score = -change * 0.5
		if comp.Score > 15 {
			comp.Score = 15
		}
	case change > 20:
		comp.Score = 5
	default:
		comp.Score = 8
	}
	comp.Comment = fmt.Sprintf("%+.1f%% vs avg buy price", change)
	return comp
}

func (a *InvestorAnalyzer) scoreFamous(act *symbolActivity) model.ScoreComponent {
	score := float64(len(act.FamousHolders) * 3)
	if score > 10 {
		score = 10
	}
	var names []string
	for _, id := range act.FamousHolders {
		if name, ok := a.FamousInvestors[id]; ok {
			names = append(names, name)
		} else {
			names = append(names, id)
		}
	}
	return model.ScoreComponent{
		Name:    "famous",
		Score:   score,
		Comment: strings.Join(names, ", "),
	}
}

// Recommend scores the aggregated ownership universe and returns the top
// topN stocks by score.
func (a *InvestorAnalyzer) Recommend(ctx context.Context, topN int) ([]model.Recommendation, error) {
	grand, err := a.Dataroma.GrandPortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("investor recommend: %w", err)
	}
	investors, err := a.Dataroma.Investors(ctx)
	if err != nil {
		return nil, fmt.Errorf("investor recommend: %w", err)
	}
	activity := a.collectActivity(ctx, investors)

	maxOwners := 1
	for _, e := range grand {
		if e.NumOwners > maxOwners {
			maxOwners = e.NumOwners
		}
	}

	var recs []model.Recommendation
	for _, e := range grand {
		act := activity[e.Symbol]
		if act == nil {
			act = &symbolActivity{}
		}

		components := []model.ScoreComponent{
			scoreOwnership(e.NumOwners, maxOwners),
			scoreActivity(act),
			scoreConviction(act),
			scorePriceVsHold(e.HoldPrice, e.CurrentPrice),
			a.scoreFamous(act),
		}
		var total float64
		var signals []string
		for _, c := range components {
			total += c.Score
			if c.Score != 0 && c.Comment != "" {
				signals = append(signals, c.Comment)
			}
		}
		recs = append(recs, model.Recommendation{
			Symbol:     e.Symbol,
			Name:       e.Company,
			Price:      e.CurrentPrice,
			Score:      total,
			Components: components,
			Signals:    signals,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > topN {
		recs = recs[:topN]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs, nil
}

// NewBuy is one freshly opened position aggregated across investors.
type NewBuy struct {
	Symbol        string   `json:"symbol"`
	Company       string   `json:"company"`
	BuyerCount    int      `json:"buyer_count"`
	Buyers        []string `json:"buyers"`
	AvgConviction float64  `json:"avg_conviction"`
	TotalValue    float64  `json:"total_value"`
}

// NewBuys lists symbols investors opened new positions in this quarter,
// ranked by how many of them bought.
func (a *InvestorAnalyzer) NewBuys(ctx context.Context, topN int) ([]NewBuy, error) {
	investors, err := a.Dataroma.Investors(ctx)
	if err != nil {
		return nil, fmt.Errorf("new buys: %w", err)
	}
	if len(investors) > 20 {
		investors = investors[:20]
	}

	bySymbol := make(map[string]*NewBuy)
	convictions := make(map[string][]float64)
	var order []string
	for _, inv := range investors {
		snap, err := a.Dataroma.Portfolio(ctx, inv.ID)
		if err != nil {
			log.Warnf("portfolio for %s failed: %v", inv.ID, err)
			continue
		}
		for _, h := range snap.Holdings {
			kind := strings.ToLower(h.Activity)
			if !strings.Contains(kind, "new") && !strings.Contains(kind, "buy") {
				continue
			}
			nb := bySymbol[h.Symbol]
			if nb == nil {
				nb = &NewBuy{Symbol: h.Symbol, Company: h.Company}
				bySymbol[h.Symbol] = nb
				order = append(order, h.Symbol)
			}
			nb.BuyerCount++
			nb.Buyers = append(nb.Buyers, inv.Name)
			nb.TotalValue += h.Value
			convictions[h.Symbol] = append(convictions[h.Symbol], h.PortfolioPct)
		}
	}

	buys := make([]NewBuy, 0, len(order))
	for _, sym := range order {
		nb := bySymbol[sym]
		if pcts := convictions[sym]; len(pcts) > 0 {
			var sum float64
			for _, p := range pcts {
				sum += p
			}
			nb.AvgConviction = sum / float64(len(pcts))
		}
		buys = append(buys, *nb)
	}
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].BuyerCount > buys[j].BuyerCount })
	if len(buys) > topN {
		buys = buys[:topN]
	}
	return buys, nil
}

// ConvictionPick is a position held at significant portfolio weight.
type ConvictionPick struct {
	Symbol        string   `json:"symbol"`
	Company       string   `json:"company"`
	HolderCount   int      `json:"holder_count"`
	Holders       []string `json:"holders"`
	AvgConviction float64  `json:"avg_conviction"`
	MaxConviction float64  `json:"max_conviction"`
	TotalValue    float64  `json:"total_value"`
}

// HighConviction lists positions held at minPct or more of any sampled
// portfolio, ranked by the largest single weight.
func (a *InvestorAnalyzer) HighConviction(ctx context.Context, minPct float64, topN int) ([]ConvictionPick, error) {
	investors, err := a.Dataroma.Investors(ctx)
	if err != nil {
		return nil, fmt.Errorf("high conviction: %w", err)
	}
	if len(investors) > 20 {
		investors = investors[:20]
	}

	bySymbol := make(map[string]*ConvictionPick)
	convictions := make(map[string][]float64)
	var order []string
	for _, inv := range investors {
		snap, err := a.Dataroma.Portfolio(ctx, inv.ID)
		if err != nil {
			log.Warnf("portfolio for %s failed: %v", inv.ID, err)
			continue
		}
		for _, h := range snap.Holdings {
			if h.PortfolioPct < minPct {
				continue
			}
			pick := bySymbol[h.Symbol]
			if pick == nil {
				pick = &ConvictionPick{Symbol: h.Symbol, Company: h.Company}
				bySymbol[h.Symbol] = pick
				order = append(order, h.Symbol)
			}
			pick.HolderCount++
			pick.Holders = append(pick.Holders, inv.Name)
			pick.TotalValue += h.Value
			convictions[h.Symbol] = append(convictions[h.Symbol], h.PortfolioPct)
		}
	}

	picks := make([]ConvictionPick, 0, len(order))
	for _, sym := range order {
		pick := bySymbol[sym]
		pcts := convictions[sym]
		var sum, max float64
		for _, p := range pcts {
			sum += p
			if p > max {
				max = p
			}
		}
		pick.AvgConviction = sum / float64(len(pcts))
		pick.MaxConviction = max
		picks = append(picks, *pick)
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].MaxConviction > picks[j].MaxConviction })
	if len(picks) > topN {
		picks = picks[:topN]
	}
	return picks, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
