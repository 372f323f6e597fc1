package analyzer

import (
	"context"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"

	"MarketCompass/internal/collector"
	"MarketCompass/internal/model"
)

// FlowAnalyzer scores Korean stocks from institutional order flow: foreign
// and institutional net-buying rankings, dual buying, and short-interest
// posture.
type FlowAnalyzer struct {
	KRX *collector.KRXClient
}

func NewFlowAnalyzer(krx *collector.KRXClient) *FlowAnalyzer {
	return &FlowAnalyzer{KRX: krx}
}

// rankScore converts a net-buying rank to points: rank 1 scores 30, rank
// 30 scores 1, below that nothing.
func rankScore(rank int) float64 {
	s := float64(31 - rank)
	if s < 0 {
		return 0
	}
	return s
}

// scoreShortRatio adjusts for short interest: low short ratio is clean,
// heavy shorting is a drag.
func scoreShortRatio(ratio float64) model.ScoreComponent {
	comp := model.ScoreComponent{Name: "short_interest", Comment: fmt.Sprintf("short ratio %.1f%%", ratio)}
	if ratio <= 0 {
		comp.Comment = ""
		return comp
	}
	switch {
	case ratio <= 5:
		comp.Score = 10
	case ratio >= 20:
		comp.Score = -10
	}
	return comp
}

// Recommend combines the foreign and institutional rankings into a single
// scored list.
func (a *FlowAnalyzer) Recommend(ctx context.Context, topN int) ([]model.Recommendation, error) {
	foreign, err := a.KRX.ForeignNetBuying(ctx, 30)
	if err != nil {
		return nil, fmt.Errorf("flow recommend: %w", err)
	}
	inst, err := a.KRX.InstitutionNetBuying(ctx, 30)
	if err != nil {
		return nil, fmt.Errorf("flow recommend: %w", err)
	}
	shorts, err := a.KRX.ShortInterest(ctx, 100)
	if err != nil {
		log.Warnf("short interest unavailable: %v", err)
	}
	shortBySymbol := make(map[string]float64)
	for _, s := range shorts {
		shortBySymbol[s.Symbol] = s.ShortRatio
	}

	type stock struct {
		name        string
		foreignRank int
		instRank    int
	}
	stocks := make(map[string]*stock)
	var order []string
	for _, e := range foreign {
		stocks[e.Symbol] = &stock{name: e.Name, foreignRank: e.Rank}
		order = append(order, e.Symbol)
	}
	for _, e := range inst {
		st := stocks[e.Symbol]
		if st == nil {
			st = &stock{name: e.Name}
			stocks[e.Symbol] = st
			order = append(order, e.Symbol)
		}
		st.instRank = e.Rank
	}

	var recs []model.Recommendation
	for _, sym := range order {
		st := stocks[sym]
		var components []model.ScoreComponent

		if st.foreignRank > 0 {
			components = append(components, model.ScoreComponent{
				Name:    "foreign_flow",
				Score:   rankScore(st.foreignRank),
				Comment: fmt.Sprintf("foreign net-buy rank %d", st.foreignRank),
			})
		}
		if st.instRank > 0 {
			components = append(components, model.ScoreComponent{
				Name:    "institution_flow",
				Score:   rankScore(st.instRank),
				Comment: fmt.Sprintf("institution net-buy rank %d", st.instRank),
			})
		}
		if st.foreignRank > 0 && st.instRank > 0 {
			components = append(components, model.ScoreComponent{
				Name:    "dual_buying",
				Score:   20,
				Comment: "foreign + institution dual buying",
			})
		}
		components = append(components, scoreShortRatio(shortBySymbol[sym]))

		var total float64
		var signals []string
		for _, c := range components {
			total += c.Score
			if c.Score != 0 && c.Comment != "" {
				signals = append(signals, c.Comment)
			}
		}
		if total <= 0 {
			continue
		}
		recs = append(recs, model.Recommendation{
			Symbol:     sym,
			Name:       st.name,
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

// DualBuying returns the stocks both foreign and institutional investors
// are net-buying.
func (a *FlowAnalyzer) DualBuying(ctx context.Context) ([]model.Recommendation, error) {
	recs, err := a.Recommend(ctx, 100)
	if err != nil {
		return nil, err
	}
	var dual []model.Recommendation
	for _, r := range recs {
		for _, c := range r.Components {
			if c.Name == "dual_buying" {
				dual = append(dual, r)
				break
			}
		}
	}
	return dual, nil
}

// ContrarianPicks returns heavily shorted stocks (ratio >= minShortRatio)
// that smart money is nonetheless buying: short-squeeze candidates.
func (a *FlowAnalyzer) ContrarianPicks(ctx context.Context, minShortRatio float64) ([]model.ShortInterest, error) {
	shorts, err := a.KRX.ShortInterest(ctx, 50)
	if err != nil {
		return nil, fmt.Errorf("contrarian picks: %w", err)
	}
	foreign, err := a.KRX.ForeignNetBuying(ctx, 30)
	if err != nil {
		return nil, fmt.Errorf("contrarian picks: %w", err)
	}
	inst, err := a.KRX.InstitutionNetBuying(ctx, 30)
	if err != nil {
		return nil, fmt.Errorf("contrarian picks: %w", err)
	}

	buying := make(map[string]bool)
	for _, e := range foreign {
		buying[e.Symbol] = true
	}
	for _, e := range inst {
		buying[e.Symbol] = true
	}

	var picks []model.ShortInterest
	for _, s := range shorts {
		if s.ShortRatio >= minShortRatio && buying[s.Symbol] {
			picks = append(picks, s)
		}
	}
	sort.SliceStable(picks, func(i, j int) bool { return picks[i].ShortRatio > picks[j].ShortRatio })
	return picks, nil
}

// StrongBuys intersects the scored recommendations with dual buying:
// the highest-confidence flow candidates.
func (a *FlowAnalyzer) StrongBuys(ctx context.Context, topN int) ([]model.Recommendation, error) {
	dual, err := a.DualBuying(ctx)
	if err != nil {
		return nil, err
	}
	if len(dual) > topN {
		dual = dual[:topN]
	}
	for i := range dual {
		dual[i].Rank = i + 1
	}
	return dual, nil
}
