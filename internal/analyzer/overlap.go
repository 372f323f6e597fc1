package analyzer

import (
	"sort"

	"MarketCompass/internal/model"
)

// OverlapEntry is one stock held across multiple portfolios.
type OverlapEntry struct {
	Symbol     string   `json:"symbol"`
	Company    string   `json:"company"`
	Owners     []string `json:"owners"`
	NumOwners  int      `json:"num_owners"`
	AvgPct     float64  `json:"avg_pct"`
	Conviction float64  `json:"conviction"` // avg pct weighted by owner count
	TotalValue float64  `json:"total_value"`
}

// FindOverlap returns the stocks held by at least minOwners of the given
// snapshots, ranked by owner count then conviction.
func FindOverlap(snapshots []*model.PortfolioSnapshot, minOwners int) []OverlapEntry {
	if minOwners < 1 {
		minOwners = 1
	}

	bySymbol := make(map[string]*OverlapEntry)
	pctSums := make(map[string]float64)
	var order []string
	for _, snap := range snapshots {
		if snap == nil {
			continue
		}
		for _, h := range snap.Holdings {
			e := bySymbol[h.Symbol]
			if e == nil {
				e = &OverlapEntry{Symbol: h.Symbol, Company: h.Company}
				bySymbol[h.Symbol] = e
				order = append(order, h.Symbol)
			}
			e.Owners = append(e.Owners, snap.InvestorID)
			e.NumOwners++
			e.TotalValue += h.Value
			pctSums[h.Symbol] += h.PortfolioPct
		}
	}

	var entries []OverlapEntry
	for _, sym := range order {
		e := bySymbol[sym]
		if e.NumOwners < minOwners {
			continue
		}
		e.AvgPct = pctSums[sym] / float64(e.NumOwners)
		e.Conviction = e.AvgPct * float64(e.NumOwners)
		entries = append(entries, *e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].NumOwners != entries[j].NumOwners {
			return entries[i].NumOwners > entries[j].NumOwners
		}
		return entries[i].Conviction > entries[j].Conviction
	})
	return entries
}

// CommonHoldings returns only the stocks present in every snapshot.
func CommonHoldings(snapshots []*model.PortfolioSnapshot) []OverlapEntry {
	n := 0
	for _, s := range snapshots {
		if s != nil {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return FindOverlap(snapshots, n)
}

// TopPicks returns the highest-conviction overlap entries.
func TopPicks(snapshots []*model.PortfolioSnapshot, minOwners, topN int) []OverlapEntry {
	entries := FindOverlap(snapshots, minOwners)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Conviction > entries[j].Conviction })
	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}
