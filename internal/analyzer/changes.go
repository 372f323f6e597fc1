package analyzer

import (
	"math"
	"sort"

	"MarketCompass/internal/model"
)

// DiffSnapshots compares two quarters of one investor's portfolio and
// returns the position changes: NEW positions first, then EXITs, then
// weight changes ordered by absolute delta descending. Unchanged
// positions are omitted.
func DiffSnapshots(prev, curr *model.PortfolioSnapshot) []model.PositionChange {
	prevMap := make(map[string]model.Holding)
	if prev != nil {
		for _, h := range prev.Holdings {
			prevMap[h.Symbol] = h
		}
	}
	currMap := make(map[string]model.Holding)
	var order []string
	if curr != nil {
		for _, h := range curr.Holdings {
			currMap[h.Symbol] = h
			order = append(order, h.Symbol)
		}
	}
	if prev != nil {
		for _, h := range prev.Holdings {
			if _, ok := currMap[h.Symbol]; !ok {
				order = append(order, h.Symbol)
			}
		}
	}

	var changes []model.PositionChange
	for _, sym := range order {
		prevH, hadPrev := prevMap[sym]
		currH, hasCurr := currMap[sym]

		var kind model.ChangeKind
		switch {
		case !hadPrev && hasCurr:
			kind = model.ChangeNew
		case hadPrev && !hasCurr:
			kind = model.ChangeExit
		case currH.Shares > prevH.Shares:
			kind = model.ChangeIncrease
		case currH.Shares < prevH.Shares:
			kind = model.ChangeDecrease
		default:
			continue // unchanged
		}

		company := currH.Company
		if company == "" {
			company = prevH.Company
		}
		changes = append(changes, model.PositionChange{
			Symbol:     sym,
			Company:    company,
			Kind:       kind,
			PrevShares: prevH.Shares,
			CurrShares: currH.Shares,
			PrevPct:    prevH.PortfolioPct,
			CurrPct:    currH.PortfolioPct,
			DeltaPct:   currH.PortfolioPct - prevH.PortfolioPct,
		})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		oi, oj := kindOrder(changes[i].Kind), kindOrder(changes[j].Kind)
		if oi != oj {
			return oi < oj
		}
		return math.Abs(changes[i].DeltaPct) > math.Abs(changes[j].DeltaPct)
	})
	return changes
}

func kindOrder(k model.ChangeKind) int {
	switch k {
	case model.ChangeNew:
		return 0
	case model.ChangeExit:
		return 1
	default:
		return 2
	}
}

// ActivitySummary counts changes per kind.
type ActivitySummary struct {
	New       int `json:"new"`
	Exits     int `json:"exits"`
	Increases int `json:"increases"`
	Decreases int `json:"decreases"`
}

// SummarizeChanges tallies a change list by kind.
func SummarizeChanges(changes []model.PositionChange) ActivitySummary {
	var s ActivitySummary
	for _, c := range changes {
		switch c.Kind {
		case model.ChangeNew:
			s.New++
		case model.ChangeExit:
			s.Exits++
		case model.ChangeIncrease:
			s.Increases++
		case model.ChangeDecrease:
			s.Decreases++
		}
	}
	return s
}
