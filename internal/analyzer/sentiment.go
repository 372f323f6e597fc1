package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"MarketCompass/internal/collector"
	"MarketCompass/internal/model"
)

// Keyword lists match the Korean-language headlines the news source
// serves; labels and summaries stay English.
var (
	strongPositiveKeywords = []string{"급등", "폭등", "신고가", "사상최고", "대호재", "급반등"}
	positiveKeywords       = []string{"상승", "호재", "매수", "상향", "호실적", "성장", "회복", "반등", "강세", "호조", "개선", "확대"}
	strongNegativeKeywords = []string{"급락", "폭락", "신저가", "대폭하락", "대악재", "붕괴"}
	negativeKeywords       = []string{"하락", "악재", "매도", "하향", "부진", "우려", "리스크", "조정", "약세", "감소", "위축", "둔화"}
)

const (
	strongKeywordWeight = 3
	normalKeywordWeight = 1
)

// SentimentAnalyzer scores market mood from news headlines and ranks
// pension-account ETFs by volatility-adjusted returns.
type SentimentAnalyzer struct {
	News *collector.NewsFetcher
}

func NewSentimentAnalyzer(news *collector.NewsFetcher) *SentimentAnalyzer {
	return &SentimentAnalyzer{News: news}
}

// ScoreHeadlines runs weighted keyword counting over the given headlines.
// Score is (positive − negative) / total × 100, in −100..+100.
func ScoreHeadlines(headlines []string) model.Sentiment {
	var positive, negative int
	for _, h := range headlines {
		for _, kw := range strongPositiveKeywords {
			if strings.Contains(h, kw) {
				positive += strongKeywordWeight
			}
		}
		for _, kw := range positiveKeywords {
			if strings.Contains(h, kw) {
				positive += normalKeywordWeight
			}
		}
		for _, kw := range strongNegativeKeywords {
			if strings.Contains(h, kw) {
				negative += strongKeywordWeight
			}
		}
		for _, kw := range negativeKeywords {
			if strings.Contains(h, kw) {
				negative += normalKeywordWeight
			}
		}
	}

	var score int
	if total := positive + negative; total > 0 {
		score = (positive - negative) * 100 / total
	}

	return model.Sentiment{
		Score:     score,
		Label:     sentimentLabel(score),
		Positive:  positive,
		Negative:  negative,
		Headlines: len(headlines),
	}
}

func sentimentLabel(score int) string {
	switch {
	case score > 40:
		return "bullish"
	case score > 10:
		return "mildly bullish"
	case score < -40:
		return "bearish"
	case score < -10:
		return "mildly bearish"
	default:
		return "neutral"
	}
}

// MarketSentiment fetches recent headlines and scores them.
func (a *SentimentAnalyzer) MarketSentiment(ctx context.Context) (model.Sentiment, error) {
	headlines, err := a.News.Headlines(ctx, 30)
	if err != nil {
		return model.Sentiment{}, fmt.Errorf("market sentiment: %w", err)
	}
	return ScoreHeadlines(headlines), nil
}

// riskAdjustedScore discounts a return by volatility, Sharpe-like:
// return / (1 + vol/100).
func riskAdjustedScore(ret, volatility float64) float64 {
	if volatility <= 0 {
		return ret
	}
	return ret / (1 + volatility/100)
}

// QuickPicks ranks ETFs by volatility-adjusted blended returns: 1-month
// weighted 0.5, 3-month weighted 0.3, a persistence bonus when both are
// positive, and an overheat penalty past +15% in a month.
func QuickPicks(etfs []model.ETFStat, topN int) []model.Recommendation {
	var recs []model.Recommendation
	for _, etf := range etfs {
		raw := etf.Return1M*0.5 + etf.Return3M*0.3
		score := riskAdjustedScore(raw, etf.Volatility)

		var signals []string
		if etf.Return1M > 0 && etf.Return3M > 0 {
			score += 5
			signals = append(signals, "sustained uptrend")
		}
		if etf.Return1M > 15 {
			score -= 3
			signals = append(signals, fmt.Sprintf("overheated (+%.0f%% in 1m)", etf.Return1M))
		}

		recs = append(recs, model.Recommendation{
			Symbol:  etf.Symbol,
			Name:    etf.Name,
			Price:   etf.Price,
			Score:   score,
			Signals: signals,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > topN {
		recs = recs[:topN]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

// ThemeETFs filters ETFs whose names match any of the theme keywords.
func ThemeETFs(etfs []model.ETFStat, keywords []string, topN int) []model.ETFStat {
	var matched []model.ETFStat
	for _, etf := range etfs {
		upper := strings.ToUpper(etf.Name)
		for _, kw := range keywords {
			if strings.Contains(upper, strings.ToUpper(kw)) {
				matched = append(matched, etf)
				break
			}
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Return1M > matched[j].Return1M })
	if len(matched) > topN {
		matched = matched[:topN]
	}
	return matched
}
