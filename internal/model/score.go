package model

// ScoreComponent represents a single factor's contribution to a score.
type ScoreComponent struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// Recommendation is one scored pick produced by an analyzer.
type Recommendation struct {
	Rank       int              `json:"rank"`
	Symbol     string           `json:"symbol"`
	Name       string           `json:"name"`
	Price      float64          `json:"price"`
	Change24h  float64          `json:"change_24h,omitempty"`
	Score      float64          `json:"score"`
	Components []ScoreComponent `json:"components,omitempty"`
	Signals    []string         `json:"signals,omitempty"`
	Plan       *TradePlan       `json:"plan,omitempty"`
}

// Sentiment summarizes keyword-based news sentiment.
type Sentiment struct {
	Score     int    `json:"score"` // -100 ~ +100
	Label     string `json:"label"`
	Positive  int    `json:"positive"`
	Negative  int    `json:"negative"`
	Headlines int    `json:"headlines"`
}
