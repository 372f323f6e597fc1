package model

// Level is a clustered price zone acting as support or resistance.
// Price is the mean of the cluster members; Strength counts how many
// swing points were merged into it.
type Level struct {
	Price    float64 `json:"price"`
	Strength int     `json:"strength"`
}

// Target is one take-profit suggestion derived from a resistance level.
type Target struct {
	Price float64 `json:"price"`
	Label string  `json:"label"`
	Pct   float64 `json:"pct"`
}

// TradePlan is the output of the entry/stop/target selector. It has no
// lifecycle beyond the call that produced it.
type TradePlan struct {
	Entry            float64  `json:"entry_point"`
	StopLoss         float64  `json:"stop_loss"`
	StopLossPct      float64  `json:"stop_loss_pct"`
	Targets          []Target `json:"targets"`
	RiskReward       float64  `json:"risk_reward_ratio"`
	SupportLevels    []Level  `json:"support_levels"`
	ResistanceLevels []Level  `json:"resistance_levels"`
	Degraded         bool     `json:"degraded,omitempty"` // true when the fixed fallback plan was used
}
