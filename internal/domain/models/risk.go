package models

import "time"

// Category is one of the five risk dimensions blended into the composite.
type Category string

const (
	CategoryValuation  Category = "valuation"
	CategorySentiment  Category = "sentiment"
	CategoryGrowth     Category = "growth"
	CategoryAIExposure Category = "aiExposure"
	CategoryMarket     Category = "market"
)

// Categories lists all categories in weighting order.
func Categories() []Category {
	return []Category{
		CategoryValuation,
		CategorySentiment,
		CategoryGrowth,
		CategoryAIExposure,
		CategoryMarket,
	}
}

// RiskLabel is the discrete classification of a composite score.
type RiskLabel string

const (
	RiskExtreme  RiskLabel = "Extreme Risk"
	RiskHigh     RiskLabel = "High Risk"
	RiskModerate RiskLabel = "Moderate Risk"
	RiskLow      RiskLabel = "Low Risk"
	RiskMinimal  RiskLabel = "Minimal Risk"
)

// CompositeRiskResult is the engine output for one snapshot: the weighted
// composite in [0,1], the per-category breakdown, and the mapped label.
type CompositeRiskResult struct {
	Ticker     string               `json:"ticker"`
	Timestamp  time.Time            `json:"timestamp"`
	Composite  float64              `json:"compositeScore"`
	Categories map[Category]float64 `json:"categoryScores"`
	Label      RiskLabel            `json:"riskLabel"`
}

// ScoredSnapshot is the wire envelope published to Kafka: the raw snapshot
// together with the result scored at collection time.
type ScoredSnapshot struct {
	Snapshot *RawTickerSnapshot  `json:"snapshot"`
	Result   CompositeRiskResult `json:"result"`
}
