package scoring

import (
	"BubbleWatch/internal/domain/models"
)

// BubbleRiskAggregator folds category scores into one composite under a fixed
// weight vector and maps the composite to a risk label.
type BubbleRiskAggregator struct {
	weights    map[models.Category]float64
	thresholds Thresholds
}

// NewBubbleRiskAggregator builds an aggregator over validated weights.
func NewBubbleRiskAggregator(weights map[models.Category]float64, thresholds Thresholds) *BubbleRiskAggregator {
	return &BubbleRiskAggregator{weights: weights, thresholds: thresholds}
}

// Composite returns the weighted dot product of the category scores. With
// category scores in [0,1] and weights summing to 1 the result stays in [0,1].
func (a *BubbleRiskAggregator) Composite(categories map[models.Category]float64) float64 {
	total := 0.0
	for _, cat := range models.Categories() {
		total += a.weights[cat] * categories[cat]
	}
	return total
}

// Label classifies a composite score, highest threshold first.
func (a *BubbleRiskAggregator) Label(composite float64) models.RiskLabel {
	switch {
	case composite >= a.thresholds.Extreme:
		return models.RiskExtreme
	case composite >= a.thresholds.High:
		return models.RiskHigh
	case composite >= a.thresholds.Moderate:
		return models.RiskModerate
	case composite >= a.thresholds.Low:
		return models.RiskLow
	default:
		return models.RiskMinimal
	}
}
