package scoring

import (
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
)

// Engine turns a raw ticker snapshot into a composite risk result. It holds
// only read-only configuration, so one Engine is safe for concurrent scoring
// across tickers.
type Engine struct {
	norm *MetricNormalizer
	agg  *BubbleRiskAggregator
}

// NewEngine validates cfg and builds the engine. An invalid weight vector or
// threshold ladder is a startup error, never a scoring-time one.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Engine{
		norm: NewMetricNormalizer(cfg.Caps),
		agg:  NewBubbleRiskAggregator(cfg.Weights, cfg.Thresholds),
	}, nil
}

// Score computes the composite risk for one snapshot. Pure and total: sparse
// or absent sections follow the neutral-default path, never an error.
func (e *Engine) Score(s *models.RawTickerSnapshot) models.CompositeRiskResult {
	if s == nil {
		s = &models.RawTickerSnapshot{}
	}
	categories := e.norm.CategoryScores(s)
	composite := e.agg.Composite(categories)

	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return models.CompositeRiskResult{
		Ticker:     s.Ticker,
		Timestamp:  ts,
		Composite:  composite,
		Categories: categories,
		Label:      e.agg.Label(composite),
	}
}
