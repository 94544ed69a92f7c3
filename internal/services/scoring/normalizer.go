package scoring

import (
	"BubbleWatch/internal/domain/models"
)

// neutralScore is the category fallback when no underlying metric is usable.
// Missing data must not read as zero risk or maximum risk.
const neutralScore = 0.5

// MetricNormalizer maps raw heterogeneous metrics onto [0,1] with fixed
// cap-and-clip rules and averages the available metrics per category.
type MetricNormalizer struct {
	caps Caps
}

// NewMetricNormalizer builds a normalizer over the given caps.
func NewMetricNormalizer(caps Caps) *MetricNormalizer {
	return &MetricNormalizer{caps: caps}
}

// clamp01 bounds a score to [0,1]. Negative raw values (negative beta,
// downvoted posts) contribute 0, never a negative pull on the average.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// capScore normalizes value against cap and clips into [0,1].
func capScore(value, cap float64) float64 {
	return clamp01(value / cap)
}

// meanOrNeutral averages sub-scores, falling back to the neutral default
// when none are present.
func meanOrNeutral(scores []float64) float64 {
	if len(scores) == 0 {
		return neutralScore
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// ValuationScore blends P/E, forward P/E, and price-to-sales.
func (n *MetricNormalizer) ValuationScore(m *models.MarketData) float64 {
	var scores []float64
	if m != nil {
		if m.PERatio != nil {
			scores = append(scores, capScore(*m.PERatio, n.caps.PERatio))
		}
		if m.ForwardPE != nil {
			scores = append(scores, capScore(*m.ForwardPE, n.caps.ForwardPE))
		}
		if m.PriceToSales != nil {
			scores = append(scores, capScore(*m.PriceToSales, n.caps.PriceToSales))
		}
	}
	return meanOrNeutral(scores)
}

// SentimentScore blends news volume with forum engagement. News volume counts
// whenever the news list was fetched at all: an empty list is a real zero
// signal, distinct from a list that was never fetched (nil). The forum-derived
// scores need at least one post to be defined.
func (n *MetricNormalizer) SentimentScore(news []models.NewsItem, posts []models.ForumPost) float64 {
	var scores []float64
	if news != nil {
		scores = append(scores, capScore(float64(len(news)), n.caps.NewsVolume))
	}
	if len(posts) > 0 {
		totalComments := 0
		totalScore := 0
		for _, p := range posts {
			totalComments += p.NumComments
			totalScore += p.Score
		}
		scores = append(scores, capScore(float64(totalComments), n.caps.TotalComments))
		avgScore := float64(totalScore) / float64(len(posts))
		scores = append(scores, capScore(avgScore, n.caps.AvgPostScore))
	}
	return meanOrNeutral(scores)
}

// GrowthScore blends absolute one-month price change with R&D intensity.
func (n *MetricNormalizer) GrowthScore(m *models.MarketData, ai *models.AIMetrics) float64 {
	var scores []float64
	if m != nil && m.PriceChange1M != nil {
		change := *m.PriceChange1M
		if change < 0 {
			change = -change
		}
		scores = append(scores, capScore(change, n.caps.PriceChange1M))
	}
	if ai != nil && ai.RDToRevenue != nil {
		scores = append(scores, capScore(*ai.RDToRevenue, n.caps.RDToRevenue))
	}
	return meanOrNeutral(scores)
}

// AIExposureScore blends R&D spend, AI mentions, and patent count.
func (n *MetricNormalizer) AIExposureScore(ai *models.AIMetrics) float64 {
	var scores []float64
	if ai != nil {
		if ai.RDExpense != nil {
			scores = append(scores, capScore(*ai.RDExpense, n.caps.RDExpense))
		}
		if ai.AIMentions != nil {
			scores = append(scores, capScore(float64(*ai.AIMentions), n.caps.AIMentions))
		}
		if ai.PatentCount != nil {
			scores = append(scores, capScore(float64(*ai.PatentCount), n.caps.PatentCount))
		}
	}
	return meanOrNeutral(scores)
}

// MarketScore blends the volume-to-average ratio with beta. The ratio is only
// defined when both volumes are present and the average is nonzero.
func (n *MetricNormalizer) MarketScore(m *models.MarketData) float64 {
	var scores []float64
	if m != nil {
		if m.Volume != nil && m.AvgVolume != nil && *m.AvgVolume != 0 {
			ratio := *m.Volume / *m.AvgVolume
			scores = append(scores, capScore(ratio, n.caps.VolumeRatio))
		}
		if m.Beta != nil {
			scores = append(scores, capScore(*m.Beta, n.caps.Beta))
		}
	}
	return meanOrNeutral(scores)
}

// CategoryScores computes all five category scores for one snapshot.
func (n *MetricNormalizer) CategoryScores(s *models.RawTickerSnapshot) map[models.Category]float64 {
	return map[models.Category]float64{
		models.CategoryValuation:  n.ValuationScore(s.Market),
		models.CategorySentiment:  n.SentimentScore(s.News, s.ForumPosts),
		models.CategoryGrowth:     n.GrowthScore(s.Market, s.AIMetrics),
		models.CategoryAIExposure: n.AIExposureScore(s.AIMetrics),
		models.CategoryMarket:     n.MarketScore(s.Market),
	}
}
