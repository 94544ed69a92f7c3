package scoring

import (
	"math"
	"testing"

	"BubbleWatch/internal/domain/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestValuationScoreAveragesPresentMetrics(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	m := &models.MarketData{
		PERatio:      models.Float(30),
		ForwardPE:    models.Float(25),
		PriceToSales: models.Float(10),
	}
	got := n.ValuationScore(m)
	want := (30.0/50 + 25.0/40 + 10.0/20) / 3
	if !almostEqual(got, want) {
		t.Fatalf("valuation score = %v, want %v", got, want)
	}
}

func TestValuationScoreNeutralWhenMissing(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	if got := n.ValuationScore(nil); got != neutralScore {
		t.Fatalf("nil market: got %v, want %v", got, neutralScore)
	}
	if got := n.ValuationScore(&models.MarketData{}); got != neutralScore {
		t.Fatalf("empty market: got %v, want %v", got, neutralScore)
	}
}

func TestCapSaturation(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	m := &models.MarketData{PERatio: models.Float(500)}
	if got := n.ValuationScore(m); got != 1 {
		t.Fatalf("pe 500 should clip to exactly 1, got %v", got)
	}
}

func TestNegativeMetricsClampToZero(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	m := &models.MarketData{
		PERatio: models.Float(-10),
		Beta:    models.Float(-1.5),
	}
	if got := n.ValuationScore(m); got != 0 {
		t.Fatalf("negative pe should clamp to 0, got %v", got)
	}
	if got := n.MarketScore(m); got != 0 {
		t.Fatalf("negative beta should clamp to 0, got %v", got)
	}
}

func TestGrowthScoreUsesAbsolutePriceChange(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	down := &models.MarketData{PriceChange1M: models.Float(-0.2)}
	up := &models.MarketData{PriceChange1M: models.Float(0.2)}
	if got, want := n.GrowthScore(down, nil), n.GrowthScore(up, nil); !almostEqual(got, want) {
		t.Fatalf("growth should use |change|: down=%v up=%v", got, want)
	}
	if got := n.GrowthScore(up, nil); !almostEqual(got, 0.4) {
		t.Fatalf("growth(0.2) = %v, want 0.4", got)
	}
}

func TestMarketScoreGuardsZeroAvgVolume(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	m := &models.MarketData{
		Volume:    models.Float(1e6),
		AvgVolume: models.Float(0),
	}
	// volume ratio excluded, no other metric -> neutral
	if got := n.MarketScore(m); got != neutralScore {
		t.Fatalf("zero avg volume should exclude ratio, got %v", got)
	}
	m.Beta = models.Float(1.0)
	if got := n.MarketScore(m); !almostEqual(got, 0.5) {
		t.Fatalf("beta-only market score = %v, want 0.5", got)
	}
}

func TestSentimentEmptyNewsIsZeroSignal(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)

	// fetched-but-empty news is a real zero, not missing data
	if got := n.SentimentScore([]models.NewsItem{}, nil); got != 0 {
		t.Fatalf("empty news list: got %v, want 0", got)
	}
	// nil news means never fetched -> neutral
	if got := n.SentimentScore(nil, nil); got != neutralScore {
		t.Fatalf("absent news: got %v, want %v", got, neutralScore)
	}
}

func TestSentimentBlendsForumActivity(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	news := []models.NewsItem{{Title: "a"}, {Title: "b"}}
	posts := []models.ForumPost{{Score: 100, NumComments: 50}}
	got := n.SentimentScore(news, posts)
	want := (2.0/50 + 50.0/1000 + 100.0/1000) / 3
	if !almostEqual(got, want) {
		t.Fatalf("sentiment = %v, want %v", got, want)
	}
}

func TestSentimentNegativePostScoreClamps(t *testing.T) {
	n := NewMetricNormalizer(DefaultConfig().Caps)
	posts := []models.ForumPost{{Score: -400, NumComments: 0}}
	got := n.SentimentScore(nil, posts)
	// commentScore 0 and postScore clamped to 0
	if got != 0 {
		t.Fatalf("downvoted-only forum: got %v, want 0", got)
	}
}

func TestMeanOrNeutral(t *testing.T) {
	if got := meanOrNeutral(nil); got != neutralScore {
		t.Fatalf("empty mean = %v, want %v", got, neutralScore)
	}
	if got := meanOrNeutral([]float64{0.2, 0.4}); !almostEqual(got, 0.3) {
		t.Fatalf("mean = %v, want 0.3", got)
	}
}
