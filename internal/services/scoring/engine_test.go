package scoring

import (
	"encoding/json"
	"math"
	"testing"

	"BubbleWatch/internal/domain/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestEmptySnapshotIsNeutral(t *testing.T) {
	e := newTestEngine(t)
	res := e.Score(&models.RawTickerSnapshot{Ticker: "TEST"})
	for cat, s := range res.Categories {
		if s != 0.5 {
			t.Fatalf("category %s = %v, want 0.5", cat, s)
		}
	}
	if !almostEqual(res.Composite, 0.5) {
		t.Fatalf("composite = %v, want 0.5", res.Composite)
	}
	if res.Label != models.RiskModerate {
		t.Fatalf("label = %q, want %q", res.Label, models.RiskModerate)
	}
}

func TestNilSnapshotScores(t *testing.T) {
	e := newTestEngine(t)
	res := e.Score(nil)
	if !almostEqual(res.Composite, 0.5) {
		t.Fatalf("nil snapshot composite = %v, want 0.5", res.Composite)
	}
}

func TestCompositeStaysInUnitInterval(t *testing.T) {
	e := newTestEngine(t)
	snaps := []*models.RawTickerSnapshot{
		{},
		{Market: &models.MarketData{PERatio: models.Float(1e9), Beta: models.Float(1e9)}},
		{Market: &models.MarketData{PERatio: models.Float(-1e9), Beta: models.Float(-1e9)}},
		{
			Market:    &models.MarketData{PERatio: models.Float(500), PriceChange1M: models.Float(-5)},
			AIMetrics: &models.AIMetrics{RDExpense: models.Float(9e12), AIMentions: models.Int(1000)},
			News:      make([]models.NewsItem, 500),
		},
	}
	for i, s := range snaps {
		res := e.Score(s)
		if res.Composite < 0 || res.Composite > 1 {
			t.Fatalf("case %d: composite %v outside [0,1]", i, res.Composite)
		}
		for cat, cs := range res.Categories {
			if cs < 0 || cs > 1 {
				t.Fatalf("case %d: category %s = %v outside [0,1]", i, cat, cs)
			}
		}
	}
}

func TestMonotonicityInSingleMetric(t *testing.T) {
	e := newTestEngine(t)
	prev := -1.0
	for pe := 0.0; pe <= 80; pe += 5 {
		res := e.Score(&models.RawTickerSnapshot{
			Market: &models.MarketData{PERatio: models.Float(pe)},
		})
		if res.Composite < prev {
			t.Fatalf("composite decreased at pe=%v: %v < %v", pe, res.Composite, prev)
		}
		prev = res.Composite
	}
}

func TestLabelBoundaries(t *testing.T) {
	cfg := DefaultConfig()
	agg := NewBubbleRiskAggregator(cfg.Weights, cfg.Thresholds)
	cases := []struct {
		composite float64
		want      models.RiskLabel
	}{
		{0.8, models.RiskExtreme},
		{0.79999, models.RiskHigh},
		{0.6, models.RiskHigh},
		{0.4, models.RiskModerate},
		{0.2, models.RiskLow},
		{0.19999, models.RiskMinimal},
		{0.0, models.RiskMinimal},
		{1.0, models.RiskExtreme},
	}
	for _, c := range cases {
		if got := agg.Label(c.composite); got != c.want {
			t.Errorf("label(%v) = %q, want %q", c.composite, got, c.want)
		}
	}
}

func TestEndToEndExample(t *testing.T) {
	e := newTestEngine(t)
	snap := &models.RawTickerSnapshot{
		Ticker: "NVDA",
		Market: &models.MarketData{
			PERatio:       models.Float(30),
			ForwardPE:     models.Float(25),
			PriceToSales:  models.Float(10),
			Volume:        models.Float(1_000_000),
			AvgVolume:     models.Float(500_000),
			Beta:          models.Float(1.5),
			PriceChange1M: models.Float(0.2),
		},
		AIMetrics: &models.AIMetrics{
			RDExpense:   models.Float(5e8),
			RDToRevenue: models.Float(0.15),
			PatentCount: models.Int(50),
			AIMentions:  models.Int(10),
		},
		News:       []models.NewsItem{{Title: "a"}, {Title: "b"}},
		ForumPosts: []models.ForumPost{{Score: 100, NumComments: 50}},
	}
	res := e.Score(snap)

	wantCats := map[models.Category]float64{
		models.CategoryValuation:  (0.6 + 0.625 + 0.5) / 3,
		models.CategorySentiment:  (0.04 + 0.05 + 0.1) / 3,
		models.CategoryGrowth:     (0.4 + 0.5) / 2,
		models.CategoryAIExposure: 0.5,
		models.CategoryMarket:     (2.0/3 + 0.75) / 2,
	}
	for cat, want := range wantCats {
		if got := res.Categories[cat]; !almostEqual(got, want) {
			t.Errorf("category %s = %v, want %v", cat, got, want)
		}
	}

	wantComposite := 0.3*wantCats[models.CategoryValuation] +
		0.2*wantCats[models.CategorySentiment] +
		0.2*wantCats[models.CategoryGrowth] +
		0.15*wantCats[models.CategoryAIExposure] +
		0.15*wantCats[models.CategoryMarket]
	if !almostEqual(res.Composite, wantComposite) {
		t.Fatalf("composite = %v, want %v", res.Composite, wantComposite)
	}
	if math.Abs(res.Composite-0.457) > 0.005 {
		t.Fatalf("composite = %v, expected near 0.457", res.Composite)
	}
	if res.Label != models.RiskModerate {
		t.Fatalf("label = %q, want %q", res.Label, models.RiskModerate)
	}
}

func TestMalformedFieldsAreTreatedAsAbsent(t *testing.T) {
	e := newTestEngine(t)
	raw := []byte(`{
		"ticker": "TEST",
		"market": {"peRatio": "not-a-number", "beta": {"x": 1}, "forwardPe": "25"}
	}`)
	var snap models.RawTickerSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.Market.PERatio != nil {
		t.Fatalf("junk peRatio should decode as absent")
	}
	if snap.Market.ForwardPE == nil || *snap.Market.ForwardPE != 25 {
		t.Fatalf("numeric string forwardPe should decode as 25")
	}
	res := e.Score(&snap)
	// only forwardPe usable: valuation = 25/40
	if got := res.Categories[models.CategoryValuation]; !almostEqual(got, 0.625) {
		t.Fatalf("valuation = %v, want 0.625", got)
	}
}

func TestNullFieldScoresSameAsOmitted(t *testing.T) {
	e := newTestEngine(t)
	raw := []byte(`{
		"ticker": "TEST",
		"market": {"peRatio": null, "forwardPe": 25}
	}`)
	var snap models.RawTickerSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	res := e.Score(&snap)
	// a null metric must not enter the mean as zero: only forwardPe counts
	if got := res.Categories[models.CategoryValuation]; !almostEqual(got, 0.625) {
		t.Fatalf("valuation = %v, want 0.625", got)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.Weights[models.CategoryValuation] = 0.5
	if _, err := NewEngine(bad); err == nil {
		t.Fatalf("weights not summing to 1 must fail")
	}

	bad = DefaultConfig()
	bad.Weights[models.CategoryMarket] = -0.15
	bad.Weights[models.CategoryValuation] = 0.60
	if _, err := NewEngine(bad); err == nil {
		t.Fatalf("negative weight must fail")
	}

	bad = DefaultConfig()
	bad.Caps.Beta = 0
	if _, err := NewEngine(bad); err == nil {
		t.Fatalf("zero cap must fail")
	}

	bad = DefaultConfig()
	bad.Thresholds.High = 0.9
	if _, err := NewEngine(bad); err == nil {
		t.Fatalf("non-descending thresholds must fail")
	}
}

func TestWeightSumTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights[models.CategoryValuation] = 0.30 + 5e-10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sub-tolerance drift should pass: %v", err)
	}
	cfg.Weights[models.CategoryValuation] = 0.30 + 1e-6
	if err := cfg.Validate(); err == nil {
		t.Fatalf("above-tolerance drift should fail")
	}
}
