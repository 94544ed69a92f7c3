package scoring

import (
	"fmt"
	"math"

	"BubbleWatch/internal/domain/models"
)

// weightSumTolerance bounds float drift when weights come from YAML.
const weightSumTolerance = 1e-9

// Caps are the per-metric saturation points: the raw value at which a
// normalized sub-score reaches 1.0.
type Caps struct {
	PERatio       float64 `yaml:"pe_ratio"`
	ForwardPE     float64 `yaml:"forward_pe"`
	PriceToSales  float64 `yaml:"price_to_sales"`
	PriceChange1M float64 `yaml:"price_change_1m"`
	RDToRevenue   float64 `yaml:"rd_to_revenue"`
	RDExpense     float64 `yaml:"rd_expense"`
	AIMentions    float64 `yaml:"ai_mentions"`
	PatentCount   float64 `yaml:"patent_count"`
	VolumeRatio   float64 `yaml:"volume_ratio"`
	Beta          float64 `yaml:"beta"`
	NewsVolume    float64 `yaml:"news_volume"`
	TotalComments float64 `yaml:"total_comments"`
	AvgPostScore  float64 `yaml:"avg_post_score"`
}

// Set overrides a single cap by its config name. It reports whether the
// name is known.
func (c *Caps) Set(name string, v float64) bool {
	fields := map[string]*float64{
		"pe_ratio":        &c.PERatio,
		"forward_pe":      &c.ForwardPE,
		"price_to_sales":  &c.PriceToSales,
		"price_change_1m": &c.PriceChange1M,
		"rd_to_revenue":   &c.RDToRevenue,
		"rd_expense":      &c.RDExpense,
		"ai_mentions":     &c.AIMentions,
		"patent_count":    &c.PatentCount,
		"volume_ratio":    &c.VolumeRatio,
		"beta":            &c.Beta,
		"news_volume":     &c.NewsVolume,
		"total_comments":  &c.TotalComments,
		"avg_post_score":  &c.AvgPostScore,
	}
	p, ok := fields[name]
	if !ok {
		return false
	}
	*p = v
	return true
}

// Thresholds map a composite score to a label, evaluated high to low.
type Thresholds struct {
	Extreme  float64 `yaml:"extreme"`
	High     float64 `yaml:"high"`
	Moderate float64 `yaml:"moderate"`
	Low      float64 `yaml:"low"`
}

// Config is the fixed configuration of the risk engine: category weights,
// per-metric caps, and label thresholds. It is immutable after validation.
type Config struct {
	Weights    map[models.Category]float64 `yaml:"weights"`
	Caps       Caps                        `yaml:"caps"`
	Thresholds Thresholds                  `yaml:"thresholds"`
}

// DefaultConfig returns the engine constants.
func DefaultConfig() Config {
	return Config{
		Weights: map[models.Category]float64{
			models.CategoryValuation:  0.30,
			models.CategorySentiment:  0.20,
			models.CategoryGrowth:     0.20,
			models.CategoryAIExposure: 0.15,
			models.CategoryMarket:     0.15,
		},
		Caps: Caps{
			PERatio:       50,
			ForwardPE:     40,
			PriceToSales:  20,
			PriceChange1M: 0.5,
			RDToRevenue:   0.3,
			RDExpense:     1e9,
			AIMentions:    20,
			PatentCount:   100,
			VolumeRatio:   3,
			Beta:          2,
			NewsVolume:    50,
			TotalComments: 1000,
			AvgPostScore:  1000,
		},
		Thresholds: Thresholds{
			Extreme:  0.8,
			High:     0.6,
			Moderate: 0.4,
			Low:      0.2,
		},
	}
}

// Validate checks configuration shape. A skewed weight vector or
// non-monotonic thresholds must refuse to run rather than silently
// corrupt every composite score.
func (c Config) Validate() error {
	sum := 0.0
	for _, cat := range models.Categories() {
		w, ok := c.Weights[cat]
		if !ok {
			return fmt.Errorf("scoring: missing weight for category %q", cat)
		}
		if w < 0 {
			return fmt.Errorf("scoring: negative weight %v for category %q", w, cat)
		}
		sum += w
	}
	if len(c.Weights) != len(models.Categories()) {
		return fmt.Errorf("scoring: unknown category in weights")
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("scoring: weights sum to %v, want 1.0", sum)
	}

	for name, cap := range map[string]float64{
		"pe_ratio":        c.Caps.PERatio,
		"forward_pe":      c.Caps.ForwardPE,
		"price_to_sales":  c.Caps.PriceToSales,
		"price_change_1m": c.Caps.PriceChange1M,
		"rd_to_revenue":   c.Caps.RDToRevenue,
		"rd_expense":      c.Caps.RDExpense,
		"ai_mentions":     c.Caps.AIMentions,
		"patent_count":    c.Caps.PatentCount,
		"volume_ratio":    c.Caps.VolumeRatio,
		"beta":            c.Caps.Beta,
		"news_volume":     c.Caps.NewsVolume,
		"total_comments":  c.Caps.TotalComments,
		"avg_post_score":  c.Caps.AvgPostScore,
	} {
		if cap <= 0 {
			return fmt.Errorf("scoring: cap %s must be positive, got %v", name, cap)
		}
	}

	t := c.Thresholds
	if !(t.Extreme > t.High && t.High > t.Moderate && t.Moderate > t.Low) {
		return fmt.Errorf("scoring: thresholds must be strictly descending")
	}
	if t.Extreme >= 1 || t.Low <= 0 {
		return fmt.Errorf("scoring: thresholds must lie in (0,1)")
	}
	return nil
}
