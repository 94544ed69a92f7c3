package di

import (
	"testing"

	"BubbleWatch/internal/domain/models"
	"BubbleWatch/pkg/config"
)

func TestScoringEngineCapsOverride(t *testing.T) {
	pe := 100.0
	snap := &models.RawTickerSnapshot{Ticker: "TEST", Market: &models.MarketData{PERatio: &pe}}

	def, err := ProvideScoringEngine(&config.Config{})
	if err != nil {
		t.Fatalf("default engine: %v", err)
	}
	if got := def.Score(snap).Categories[models.CategoryValuation]; got != 1 {
		t.Fatalf("valuation with default cap = %v, want saturated 1", got)
	}

	var cfg config.Config
	cfg.Scoring.Caps = map[string]float64{"pe_ratio": 200}
	eng, err := ProvideScoringEngine(&cfg)
	if err != nil {
		t.Fatalf("engine with cap override: %v", err)
	}
	if got := eng.Score(snap).Categories[models.CategoryValuation]; got != 0.5 {
		t.Fatalf("valuation with pe_ratio cap 200 = %v, want 0.5", got)
	}
}

func TestScoringEngineRejectsUnknownCap(t *testing.T) {
	var cfg config.Config
	cfg.Scoring.Caps = map[string]float64{"pe": 10}
	if _, err := ProvideScoringEngine(&cfg); err == nil {
		t.Fatal("unknown cap name must fail startup")
	}
}

func TestScoringEngineRejectsNonPositiveCap(t *testing.T) {
	var cfg config.Config
	cfg.Scoring.Caps = map[string]float64{"beta": 0}
	if _, err := ProvideScoringEngine(&cfg); err == nil {
		t.Fatal("zero cap must fail validation")
	}
}
