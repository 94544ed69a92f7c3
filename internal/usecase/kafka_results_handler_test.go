package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"BubbleWatch/internal/domain/models"
)

func TestResultsHandlerStoresEnvelope(t *testing.T) {
	store := &fakeStorage{}
	h := NewKafkaResultsHandler("bubble.risk", store, nopMetrics{})

	env := models.ScoredSnapshot{
		Snapshot: &models.RawTickerSnapshot{Ticker: "NVDA", Timestamp: time.Now().UTC()},
		Result: models.CompositeRiskResult{
			Ticker:    "NVDA",
			Timestamp: time.Now().UTC(),
			Composite: 0.42,
			Label:     models.RiskModerate,
		},
	}
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(store.stored) != 1 || store.stored[0].Ticker != "NVDA" {
		t.Fatalf("envelope not stored: %+v", store.stored)
	}
	if h.Topic() != "bubble.risk" {
		t.Fatalf("topic: %s", h.Topic())
	}
}

func TestResultsHandlerRejectsGarbage(t *testing.T) {
	h := NewKafkaResultsHandler("bubble.risk", &fakeStorage{}, nopMetrics{})
	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("garbage payload should fail")
	}
	if err := h.Handle(context.Background(), []byte(`{"result":{}}`)); err == nil {
		t.Fatal("envelope without snapshot should fail")
	}
}
