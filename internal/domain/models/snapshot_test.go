package models

import (
	"encoding/json"
	"testing"
)

func TestMarketDataTolerantDecode(t *testing.T) {
	raw := []byte(`{
		"peRatio": 30.5,
		"forwardPe": "25",
		"beta": null,
		"volume": "junk",
		"avgVolume": [1, 2]
	}`)
	var m MarketData
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.PERatio == nil || *m.PERatio != 30.5 {
		t.Fatalf("peRatio = %v, want 30.5", m.PERatio)
	}
	if m.ForwardPE == nil || *m.ForwardPE != 25 {
		t.Fatalf("forwardPe string should parse, got %v", m.ForwardPE)
	}
	if m.Beta != nil {
		t.Fatalf("null beta should be absent")
	}
	if m.Volume != nil || m.AvgVolume != nil {
		t.Fatalf("malformed volume fields should be absent")
	}
	if m.PriceToSales != nil {
		t.Fatalf("missing key should be absent")
	}
}

func TestMarketDataNullEqualsOmitted(t *testing.T) {
	var withNull, without MarketData
	if err := json.Unmarshal([]byte(`{"peRatio": null, "forwardPe": 25}`), &withNull); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal([]byte(`{"forwardPe": 25}`), &without); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if withNull.PERatio != nil {
		t.Fatalf("null peRatio = %v, must be absent, not zero", *withNull.PERatio)
	}
	if without.PERatio != nil {
		t.Fatalf("omitted peRatio must be absent")
	}
	if withNull.ForwardPE == nil || without.ForwardPE == nil || *withNull.ForwardPE != *without.ForwardPE {
		t.Fatalf("null sibling field must decode identically to the omitted case")
	}
}

func TestAIMetricsNullCountsAbsent(t *testing.T) {
	raw := []byte(`{"patentCount": null, "aiMentions": null, "rdExpense": null}`)
	var a AIMetrics
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.PatentCount != nil || a.AIMentions != nil || a.RDExpense != nil {
		t.Fatalf("null fields must be absent: %+v", a)
	}
}

func TestAIMetricsTruncatesCounts(t *testing.T) {
	raw := []byte(`{"patentCount": 12.9, "aiMentions": "7", "rdExpense": 5e8}`)
	var a AIMetrics
	if err := json.Unmarshal(raw, &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.PatentCount == nil || *a.PatentCount != 12 {
		t.Fatalf("patentCount = %v, want 12", a.PatentCount)
	}
	if a.AIMentions == nil || *a.AIMentions != 7 {
		t.Fatalf("aiMentions = %v, want 7", a.AIMentions)
	}
	if a.RDExpense == nil || *a.RDExpense != 5e8 {
		t.Fatalf("rdExpense = %v, want 5e8", a.RDExpense)
	}
}

func TestSnapshotEmptyVsAbsentCollections(t *testing.T) {
	raw := []byte(`{"ticker": "TEST", "news": []}`)
	var s RawTickerSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.News == nil {
		t.Fatalf("explicit empty news must stay non-nil")
	}
	if s.ForumPosts != nil {
		t.Fatalf("omitted forumPosts must stay nil")
	}

	// presence must survive a store/publish round trip
	b, err := json.Marshal(&s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RawTickerSnapshot
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	if back.News == nil {
		t.Fatalf("empty news lost presence in round trip")
	}
	if back.ForumPosts != nil {
		t.Fatalf("absent forumPosts gained presence in round trip")
	}
}
