package middleware

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"BubbleWatch/internal/domain/models"
)

type fakeProc struct {
	mu    sync.Mutex
	seen  []string
	fail  bool
	calls int
}

func (f *fakeProc) Process(ctx context.Context, s *models.RawTickerSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return fmt.Errorf("backend down")
	}
	f.seen = append(f.seen, s.Ticker)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)       {}
func (nopMetrics) RecordError(string)                     {}
func (nopMetrics) RecordRisk(*models.CompositeRiskResult) {}
func (nopMetrics) RecordLatency(string, float64)          {}

func snap(ticker string) *models.RawTickerSnapshot {
	return &models.RawTickerSnapshot{Ticker: ticker, Timestamp: time.Now()}
}

func TestPipelineForwards(t *testing.T) {
	proc := &fakeProc{}
	p := NewScorePipeline(proc, nopMetrics{})
	if err := p.Process(context.Background(), snap("NVDA")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.seen) != 1 || proc.seen[0] != "NVDA" {
		t.Fatalf("expected forwarded snapshot, got %v", proc.seen)
	}
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &fakeProc{}
	p := NewScorePipeline(proc, nopMetrics{})
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("nil snapshot should fail")
	}
	if err := p.Process(context.Background(), &models.RawTickerSnapshot{Timestamp: time.Now()}); err == nil {
		t.Fatal("empty ticker should fail")
	}
	if err := p.Process(context.Background(), &models.RawTickerSnapshot{Ticker: "NVDA"}); err == nil {
		t.Fatal("zero timestamp should fail")
	}
	if proc.calls != 0 {
		t.Fatalf("invalid snapshots must not reach downstream, got %d calls", proc.calls)
	}
}

func TestPipelineThrottlesPerTicker(t *testing.T) {
	proc := &fakeProc{}
	p := NewScorePipeline(proc, nopMetrics{}, WithMinInterval(time.Hour))
	_ = p.Process(context.Background(), snap("NVDA"))
	_ = p.Process(context.Background(), snap("NVDA"))
	_ = p.Process(context.Background(), snap("TSLA"))
	if len(proc.seen) != 2 {
		t.Fatalf("expected 2 forwarded (one per ticker), got %v", proc.seen)
	}
}

func TestPipelineBuffersOnFailure(t *testing.T) {
	proc := &fakeProc{fail: true}
	p := NewScorePipeline(proc, nopMetrics{}, WithBufferSize(4))
	err := p.Process(context.Background(), snap("NVDA"))
	if err == nil {
		t.Fatal("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("failed snapshot should be buffered, buf=%d", len(p.bufCh))
	}
}
