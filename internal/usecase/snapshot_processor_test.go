package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"BubbleWatch/internal/domain/models"
	icache "BubbleWatch/internal/service/cache"
	"BubbleWatch/internal/services/scoring"
	pkgcache "BubbleWatch/pkg/cache"
)

type fakePublisher struct {
	published int
	fail      bool
	closed    bool
}

func (f *fakePublisher) Publish(ctx context.Context, snap *models.RawTickerSnapshot, res *models.CompositeRiskResult) error {
	if f.fail {
		return fmt.Errorf("kafka down")
	}
	f.published++
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeStorage struct {
	stored []models.CompositeRiskResult
}

func (f *fakeStorage) Init(ctx context.Context) error { return nil }
func (f *fakeStorage) Store(ctx context.Context, snap *models.RawTickerSnapshot, res *models.CompositeRiskResult) error {
	f.stored = append(f.stored, *res)
	return nil
}
func (f *fakeStorage) Health(ctx context.Context) error { return nil }
func (f *fakeStorage) Close() error                     { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordMessageSent(string, string)       {}
func (nopMetrics) RecordError(string)                     {}
func (nopMetrics) RecordRisk(*models.CompositeRiskResult) {}
func (nopMetrics) RecordLatency(string, float64)          {}

func newTestEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	engine, err := scoring.NewEngine(scoring.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return engine
}

func testSnap(ticker string) *models.RawTickerSnapshot {
	return &models.RawTickerSnapshot{
		Ticker:    ticker,
		Timestamp: time.Now().UTC(),
		Market:    &models.MarketData{PERatio: models.Float(25)},
	}
}

func TestProcessorRoutesToKafka(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStorage{}
	proc := NewSnapshotProcessor(newTestEngine(t), pub, store, nopMetrics{}, "kafka")

	if err := proc.Process(context.Background(), testSnap("NVDA")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if pub.published != 1 {
		t.Fatalf("expected 1 publish, got %d", pub.published)
	}
	if len(store.stored) != 0 {
		t.Fatalf("kafka backend must not write storage directly, got %d", len(store.stored))
	}
}

func TestProcessorRoutesToClickHouse(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeStorage{}
	proc := NewSnapshotProcessor(newTestEngine(t), pub, store, nopMetrics{}, "clickhouse")

	if err := proc.Process(context.Background(), testSnap("NVDA")); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.stored) != 1 {
		t.Fatalf("expected 1 store, got %d", len(store.stored))
	}
	if store.stored[0].Ticker != "NVDA" {
		t.Fatalf("stored wrong ticker: %s", store.stored[0].Ticker)
	}
}

func TestProcessorUnknownBackend(t *testing.T) {
	proc := NewSnapshotProcessor(newTestEngine(t), &fakePublisher{}, &fakeStorage{}, nopMetrics{}, "mysql")
	if err := proc.Process(context.Background(), testSnap("NVDA")); err == nil {
		t.Fatal("unknown backend should fail")
	}
}

func TestProcessorUpdatesCacheAndSinks(t *testing.T) {
	proc := NewSnapshotProcessor(newTestEngine(t), &fakePublisher{}, &fakeStorage{}, nopMetrics{}, "clickhouse")
	c := icache.NewServiceCache(pkgcache.NewMemoryCache())
	proc.SetCache(c, time.Minute)

	var notified []string
	proc.AddSink(sinkFunc(func(res *models.CompositeRiskResult) {
		notified = append(notified, res.Ticker)
	}))

	if err := proc.Process(context.Background(), testSnap("NVDA")); err != nil {
		t.Fatalf("process: %v", err)
	}

	b, ok, err := c.GetBytes(LatestCacheKey("NVDA"))
	if err != nil || !ok {
		t.Fatalf("cache miss after process: ok=%v err=%v", ok, err)
	}
	var res models.CompositeRiskResult
	if err := json.Unmarshal(b, &res); err != nil {
		t.Fatalf("cached payload: %v", err)
	}
	if res.Ticker != "NVDA" {
		t.Fatalf("cached wrong ticker: %s", res.Ticker)
	}
	if len(notified) != 1 || notified[0] != "NVDA" {
		t.Fatalf("sink not notified: %v", notified)
	}
}

type sinkFunc func(*models.CompositeRiskResult)

func (f sinkFunc) Notify(res *models.CompositeRiskResult) { f(res) }

func TestProcessorCloseReleasesBackends(t *testing.T) {
	pub := &fakePublisher{}
	proc := NewSnapshotProcessor(newTestEngine(t), pub, &fakeStorage{}, nopMetrics{}, "kafka")
	proc.Close()
	if !pub.closed {
		t.Fatal("publisher not closed")
	}
}
