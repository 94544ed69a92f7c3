package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"BubbleWatch/internal/domain/models"
	icache "BubbleWatch/internal/service/cache"
	pkgcache "BubbleWatch/pkg/cache"
)

type fakeResultStore struct {
	latest  *models.CompositeRiskResult
	history []models.CompositeRiskResult
	snaps   []models.RawTickerSnapshot
	calls   int
}

func (f *fakeResultStore) GetLatestResult(ctx context.Context, ticker string) (*models.CompositeRiskResult, error) {
	f.calls++
	return f.latest, nil
}

func (f *fakeResultStore) GetResultHistory(ctx context.Context, ticker string, from, to time.Time, limit int) ([]models.CompositeRiskResult, error) {
	if limit < len(f.history) {
		return f.history[:limit], nil
	}
	return f.history, nil
}

func (f *fakeResultStore) GetLatestSnapshots(ctx context.Context, ticker string, limit int) ([]models.RawTickerSnapshot, error) {
	return f.snaps, nil
}

func result(ticker string, composite float64) *models.CompositeRiskResult {
	return &models.CompositeRiskResult{
		Ticker:    ticker,
		Timestamp: time.Now().UTC(),
		Composite: composite,
		Label:     models.RiskModerate,
	}
}

func TestLatestPrefersCache(t *testing.T) {
	store := &fakeResultStore{latest: result("NVDA", 0.3)}
	q := NewRiskQueryUseCase(store)
	c := icache.NewServiceCache(pkgcache.NewMemoryCache())
	q.SetCache(c, time.Minute)

	cached := result("NVDA", 0.7)
	b, _ := json.Marshal(cached)
	_ = c.SetBytes(LatestCacheKey("NVDA"), b, time.Minute)

	res, err := q.Latest(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if res.Composite != 0.7 {
		t.Fatalf("expected cached result, got %v", res.Composite)
	}
	if store.calls != 0 {
		t.Fatalf("cache hit must not touch storage, calls=%d", store.calls)
	}
}

func TestLatestFallsBackToStoreAndFillsCache(t *testing.T) {
	store := &fakeResultStore{latest: result("NVDA", 0.3)}
	q := NewRiskQueryUseCase(store)
	c := icache.NewServiceCache(pkgcache.NewMemoryCache())
	q.SetCache(c, time.Minute)

	res, err := q.Latest(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if res.Composite != 0.3 {
		t.Fatalf("expected store result, got %v", res.Composite)
	}
	if _, ok, _ := c.GetBytes(LatestCacheKey("NVDA")); !ok {
		t.Fatal("store result not written back to cache")
	}
}

func TestLatestRequiresTicker(t *testing.T) {
	q := NewRiskQueryUseCase(&fakeResultStore{})
	if _, err := q.Latest(context.Background(), ""); err == nil {
		t.Fatal("empty ticker should fail")
	}
}

func TestHistoryValidatesWindow(t *testing.T) {
	q := NewRiskQueryUseCase(&fakeResultStore{})
	now := time.Now()
	_, err := q.History(context.Background(), HistoryParams{
		Ticker: "NVDA",
		From:   now,
		To:     now.Add(-time.Hour),
	})
	if err == nil {
		t.Fatal("inverted window should fail")
	}
}

func TestHistoryReturnsCount(t *testing.T) {
	store := &fakeResultStore{history: []models.CompositeRiskResult{
		*result("NVDA", 0.5),
		*result("NVDA", 0.4),
	}}
	q := NewRiskQueryUseCase(store)
	now := time.Now()
	res, err := q.History(context.Background(), HistoryParams{
		Ticker: "NVDA",
		From:   now.Add(-time.Hour),
		To:     now,
	})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if res.Count != 2 || len(res.Results) != 2 {
		t.Fatalf("expected 2 results, got count=%d len=%d", res.Count, len(res.Results))
	}
}

func TestSnapshotsClampsLimit(t *testing.T) {
	q := NewRiskQueryUseCase(&fakeResultStore{})
	if _, err := q.Snapshots(context.Background(), "NVDA", -5); err != nil {
		t.Fatalf("snapshots: %v", err)
	}
	if _, err := q.Snapshots(context.Background(), "", 10); err == nil {
		t.Fatal("empty ticker should fail")
	}
}
