package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"BubbleWatch/internal/domain/models"
)

type fakeProviders struct {
	marketErr bool
	newsErr   bool
	news      []models.NewsItem
	posts     []models.ForumPost
	filings   []string
}

func (f *fakeProviders) MarketData(ctx context.Context, ticker string) (*models.MarketData, error) {
	if f.marketErr {
		return nil, fmt.Errorf("quote unavailable")
	}
	return &models.MarketData{PERatio: models.Float(30)}, nil
}

func (f *fakeProviders) AIMetrics(ctx context.Context, ticker string) (*models.AIMetrics, error) {
	return &models.AIMetrics{RDExpense: models.Float(1e8)}, nil
}

func (f *fakeProviders) News(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error) {
	if f.newsErr {
		return nil, fmt.Errorf("news unavailable")
	}
	return f.news, nil
}

func (f *fakeProviders) Filings(ctx context.Context, ticker string, limit int) ([]string, error) {
	return f.filings, nil
}

func (f *fakeProviders) ForumPosts(ctx context.Context, ticker string) ([]models.ForumPost, error) {
	return f.posts, nil
}

func testCollector(p *fakeProviders, proc *SnapshotProcessor) *SnapshotCollector {
	cfg := CollectorConfig{
		Tickers:         []string{"NVDA"},
		Interval:        time.Minute,
		ProviderTimeout: time.Second,
		MaxConcurrent:   2,
		NewsLimit:       50,
		FilingsLimit:    10,
		AIKeywords:      []string{"artificial intelligence", "machine learning"},
	}
	return NewSnapshotCollector(cfg, p, p, p, p, p, proc, nopMetrics{}, nil)
}

func TestCollectAssemblesAllSections(t *testing.T) {
	p := &fakeProviders{
		news:  []models.NewsItem{{Title: "AI boom"}},
		posts: []models.ForumPost{{Title: "to the moon", Score: 10}},
	}
	c := testCollector(p, nil)

	snap := c.Collect(context.Background(), "NVDA")
	if snap.Ticker != "NVDA" || snap.Timestamp.IsZero() {
		t.Fatalf("bad snapshot identity: %+v", snap)
	}
	if snap.Market == nil || snap.Market.PERatio == nil {
		t.Fatal("market section missing")
	}
	if snap.AIMetrics == nil || snap.AIMetrics.RDExpense == nil {
		t.Fatal("fundamentals section missing")
	}
	if len(snap.News) != 1 || len(snap.ForumPosts) != 1 {
		t.Fatalf("collections missing: news=%d posts=%d", len(snap.News), len(snap.ForumPosts))
	}
}

func TestCollectFailedProviderLeavesSectionAbsent(t *testing.T) {
	p := &fakeProviders{marketErr: true, news: []models.NewsItem{}}
	c := testCollector(p, nil)

	snap := c.Collect(context.Background(), "NVDA")
	if snap.Market != nil {
		t.Fatal("failed market fetch must leave section nil")
	}
	if snap.News == nil {
		t.Fatal("fetched-but-empty news must stay non-nil")
	}
}

func TestCollectDerivesMentions(t *testing.T) {
	p := &fakeProviders{
		news: []models.NewsItem{
			{Title: "Machine learning drives earnings"},
			{Title: "Artificial intelligence everywhere"},
			{Title: "Quarterly dividend declared"},
		},
	}
	c := testCollector(p, nil)

	snap := c.Collect(context.Background(), "NVDA")
	if snap.AIMetrics == nil || snap.AIMetrics.AIMentions == nil {
		t.Fatal("mentions not derived")
	}
	if got := *snap.AIMetrics.AIMentions; got != 2 {
		t.Fatalf("expected 2 mentions, got %d", got)
	}
	if snap.AIMetrics.PatentCount != nil {
		t.Fatal("patent count has no source and must stay absent")
	}
}

func TestCollectNoTextSourcesLeavesMentionsAbsent(t *testing.T) {
	p := &fakeProviders{newsErr: true}
	c := testCollector(p, nil)

	snap := c.Collect(context.Background(), "NVDA")
	if snap.AIMetrics != nil && snap.AIMetrics.AIMentions != nil {
		t.Fatal("mentions derived without any fetched text source")
	}
}

func TestCollectJobPayload(t *testing.T) {
	p := &fakeProviders{}
	proc := NewSnapshotProcessor(newTestEngine(t), &fakePublisher{}, &fakeStorage{}, nopMetrics{}, "clickhouse")
	job := NewCollectJob(testCollector(p, proc))

	if job.Type() != CollectJobType {
		t.Fatalf("job type: %s", job.Type())
	}
	if err := job.Handle(context.Background(), map[string]interface{}{"ticker": "NVDA"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if err := job.Handle(context.Background(), map[string]interface{}{}); err == nil {
		t.Fatal("missing ticker should fail")
	}
}
