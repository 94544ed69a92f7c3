package usecase

import (
	"context"
	"sync"
	"time"

	"BubbleWatch/internal/domain/models"
	drepo "BubbleWatch/internal/domain/repository"
	domsvc "BubbleWatch/internal/domain/service"
	mid "BubbleWatch/internal/middleware"
	"BubbleWatch/internal/services/features"
	applogger "BubbleWatch/pkg/logger"
)

// CollectorConfig carries the collection-loop settings.
type CollectorConfig struct {
	Tickers         []string
	Interval        time.Duration
	ProviderTimeout time.Duration
	MaxConcurrent   int
	NewsLimit       int
	FilingsLimit    int
	AIKeywords      []string
}

// SnapshotCollector runs the recurring collection cycle: fetch all provider
// sections per ticker, assemble a snapshot, and hand it to the processor.
// Provider failures produce absent sections, never a failed cycle.
type SnapshotCollector struct {
	cfg     CollectorConfig
	market  domsvc.MarketDataProvider
	funds   domsvc.FundamentalsProvider
	news    domsvc.NewsProvider
	filings domsvc.FilingsProvider
	forum   domsvc.ForumProvider
	proc    *SnapshotProcessor
	metrics drepo.Metrics
	pipe    *mid.ScorePipeline
	log     *applogger.Logger

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
}

// NewSnapshotCollector creates a new SnapshotCollector instance.
func NewSnapshotCollector(
	cfg CollectorConfig,
	market domsvc.MarketDataProvider,
	funds domsvc.FundamentalsProvider,
	news domsvc.NewsProvider,
	filings domsvc.FilingsProvider,
	forum domsvc.ForumProvider,
	proc *SnapshotProcessor,
	metrics drepo.Metrics,
	pipe *mid.ScorePipeline,
) *SnapshotCollector {
	return &SnapshotCollector{
		cfg:     cfg,
		market:  market,
		funds:   funds,
		news:    news,
		filings: filings,
		forum:   forum,
		proc:    proc,
		metrics: metrics,
		pipe:    pipe,
		stopCh:  make(chan struct{}),
	}
}

// SetLogger injects a structured logger.
func (c *SnapshotCollector) SetLogger(l *applogger.Logger) { c.log = l }

// Tickers returns the configured ticker list.
func (c *SnapshotCollector) Tickers() []string { return c.cfg.Tickers }

// Processor returns the underlying SnapshotProcessor for lifecycle management.
func (c *SnapshotCollector) Processor() *SnapshotProcessor { return c.proc }

// Start launches the recurring collection loop.
func (c *SnapshotCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	go c.run(ctx)
	return nil
}

func (c *SnapshotCollector) run(ctx context.Context) {
	// first cycle immediately, then on the interval
	c.collectAll(ctx)
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.collectAll(ctx)
		}
	}
}

func (c *SnapshotCollector) collectAll(ctx context.Context) {
	start := time.Now()
	sem := make(chan struct{}, c.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	for _, t := range c.cfg.Tickers {
		wg.Add(1)
		sem <- struct{}{}
		go func(ticker string) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := c.Refresh(ctx, ticker); err != nil {
				c.metrics.RecordError("collect")
				if c.log != nil {
					c.log.Warn("collect failed",
						applogger.String("ticker", ticker), applogger.Error(err))
				}
			}
		}(t)
	}
	wg.Wait()
	c.metrics.RecordLatency("collect_cycle", time.Since(start).Seconds())
}

// Refresh collects and processes a single ticker. Also the entry point for
// on-demand refresh jobs.
func (c *SnapshotCollector) Refresh(ctx context.Context, ticker string) error {
	snap := c.Collect(ctx, ticker)
	if c.pipe != nil {
		return c.pipe.Process(ctx, snap)
	}
	return c.proc.Process(ctx, snap)
}

// Collect assembles one snapshot from whatever the providers return. The four
// provider groups are fetched concurrently under independent timeouts.
func (c *SnapshotCollector) Collect(ctx context.Context, ticker string) *models.RawTickerSnapshot {
	snap := &models.RawTickerSnapshot{Ticker: ticker, Timestamp: time.Now().UTC()}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		filingTexts []string
	)

	fetch := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, c.cfg.ProviderTimeout)
			defer cancel()
			if err := fn(fctx); err != nil {
				c.metrics.RecordError("provider_" + name)
				if c.log != nil {
					c.log.Warn("provider fetch failed",
						applogger.String("provider", name),
						applogger.String("ticker", ticker),
						applogger.Error(err))
				}
			}
		}()
	}

	fetch("market", func(fctx context.Context) error {
		md, err := c.market.MarketData(fctx, ticker)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.Market = md
		mu.Unlock()
		return nil
	})
	fetch("fundamentals", func(fctx context.Context) error {
		ai, err := c.funds.AIMetrics(fctx, ticker)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.AIMetrics = ai
		mu.Unlock()
		return nil
	})
	fetch("news", func(fctx context.Context) error {
		items, err := c.news.News(fctx, ticker, c.cfg.NewsLimit)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.News = items
		mu.Unlock()
		return nil
	})
	fetch("filings", func(fctx context.Context) error {
		texts, err := c.filings.Filings(fctx, ticker, c.cfg.FilingsLimit)
		if err != nil {
			return err
		}
		mu.Lock()
		filingTexts = texts
		mu.Unlock()
		return nil
	})
	fetch("forum", func(fctx context.Context) error {
		posts, err := c.forum.ForumPosts(fctx, ticker)
		if err != nil {
			return err
		}
		mu.Lock()
		snap.ForumPosts = posts
		mu.Unlock()
		return nil
	})

	wg.Wait()

	c.deriveMentions(snap, filingTexts)
	return snap
}

// deriveMentions fills aiMentions from keyword hits across news titles and
// filing form texts. Defined only when at least one of those sources was
// actually fetched; patent counts have no source and stay absent.
func (c *SnapshotCollector) deriveMentions(snap *models.RawTickerSnapshot, filingTexts []string) {
	if snap.News == nil && filingTexts == nil {
		return
	}
	texts := make([]string, 0, len(snap.News)+len(filingTexts))
	for _, n := range snap.News {
		texts = append(texts, n.Title)
	}
	texts = append(texts, filingTexts...)

	mentions := features.CountMentions(texts, c.cfg.AIKeywords)
	if snap.AIMetrics == nil {
		snap.AIMetrics = &models.AIMetrics{}
	}
	snap.AIMetrics.AIMentions = models.Int(mentions)
}

// Shutdown stops the loop and pipeline.
func (c *SnapshotCollector) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	c.started = false
	close(c.stopCh)
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return nil
}
