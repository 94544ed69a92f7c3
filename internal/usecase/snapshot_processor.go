package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"BubbleWatch/internal/domain/models"
	drepo "BubbleWatch/internal/domain/repository"
	domsvc "BubbleWatch/internal/domain/service"
	icache "BubbleWatch/internal/service/cache"
)

// ResultSink receives every freshly scored result (websocket hub, alerting).
type ResultSink interface {
	Notify(res *models.CompositeRiskResult)
}

// SnapshotProcessor scores raw snapshots and routes them to the configured
// backend, updating the latest-result cache and notifying sinks.
type SnapshotProcessor struct {
	scorer  domsvc.RiskScorer
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	cache   icache.BytesCache
	ttl     time.Duration
	backend string
	sinks   []ResultSink
}

// NewSnapshotProcessor creates a new SnapshotProcessor instance.
func NewSnapshotProcessor(
	scorer domsvc.RiskScorer,
	pub drepo.Publisher,
	store drepo.Storage,
	metrics drepo.Metrics,
	backend string,
) *SnapshotProcessor {
	return &SnapshotProcessor{
		scorer:  scorer,
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// SetCache wires the latest-result cache used by the API layer.
func (p *SnapshotProcessor) SetCache(c icache.BytesCache, ttl time.Duration) {
	p.cache = c
	p.ttl = ttl
}

// AddSink registers a sink notified on every scored result.
func (p *SnapshotProcessor) AddSink(s ResultSink) {
	p.sinks = append(p.sinks, s)
}

// LatestCacheKey is the cache key for a ticker's most recent result.
func LatestCacheKey(ticker string) string { return "risk:latest:" + ticker }

// Process scores one snapshot and routes it to the configured backend.
// Scoring itself cannot fail; only downstream delivery can.
func (p *SnapshotProcessor) Process(ctx context.Context, snap *models.RawTickerSnapshot) error {
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}

	start := time.Now()
	res := p.scorer.Score(snap)
	p.metrics.RecordLatency("score", time.Since(start).Seconds())
	p.metrics.RecordRisk(&res)

	p.updateCache(&res)
	for _, s := range p.sinks {
		s.Notify(&res)
	}

	start = time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, snap, &res)
	case "clickhouse":
		err = p.store.Store(ctx, snap, &res)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	p.metrics.RecordLatency("backend_write", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordError("backend_write")
		return fmt.Errorf("route %s: %w", p.backend, err)
	}
	p.metrics.RecordMessageSent(p.backend, snap.Ticker)
	return nil
}

func (p *SnapshotProcessor) updateCache(res *models.CompositeRiskResult) {
	if p.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		p.metrics.RecordError("cache_marshal")
		return
	}
	if err := p.cache.SetBytes(LatestCacheKey(res.Ticker), b, p.ttl); err != nil {
		p.metrics.RecordError("cache_set")
	}
}

// Close releases backend resources.
func (p *SnapshotProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
