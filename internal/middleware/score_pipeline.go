package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"BubbleWatch/internal/domain/models"
	domrepo "BubbleWatch/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, snap *models.RawTickerSnapshot) error
}

// ScorePipeline sits between the collector and the scoring/backend stage.
// It validates snapshots, throttles per ticker, and buffers work when the
// downstream backend is unavailable.
type ScorePipeline struct {
	proc        Proc
	metrics     domrepo.Metrics
	minInterval time.Duration
	bufSize     int
	bufCh       chan *models.RawTickerSnapshot
	stopCh      chan struct{}
	started     bool
	mu          sync.Mutex
	lastSeen    map[string]time.Time // per-ticker last accepted time
}

type PipelineOption func(*ScorePipeline)

// WithMinInterval sets the minimum spacing between snapshots per ticker.
// Guards against refresh-job storms on the same symbol.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *ScorePipeline) {
		if d > 0 {
			p.minInterval = d
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *ScorePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewScorePipeline creates a new pipeline.
func NewScorePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *ScorePipeline {
	p := &ScorePipeline{
		proc:        proc,
		metrics:     metrics,
		minInterval: time.Second,
		bufSize:     256,
		bufCh:       make(chan *models.RawTickerSnapshot, 256),
		stopCh:      make(chan struct{}),
		lastSeen:    make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.RawTickerSnapshot, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered snapshots.
func (p *ScorePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case s := <-p.bufCh:
				if s == nil {
					continue
				}
				if err := p.proc.Process(ctx, s); err != nil {
					// exponential backoff with cap
					if backoff < 30*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- s:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *ScorePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a snapshot downstream, buffering
// on backend errors so a flaky sink does not lose a collection cycle.
func (p *ScorePipeline) Process(ctx context.Context, s *models.RawTickerSnapshot) error {
	start := time.Now()
	if err := validateSnapshot(s); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(s.Ticker, start) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.Process(ctx, s); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- s:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateSnapshot(s *models.RawTickerSnapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot nil")
	}
	if s.Ticker == "" {
		return fmt.Errorf("ticker empty")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("timestamp unset")
	}
	return nil
}

func (p *ScorePipeline) allow(ticker string, now time.Time) bool {
	if p.minInterval <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[ticker]
	if !last.IsZero() && now.Sub(last) < p.minInterval {
		return false
	}
	p.lastSeen[ticker] = now
	return true
}
